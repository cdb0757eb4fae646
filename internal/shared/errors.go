package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSystemRole occurs when a fixed system role is deleted or recoded.
	ErrSystemRole = errors.New("system role is protected")
	// ErrDuplicateCode occurs when a role or permission code already exists.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrValidation indicates a malformed or rejected input value.
	ErrValidation = errors.New("validation failed")
)

// IsDomainError reports whether err wraps one of the shared sentinels,
// meaning it carries a client-facing status and needs no error logging.
func IsDomainError(err error) bool {
	for _, sentinel := range []error{
		ErrNotFound,
		ErrInvalidCredentials,
		ErrSystemRole,
		ErrDuplicateCode,
		ErrValidation,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
