// Package capabilities maps permission codes onto the named business
// capabilities the console UI consumes. Call sites read these booleans and
// never hardcode raw codes; adding a capability means adding one entry here.
package capabilities

import (
	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/session"
)

// Set is the full capability surface for one session. Tier booleans express
// "higher operational tiers inherit lower tiers' screen access" and are used
// only for broad layout decisions, never fine-grained action authorization.
type Set struct {
	// Role tiers
	IsAdmin        bool `json:"isAdmin"`
	IsManager      bool `json:"isManager"`
	IsSupporter    bool `json:"isSupporter"`
	IsCustomer     bool `json:"isCustomer"`
	IsCollaborator bool `json:"isCollaborator"`

	// System
	CanViewUsers         bool `json:"canViewUsers"`
	CanManageUsers       bool `json:"canManageUsers"`
	CanViewRoles         bool `json:"canViewRoles"`
	CanManageRoles       bool `json:"canManageRoles"`
	CanAssignRoles       bool `json:"canAssignRoles"`
	CanViewPermissions   bool `json:"canViewPermissions"`
	CanManagePermissions bool `json:"canManagePermissions"`
	CanViewAudit         bool `json:"canViewAudit"`
	CanManageSettings    bool `json:"canManageSettings"`

	// KYC
	CanUploadKYC     bool `json:"canUploadKYC"`
	CanViewKYC       bool `json:"canViewKYC"`
	CanReviewKYC     bool `json:"canReviewKYC"`
	CanApproveKYC    bool `json:"canApproveKYC"`
	CanRejectKYC     bool `json:"canRejectKYC"`
	CanManageDocTypes bool `json:"canManageDocTypes"`

	// Services and applications
	CanViewServices           bool `json:"canViewServices"`
	CanManageServices         bool `json:"canManageServices"`
	CanCreateApplication      bool `json:"canCreateApplication"`
	CanViewApplications       bool `json:"canViewApplications"`
	CanViewAllApplications    bool `json:"canViewAllApplications"`
	CanReviewApplications     bool `json:"canReviewApplications"`
	CanUpdateApplicationStage bool `json:"canUpdateApplicationStage"`

	// Finance
	CanViewBalance        bool `json:"canViewBalance"`
	CanCreateWithdrawal   bool `json:"canCreateWithdrawal"`
	CanApproveWithdrawal  bool `json:"canApproveWithdrawal"`
	CanViewCommission     bool `json:"canViewCommission"`
	CanSnapshotCommission bool `json:"canSnapshotCommission"`
	CanManageKPI          bool `json:"canManageKPI"`

	// Referral
	CanViewReferralPerformance bool `json:"canViewReferralPerformance"`
}

// Derive computes the capability set from a session snapshot. It is a pure
// function of the roles and the server-flattened permission union, so it can
// be unit tested without any HTTP or storage environment.
func Derive(snap session.Snapshot) Set {
	perms := snap.Permissions()
	roles := snap.Roles()
	has := func(code string) bool {
		for _, p := range perms {
			if p == code {
				return true
			}
		}
		return false
	}
	hasAny := func(codes ...string) bool {
		for _, c := range codes {
			if has(c) {
				return true
			}
		}
		return false
	}
	hasRole := func(code string) bool {
		for _, r := range roles {
			if r == code {
				return true
			}
		}
		return false
	}

	return Set{
		IsAdmin:        hasRole(rbac.RoleAdmin),
		IsManager:      rbac.TierAtLeast(roles, rbac.RoleManager),
		IsSupporter:    rbac.TierAtLeast(roles, rbac.RoleSupporter),
		IsCustomer:     hasRole(rbac.RoleCustomer),
		IsCollaborator: hasRole(rbac.RoleCollaborator),

		CanViewUsers:         hasAny(rbac.PermUserView, rbac.PermUserManage),
		CanManageUsers:       has(rbac.PermUserManage),
		CanViewRoles:         hasAny(rbac.PermRoleView, rbac.PermRoleManage),
		CanManageRoles:       has(rbac.PermRoleManage),
		CanAssignRoles:       has(rbac.PermRoleAssign),
		CanViewPermissions:   hasAny(rbac.PermPermissionView, rbac.PermPermissionManage),
		CanManagePermissions: has(rbac.PermPermissionManage),
		CanViewAudit:         has(rbac.PermAuditView),
		CanManageSettings:    has(rbac.PermSettingsManage),

		CanUploadKYC:      has(rbac.PermKYCUpload),
		CanViewKYC:        hasAny(rbac.PermKYCView, rbac.PermKYCReview),
		CanReviewKYC:      has(rbac.PermKYCReview),
		CanApproveKYC:     has(rbac.PermKYCApprove),
		CanRejectKYC:      has(rbac.PermKYCReject),
		CanManageDocTypes: has(rbac.PermKYCDocTypeManage),

		CanViewServices:           has(rbac.PermServiceView),
		CanManageServices:         has(rbac.PermServiceManage),
		CanCreateApplication:      hasAny(rbac.PermApplicationCreate, rbac.PermApplicationCreateAsCTV),
		CanViewApplications:       hasAny(rbac.PermApplicationView, rbac.PermApplicationViewAll),
		CanViewAllApplications:    has(rbac.PermApplicationViewAll),
		CanReviewApplications:     has(rbac.PermApplicationReview),
		CanUpdateApplicationStage: has(rbac.PermApplicationStageUpdate),

		CanViewBalance:        has(rbac.PermBalanceView),
		CanCreateWithdrawal:   has(rbac.PermWithdrawCreate),
		CanApproveWithdrawal:  has(rbac.PermWithdrawApprove),
		CanViewCommission:     has(rbac.PermCommissionView),
		CanSnapshotCommission: has(rbac.PermCommissionSnapshot),
		CanManageKPI:          has(rbac.PermKPIManage),

		CanViewReferralPerformance: has(rbac.PermReferralPerformanceView),
	}
}
