package rbac

// Permission codes granted across the platform. The catalog is curated here
// and seeded into the database; it is not user editable.
const (
	PermAuthRegister  = "auth.user.register"
	PermAuthVerifyOTP = "auth.user.verify_otp"
	PermAuthLogin     = "auth.user.login"

	PermProfileView   = "user.profile.view"
	PermProfileUpdate = "user.profile.update"

	PermKYCUpload        = "kyc.document.upload"
	PermKYCView          = "kyc.document.view"
	PermKYCReview        = "kyc.document.review"
	PermKYCApprove       = "kyc.document.approve"
	PermKYCReject        = "kyc.document.reject"
	PermKYCDocTypeManage = "kyc.document_type.manage"

	PermServiceView              = "service.view"
	PermServiceManage            = "service.manage"
	PermServiceRequirementManage = "service.requirement.manage"
	PermServiceWorkflowManage    = "service.workflow.manage"

	PermApplicationCreate      = "service.application.create"
	PermApplicationCreateAsCTV = "service.application.create_as_ctv"
	PermApplicationView        = "service.application.view"
	PermApplicationViewAll     = "service.application.view_all"
	PermApplicationReview      = "service.application.review"
	PermApplicationStageUpdate = "service.application.stage.update"

	PermBalanceView        = "finance.balance.view"
	PermWithdrawCreate     = "finance.withdraw.create"
	PermWithdrawApprove    = "finance.withdraw.approve"
	PermCommissionView     = "finance.commission.view"
	PermCommissionSnapshot = "finance.commission.snapshot"
	PermKPIManage          = "finance.kpi.manage"

	PermReferralPerformanceView = "referral.performance.view"

	PermUserView         = "system.user.view"
	PermUserManage       = "system.user.manage"
	PermRoleView         = "system.role.view"
	PermRoleManage       = "system.role.manage"
	PermRoleAssign       = "system.role.assign"
	PermPermissionView   = "system.permission.view"
	PermPermissionManage = "system.permission.manage"
	PermAuditView        = "system.audit.view"
	PermSettingsManage   = "system.settings.manage"
)

// Definition describes one catalog entry.
type Definition struct {
	Code        string `json:"code"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

var catalog = []Definition{
	{PermAuthRegister, "auth", "Register a new account"},
	{PermAuthVerifyOTP, "auth", "Verify a one-time passcode"},
	{PermAuthLogin, "auth", "Sign in with credentials"},

	{PermProfileView, "user", "View own profile"},
	{PermProfileUpdate, "user", "Update own profile"},

	{PermKYCUpload, "kyc", "Upload KYC documents"},
	{PermKYCView, "kyc", "View own KYC documents"},
	{PermKYCReview, "kyc", "Review submitted KYC documents"},
	{PermKYCApprove, "kyc", "Approve KYC documents"},
	{PermKYCReject, "kyc", "Reject KYC documents"},
	{PermKYCDocTypeManage, "kyc", "Manage KYC document types"},

	{PermServiceView, "service", "View credit services"},
	{PermServiceManage, "service", "Manage credit services"},
	{PermServiceRequirementManage, "service", "Manage service requirements"},
	{PermServiceWorkflowManage, "service", "Manage service workflows"},
	{PermApplicationCreate, "service", "Create own applications"},
	{PermApplicationCreateAsCTV, "service", "Create applications on behalf of referred customers"},
	{PermApplicationView, "service", "View own applications"},
	{PermApplicationViewAll, "service", "View all applications"},
	{PermApplicationReview, "service", "Review applications"},
	{PermApplicationStageUpdate, "service", "Move applications between stages"},

	{PermBalanceView, "finance", "View balances"},
	{PermWithdrawCreate, "finance", "Create withdrawal requests"},
	{PermWithdrawApprove, "finance", "Approve withdrawal requests"},
	{PermCommissionView, "finance", "View commission statements"},
	{PermCommissionSnapshot, "finance", "Snapshot commission periods"},
	{PermKPIManage, "finance", "Manage KPI targets"},

	{PermReferralPerformanceView, "referral", "View referral performance"},

	{PermUserView, "system", "View platform users"},
	{PermUserManage, "system", "Manage platform users"},
	{PermRoleView, "system", "View roles"},
	{PermRoleManage, "system", "Manage roles"},
	{PermRoleAssign, "system", "Assign roles to users"},
	{PermPermissionView, "system", "View the permission catalog"},
	{PermPermissionManage, "system", "Manage the permission catalog"},
	{PermAuditView, "system", "View audit logs"},
	{PermSettingsManage, "system", "Manage platform settings"},
}

// Catalog returns the full curated permission catalog in declaration order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// GroupedCatalog buckets the catalog by module, preserving declaration order
// inside each bucket.
func GroupedCatalog() map[string][]Definition {
	grouped := make(map[string][]Definition)
	for _, def := range catalog {
		grouped[def.Module] = append(grouped[def.Module], def)
	}
	return grouped
}
