package rbac

// DefaultGrants maps each system role to the permissions it receives when
// the catalog is seeded. Administrators may regrant afterwards; the seeder
// only fills gaps and never revokes.
func DefaultGrants() map[string][]string {
	all := make([]string, 0, len(catalog))
	for _, def := range catalog {
		all = append(all, def.Code)
	}
	return map[string][]string{
		RoleAdmin: all,
		RoleManager: {
			PermProfileView, PermProfileUpdate,
			PermKYCView, PermKYCReview, PermKYCApprove, PermKYCReject, PermKYCDocTypeManage,
			PermServiceView, PermServiceManage, PermServiceRequirementManage, PermServiceWorkflowManage,
			PermApplicationViewAll, PermApplicationReview, PermApplicationStageUpdate,
			PermWithdrawApprove, PermCommissionView, PermCommissionSnapshot, PermKPIManage,
			PermUserView, PermRoleView, PermRoleAssign, PermAuditView,
		},
		RoleSupporter: {
			PermProfileView, PermProfileUpdate,
			PermKYCView, PermKYCReview,
			PermServiceView, PermApplicationViewAll, PermApplicationReview,
			PermUserView,
		},
		RoleCollaborator: {
			PermProfileView, PermProfileUpdate,
			PermServiceView, PermApplicationCreateAsCTV, PermApplicationView,
			PermBalanceView, PermWithdrawCreate, PermCommissionView,
			PermReferralPerformanceView,
		},
		RoleCustomer: {
			PermProfileView, PermProfileUpdate,
			PermKYCUpload, PermKYCView,
			PermServiceView, PermApplicationCreate, PermApplicationView,
			PermBalanceView,
		},
		RoleUser: {
			PermProfileView, PermProfileUpdate, PermServiceView,
		},
	}
}
