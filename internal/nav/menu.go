package nav

import (
	"github.com/meridian-fin/meridian/internal/authz"
	"github.com/meridian-fin/meridian/internal/rbac"
)

// ConsoleMenu is the customer dashboard navigation.
func ConsoleMenu() []Item {
	return []Item{
		{Label: "Overview", Path: "/dashboard", Icon: "home"},
		{Label: "Profile", Path: "/dashboard/profile", Icon: "user",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermProfileView}}},
		{Label: "Applications", Path: "/dashboard/applications", Icon: "file-text",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermApplicationView, rbac.PermApplicationViewAll}}},
		{Label: "Balance", Path: "/dashboard/balance", Icon: "wallet",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermBalanceView}}},
		{Label: "Referrals", Path: "/dashboard/referrals", Icon: "share-2",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermReferralPerformanceView}}},
	}
}

// AdminMenu is the back-office shell navigation, mirroring the admin layout.
func AdminMenu() []Item {
	return []Item{
		{Label: "Dashboard", Path: "/admin", Icon: "layout-dashboard"},
		{Label: "Users", Path: "/admin/users", Icon: "users",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermUserView}}},
		{Label: "Access Control", Icon: "shield",
			Children: []Item{
				{Label: "Roles", Path: "/admin/rbac/roles",
					Require: authz.Requirement{AnyPermissions: []string{rbac.PermRoleView}}},
				{Label: "Permissions", Path: "/admin/rbac/permissions",
					Require: authz.Requirement{AnyPermissions: []string{rbac.PermPermissionView}}},
			}},
		{Label: "KYC Review", Path: "/admin/kyc", Icon: "badge-check",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermKYCReview}}},
		{Label: "Applications", Path: "/admin/applications", Icon: "folder-open",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermApplicationViewAll}}},
		{Label: "Withdrawals", Path: "/admin/withdrawals", Icon: "banknote",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermWithdrawApprove}}},
		{Label: "Settings", Path: "/admin/settings", Icon: "settings",
			Require: authz.Requirement{AnyPermissions: []string{rbac.PermSettingsManage}}},
	}
}
