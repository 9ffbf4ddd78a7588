package auth

const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

const (
	PermOrgRead           = "org.read"
	PermOrgWrite          = "org.write"
	PermProfilesRead      = "org.profiles.read"
	PermProfilesWrite     = "org.profiles.write"
	PermLocationsWrite    = "org.locations.write"
	PermShiftsRead        = "shifts.read"
	PermShiftsWrite       = "shifts.write"
	PermShiftsBulk        = "shifts.bulk"
	PermTimeClockUse      = "timeclock.use"
	PermTimeClockRead     = "timeclock.read"
	PermSwapsRead         = "swaps.read"
	PermSwapsWrite        = "swaps.write"
	PermSwapsApprove      = "swaps.approve"
	PermPTORead           = "pto.read"
	PermPTOWrite          = "pto.write"
	PermPTOApprove        = "pto.approve"
	PermPTOManage         = "pto.manage"
	PermTimesheetsRead    = "timesheets.read"
	PermTimesheetsWrite   = "timesheets.write"
	PermTimesheetsApprove = "timesheets.approve"
	PermChecklistsRead    = "checklists.read"
	PermChecklistsWrite   = "checklists.write"
	PermFormsRead         = "forms.read"
	PermFormsWrite        = "forms.write"
	PermChatUse           = "chat.use"
	PermNotificationsRead = "notifications.read"
	PermReportsRead       = "reports.read"
	PermAuditRead         = "audit.read"
)

var DefaultPermissions = []string{
	PermOrgRead,
	PermOrgWrite,
	PermProfilesRead,
	PermProfilesWrite,
	PermLocationsWrite,
	PermShiftsRead,
	PermShiftsWrite,
	PermShiftsBulk,
	PermTimeClockUse,
	PermTimeClockRead,
	PermSwapsRead,
	PermSwapsWrite,
	PermSwapsApprove,
	PermPTORead,
	PermPTOWrite,
	PermPTOApprove,
	PermPTOManage,
	PermTimesheetsRead,
	PermTimesheetsWrite,
	PermTimesheetsApprove,
	PermChecklistsRead,
	PermChecklistsWrite,
	PermFormsRead,
	PermFormsWrite,
	PermChatUse,
	PermNotificationsRead,
	PermReportsRead,
	PermAuditRead,
}

var employeePermissions = []string{
	PermOrgRead,
	PermProfilesRead,
	PermShiftsRead,
	PermTimeClockUse,
	PermSwapsRead,
	PermSwapsWrite,
	PermPTORead,
	PermPTOWrite,
	PermTimesheetsRead,
	PermTimesheetsWrite,
	PermChecklistsRead,
	PermChecklistsWrite,
	PermFormsRead,
	PermFormsWrite,
	PermChatUse,
	PermNotificationsRead,
}

var managerPermissions = append(append([]string{}, employeePermissions...),
	PermShiftsWrite,
	PermShiftsBulk,
	PermTimeClockRead,
	PermSwapsApprove,
	PermPTOApprove,
	PermTimesheetsApprove,
	PermReportsRead,
)

var RolePermissions = map[string][]string{
	RoleEmployee: employeePermissions,
	RoleManager:  managerPermissions,
	RoleAdmin:    DefaultPermissions,
	RoleOwner:    DefaultPermissions,
}

// Can is the static capability check used where a handler gates a single
// action on the caller's role.
func Can(roleName, permission string) bool {
	for _, candidate := range RolePermissions[roleName] {
		if candidate == permission {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the role may approve, configure, or
// bulk-modify organization-wide resources.
func IsPrivileged(roleName string) bool {
	switch roleName {
	case RoleOwner, RoleAdmin, RoleManager:
		return true
	}
	return false
}
