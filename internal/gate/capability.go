package gate

import (
	"slices"

	"github.com/kidandcat/bugracer/internal/model"
)

// Capability is an action whose permission depends on role.
type Capability string

const (
	CreateBug       Capability = "bug.create"
	UpdateBugStatus Capability = "bug.update_status"
	AssignBug       Capability = "bug.assign"
	EditBug         Capability = "bug.edit"
	DeleteBug       Capability = "bug.delete"
	ViewAllBugs     Capability = "bug.view_all"
	ManageProjects  Capability = "project.manage"
	ManageUsers     Capability = "user.manage"
	ManageSettings  Capability = "settings.manage"
)

var capabilities = map[Capability][]model.Role{
	CreateBug:       reporters,
	UpdateBugStatus: statusUpdaters,
	AssignBug:       adminOnly,
	EditBug:         adminOnly,
	DeleteBug:       adminOnly,
	ViewAllBugs:     adminOnly,
	ManageProjects:  adminOnly,
	ManageUsers:     adminOnly,
	ManageSettings:  adminOnly,
}

// Can reports whether user holds c. Unknown capabilities are denied.
func Can(user *model.User, c Capability) bool {
	roles, ok := capabilities[c]
	if !ok || user == nil {
		return false
	}
	return slices.Contains(roles, user.Role)
}

// Visible reports whether user may see bug: admins see everything,
// developers their assignments, testers their own reports.
func Visible(user *model.User, bug model.Bug) bool {
	if user == nil {
		return false
	}
	switch user.Role {
	case model.RoleAdmin:
		return true
	case model.RoleDeveloper:
		return bug.AssigneeID == user.ID
	case model.RoleTester:
		return bug.ReporterID == user.ID
	}
	return false
}

// Filter returns the bugs user may see, in order.
func Filter(user *model.User, bugs []model.Bug) []model.Bug {
	out := make([]model.Bug, 0, len(bugs))
	for _, b := range bugs {
		if Visible(user, b) {
			out = append(out, b)
		}
	}
	return out
}
