package domain

import "strings"

// Permission is an allowed action on a resource, formatted "resource:action".
type Permission string

// Permission actions mirror the add/change/delete/view verbs of the entity forms.
const (
	ActionView   = "view"
	ActionAdd    = "add"
	ActionChange = "change"
	ActionDelete = "delete"
)

// Entity resource names.
const (
	ResourceTicket     = "ticket"
	ResourceFollowUp   = "followup"
	ResourceAttachment = "attachment"
)

// Group names created by the access bootstrap.
const (
	GroupAdmin      = "Admin"
	GroupCallCenter = "Call Center"
	GroupUsers      = "Users"
)

// NewPermission builds a permission code.
func NewPermission(resource, action string) Permission {
	return Permission(resource + ":" + action)
}

// Parse splits the permission into resource and action.
func (p Permission) Parse() (resource, action string) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// Valid reports whether both halves are present.
func (p Permission) Valid() bool {
	resource, action := p.Parse()
	return resource != "" && action != ""
}

// EntityPermissions returns every permission scoped to the application's entities.
func EntityPermissions() []Permission {
	resources := []string{ResourceTicket, ResourceFollowUp, ResourceAttachment}
	actions := []string{ActionView, ActionAdd, ActionChange, ActionDelete}
	perms := make([]Permission, 0, len(resources)*len(actions))
	for _, resource := range resources {
		for _, action := range actions {
			perms = append(perms, NewPermission(resource, action))
		}
	}
	return perms
}
