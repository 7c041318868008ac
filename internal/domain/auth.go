package domain

import "time"

// Principal is the authenticated caller threaded explicitly into every service call.
type Principal struct {
	User        User
	Groups      []string
	Permissions map[Permission]struct{}
	TokenID     string
	ExpiresAt   time.Time
}

// UserID returns the requesting user's id.
func (p *Principal) UserID() int64 {
	if p == nil {
		return 0
	}
	return p.User.ID
}

// HasPermission reports whether any of the principal's groups grants perm.
func (p *Principal) HasPermission(perm Permission) bool {
	if p == nil || p.Permissions == nil {
		return false
	}
	_, ok := p.Permissions[perm]
	return ok
}

// InGroup reports membership by group name.
func (p *Principal) InGroup(name string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.Groups {
		if g == name {
			return true
		}
	}
	return false
}
