package domain

// AnonymousUsername and AnonymousRole describe a caller without a session.
// No customer is ever submitted under AnonymousUsername, so scoped reads
// resolve to an empty set.
const (
	AnonymousUsername = "未知用户"
	AnonymousRole     = RoleGuest
)

// Identity is the request-scoped caller resolved from the session token.
// It is passed explicitly into every scoping and guard call.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// Anonymous returns the identity used when no session is present.
func Anonymous() Identity {
	return Identity{Username: AnonymousUsername, Role: AnonymousRole}
}

// Authenticated reports whether the identity came from a real session.
func (i Identity) Authenticated() bool {
	return i.Username != "" && i.Username != AnonymousUsername
}

// Privileged reports whether the caller sees and may modify every record.
func (i Identity) Privileged() bool {
	return i.Role == RoleAdmin || i.Role == RoleManager
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Owned is implemented by records that carry the username of their creator.
type Owned interface {
	Owner() string
}

// CanModify reports whether the identity may mutate the owned record.
func (i Identity) CanModify(o Owned) bool {
	if i.Privileged() {
		return true
	}
	return o.Owner() == i.Username
}
