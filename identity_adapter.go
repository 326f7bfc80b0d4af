package auth

// UserIdentity adapts a User and its resolved role name into the Identity
// interface for token generation.
type UserIdentity struct {
	user *User
	role string
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
// An empty role resolves to RoleUser.
func NewIdentityFromUser(user *User, role string) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user, role: ResolveRoleName(role)}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// DisplayName returns the user's full name.
func (u UserIdentity) DisplayName() string {
	if u.user == nil {
		return ""
	}
	return u.user.FullName
}

// Role returns the resolved role name.
func (u UserIdentity) Role() string {
	return ResolveRoleName(u.role)
}
