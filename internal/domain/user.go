package domain

import "time"

// User is a registered identity. Username is the unique login handle.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch holds the mutable fields of a user; nil leaves a field untouched.
// Username is intentionally absent.
type UserPatch struct {
	PasswordHash *string
	FirstName    *string
	LastName     *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.PasswordHash == nil && p.FirstName == nil && p.LastName == nil
}

// Apply copies the set fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
}

// UserProjection is the public view of a user returned by search. It never
// carries the password hash.
type UserProjection struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Project returns the public view of u.
func (u *User) Project() UserProjection {
	return UserProjection{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
