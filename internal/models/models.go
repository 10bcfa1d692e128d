// Package models contains data structures for the application's domain models.
package models

// User is a credential record in the local user directory. There is no
// synthetic identifier; a user is addressed by email-or-phone plus password.
//
// Passwords are stored and compared as plain text. That matches the on-device,
// single-user contract this app ships with and is called out as a known defect;
// do not reuse this directory for anything network-facing.
type User struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Post is a single feed entry. ID is the creation timestamp in milliseconds
// and doubles as the primary key for list operations.
type Post struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Images  []string `json:"images,omitempty"`
}

// UserProfile is the single per-install display profile. It is deliberately
// not scoped by user identity even though multiple User records may exist.
type UserProfile struct {
	Avatar   string `json:"avatar,omitempty"`
	Nickname string `json:"nickname"`
	Bio      string `json:"bio"`
}

// RegisterResult reports the outcome of a registration attempt as a value,
// never as an error crossing the repository boundary.
type RegisterResult struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// AuthResult reports the outcome of an authentication attempt. User is set
// only when Accepted is true.
type AuthResult struct {
	Accepted bool   `json:"accepted"`
	User     *User  `json:"user,omitempty"`
	Reason   string `json:"reason"`
}
