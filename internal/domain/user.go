package domain

import "time"

// NewUserWindow is how close account creation and last sign-in must be
// for a session to count as the user's first.
const NewUserWindow = 2 * time.Second

// User is an authenticated FundsBook user.
type User struct {
	CreatedAt      time.Time
	LastSignInAt   time.Time
	ID             string
	Email          string
	DisplayName    string
	HashedPassword string
}

// IsNew reports whether this is the user's first session.
func (u *User) IsNew() bool {
	d := u.CreatedAt.Sub(u.LastSignInAt)
	if d < 0 {
		d = -d
	}
	return d < NewUserWindow
}
