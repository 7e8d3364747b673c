package models

import "time"

// User is a marketplace account. PublicID is the externally visible
// identifier; ID never leaves the server.
type User struct {
	ID                int64
	PublicID          string
	Firstname         string
	Lastname          string
	Email             string
	PasswordHash      string
	ImageURL          string
	ContactPlatformID *int
	ContactInfo       *string
	JoinedAt          time.Time
	LastLogin         *time.Time
	ItemsListed       int
	ItemsSold         int
	MoneyMade         float64
	Verified          bool
	LastFeedbackAt    *time.Time
	Admin             bool
}

// HasContactInfo reports whether buyers have a way to reach the user.
func (u *User) HasContactInfo() bool {
	return u.ContactPlatformID != nil && u.ContactInfo != nil
}

// NavUser is the slice of a user resolved from a session token on every
// authenticated request.
type NavUser struct {
	ID        int64  `json:"-"`
	PublicID  string `json:"userId"`
	Firstname string `json:"firstname"`
	Admin     bool   `json:"admin"`
}

// AdminUserRow is one line of the admin users listing.
type AdminUserRow struct {
	Firstname   string    `json:"firstname"`
	Lastname    string    `json:"lastname"`
	Email       string    `json:"email"`
	JoinedAt    time.Time `json:"joinedAt"`
	ItemsListed int       `json:"itemsListed"`
	ItemsSold   int       `json:"itemsSold"`
	MoneyMade   float64   `json:"moneyMade"`
}
