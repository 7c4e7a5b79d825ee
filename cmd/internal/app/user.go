package app

// User is the identity record toroauthd binds to the auth substrate. The
// password travels inbound in create/update bodies and is stored as the
// record's secret; PublicUser is what leaves the process on projected routes.
type User struct {
	UserID   string `json:"id,omitempty"`
	Name     string `json:"username"`
	Password string `json:"password,omitempty"`
}

// ID returns the server-assigned identifier ("" before creation).
func (u User) ID() string { return u.UserID }

// WithID returns a copy of the record carrying id.
func (u User) WithID(id string) User {
	u.UserID = id
	return u
}

// Username returns the login name.
func (u User) Username() string { return u.Name }

// Secret returns the stored credential.
func (u User) Secret() string { return u.Password }

// Public projects the record to its network-safe view.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.UserID, Username: u.Name}
}

// PublicUser is the projection of User returned over the network. It has no
// password field at all, so the secret cannot leak through serialization.
type PublicUser struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}
