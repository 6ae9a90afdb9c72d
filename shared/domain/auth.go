package domain

type Credentials struct {
	Email    Email
	Password Password
}

// Registration carries the raw sign-up form. Confirm must match Password;
// checked locally before any provider call.
type Registration struct {
	Username string
	Email    Email
	Password Password
	Confirm  Password
}
