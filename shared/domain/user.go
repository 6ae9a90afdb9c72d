package domain

// User identity as issued by the identity provider.
// Read-only after registration except DisplayName.
type User struct {
	Id          UserId `json:"id"`
	DisplayName string `json:"display_name"`
	Email       Email  `json:"email"`
}

// DisplayLabel is the name shown next to authored content.
// Falls back to the account email when no display name is set.
func (u User) DisplayLabel() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
