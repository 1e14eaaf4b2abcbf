package model

import "net/url"

var roleColors = map[Role]string{
	RoleAdmin:     "3b82f6",
	RoleDeveloper: "10b981",
	RoleTester:    "f59e0b",
}

// AvatarURL builds a generated initials avatar tinted by role.
func AvatarURL(name string, role Role) string {
	color, ok := roleColors[role]
	if !ok {
		color = "6b7280"
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", color)
	q.Set("color", "fff")
	return "https://ui-avatars.com/api/?" + q.Encode()
}

// WithAvatar fills Avatar when it is empty.
func (u User) WithAvatar() User {
	if u.Avatar == "" {
		u.Avatar = AvatarURL(u.Name, u.Role)
	}
	return u
}
