package domain

import (
	"fmt"
	"time"
)

type ID string

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID            ID         `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Bio           string     `json:"bio"`
	ProfilePicURL string     `json:"profilePicUrl"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastSeen      *time.Time `json:"lastSeen,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Satisfies reports whether a holder of r passes a gate requiring required.
func (r Role) Satisfies(required Role) bool {
	switch required {
	case RoleAdmin:
		return r == RoleAdmin
	case RoleUser:
		return r == RoleUser || r == RoleAdmin
	}
	return false
}

// Summary is what other users get to see about someone.
type Summary struct {
	ID            ID     `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	ProfilePicURL string `json:"profilePicUrl"`
}

func (u User) Summary() Summary {
	return Summary{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		ProfilePicURL: u.ProfilePicURL,
	}
}

type ProfileUpdate struct {
	Name          string
	Email         string
	Bio           string
	ProfilePicURL string
}

// PublicProfile is a user as seen by other members: no email, no hash.
type PublicProfile struct {
	ID            ID        `json:"id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	Bio           string    `json:"bio"`
	ProfilePicURL string    `json:"profilePicUrl"`
	Role          Role      `json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:            u.ID,
		Username:      u.Username,
		Name:          u.Name,
		Bio:           u.Bio,
		ProfilePicURL: u.ProfilePicURL,
		Role:          u.Role,
		CreatedAt:     u.CreatedAt,
	}
}
