package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

// DefaultProfilePicture is used when signup supplies no picture.
const DefaultProfilePicture = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460-960-720.png"

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // never expose hash in JSON
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Public is the projection of a User that is safe to return to clients.
type Public struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	IsAdmin        bool      `json:"isAdmin"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u User) Public() Public {
	return Public{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		IsAdmin:        u.IsAdmin,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// New builds a user ready for insertion. Name is trimmed; the profile
// picture falls back to the placeholder.
func New(name, email, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		Email:          email,
		PasswordHash:   passwordHash,
		ProfilePicture: DefaultProfilePicture,
		IsAdmin:        false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
