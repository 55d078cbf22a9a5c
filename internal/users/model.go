package users

import "time"

// User is an account. PasswordHash is empty for accounts created through Google sign-in.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	GoogleSub    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserResponse never carries credentials. _id mirrors id for older frontend clients.
type UserResponse struct {
	ID        string    `json:"id"`
	LegacyID  string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ToResponse(u User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		LegacyID:  u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UpdateInput carries profile changes. Empty fields are left unchanged.
type UpdateInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
