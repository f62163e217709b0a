package entity

import "time"

// User represents an account row in the `users` table.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	PasswordAlgo string    `db:"password_algo"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Profile is the outward view of a User. It never carries the password hash.
// Snowflake ids exceed 2^53, so the id is encoded as a decimal string.
type Profile struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ProfileUpdate carries a partial update; nil fields are left unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}
