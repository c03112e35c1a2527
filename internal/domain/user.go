package domain

import "time"

// User is the account record behind the credential collaborator. Optional
// profile attributes are plain typed pointer fields; absent means "not set".
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Nickname     *string    `json:"nickname,omitempty" dynamodbav:"nickname"`
	AvatarURL    *string    `json:"avatar_url,omitempty" dynamodbav:"avatar_url"`
	Birthday     *time.Time `json:"birthday,omitempty" dynamodbav:"birthday"`
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Identity returns the session key pair for this user.
func (u *User) Identity() Identity {
	return Identity{Username: u.Username, UserID: u.UserID}
}
