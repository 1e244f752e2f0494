package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID                  string     `json:"id" bson:"_id"`
	Name                string     `json:"name" bson:"name"`
	Email               string     `json:"email" bson:"email"`
	PasswordHash        string     `json:"-" bson:"passwordHash"`
	IsAdmin             bool       `json:"isAdmin" bson:"isAdmin"`
	ResetPasswordToken  string     `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpire *time.Time `json:"-" bson:"resetPasswordExpire,omitempty"`
	CreatedAt           time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser est la projection renvoyée au client, sans hash ni token.
type PublicUser struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, MongoID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Public())
}
