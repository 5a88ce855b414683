package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the access level derived from Discord guild membership
type UserRole string

const (
	UserRoleVisitor UserRole = "VISITOR"
	UserRoleMember  UserRole = "MEMBER"
	UserRoleAdmin   UserRole = "ADMIN"
)

// User represents a club member identified by their Discord account
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DiscordID string    `db:"discord_id" json:"discordId"`
	Username  string    `db:"username" json:"username"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	IsTerras  bool      `db:"is_terras" json:"isTerras"`
	Coins     int64     `db:"coins" json:"coins"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// CanAfford reports whether the user's coin balance covers amount
func (u *User) CanAfford(amount int64) bool {
	return u.Coins >= amount
}
