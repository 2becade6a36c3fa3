package main

type User struct {
	ID       int64
	Username string `gorm:"uniqueIndex"`
	Email    string
	Password string
}

// DiscordLink maps a discord user id to exactly one local user. Both columns
// carry unique indexes: a discord account can belong to one user, and a user
// can hold one discord link.
type DiscordLink struct {
	ID        int64
	UserID    int64  `gorm:"uniqueIndex"`
	DiscordID string `gorm:"uniqueIndex"`
}
