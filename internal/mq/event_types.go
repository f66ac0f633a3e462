package mq

import "time"

// Routing keys for user lifecycle events.
const (
	UserRegistered = "user.registered"
	UserCreated    = "user.created"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

type UserEventPayload struct {
	UserID     int       `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewUserEvent(userID int, email string) UserEventPayload {
	return UserEventPayload{
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now(),
	}
}
