package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserLoggedIn      = "user.logged_in"
	EventTypeUserLoggedOut     = "user.logged_out"
	EventTypeEmailVerified     = "user.email_verified"
	EventTypeStoreOwnerCreated = "store_owner.created"
)

func newBase(eventType string, at time.Time, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at,
		Data:      data,
	}
}

type UserLoggedInEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func NewUserLoggedInEvent(userID, role string, at time.Time) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseEvent: newBase(EventTypeUserLoggedIn, at, map[string]interface{}{
			"user_id": userID,
			"role":    role,
		}),
		UserID: userID,
		Role:   role,
	}
}

type UserLoggedOutEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewUserLoggedOutEvent(userID string, at time.Time) *UserLoggedOutEvent {
	return &UserLoggedOutEvent{
		BaseEvent: newBase(EventTypeUserLoggedOut, at, map[string]interface{}{
			"user_id": userID,
		}),
		UserID: userID,
	}
}

type EmailVerifiedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewEmailVerifiedEvent(userID, email string, at time.Time) *EmailVerifiedEvent {
	return &EmailVerifiedEvent{
		BaseEvent: newBase(EventTypeEmailVerified, at, map[string]interface{}{
			"user_id": userID,
			"email":   email,
		}),
		UserID: userID,
		Email:  email,
	}
}

// StoreOwnerCreatedEvent carries what the welcome email needs, including the
// one-time generated password and the verification link.
type StoreOwnerCreatedEvent struct {
	BaseEvent
	UserID            string `json:"user_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	Username          string `json:"username"`
	TemporaryPassword string `json:"-"`
	VerificationLink  string `json:"verification_link"`
}

func NewStoreOwnerCreatedEvent(userID, email, fullName, username, password, link string, at time.Time) *StoreOwnerCreatedEvent {
	return &StoreOwnerCreatedEvent{
		BaseEvent: newBase(EventTypeStoreOwnerCreated, at, map[string]interface{}{
			"user_id": userID,
			"email":   email,
		}),
		UserID:            userID,
		Email:             email,
		FullName:          fullName,
		Username:          username,
		TemporaryPassword: password,
		VerificationLink:  link,
	}
}
