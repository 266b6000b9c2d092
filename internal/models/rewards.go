package models

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// User account with a loyalty point balance
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	PointsBalance int       `json:"points_balance"`
}

// Catalog reward
type Reward struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	PointsCost  int       `json:"points_cost"`
	Available   bool      `json:"available"`
}

// Redemption of a reward by a user. PointsSpent is a snapshot of the
// reward's cost at redemption time, never a live reference.
type Redemption struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"-"`
	RewardID    uuid.UUID `json:"-"`
	PointsSpent int       `json:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at"`
	Reward      *Reward   `json:"reward,omitempty"`
}

func (u User) Validate() error {
	if u.Email == "" {
		return fmt.Errorf("user email is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return fmt.Errorf("user email is invalid: %w", err)
	}
	if u.PointsBalance < 0 {
		return fmt.Errorf("user balance must not be negative")
	}
	return nil
}

func (r Reward) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("reward name is required")
	}
	if r.PointsCost <= 0 {
		return fmt.Errorf("reward cost must be positive")
	}
	return nil
}

func (r Redemption) Validate() error {
	if r.UserID == uuid.Nil {
		return fmt.Errorf("redemption user is required")
	}
	if r.RewardID == uuid.Nil {
		return fmt.Errorf("redemption reward is required")
	}
	if r.PointsSpent <= 0 {
		return fmt.Errorf("redemption points must be positive")
	}
	if r.RedeemedAt.IsZero() {
		return fmt.Errorf("redemption time is required")
	}
	return nil
}
