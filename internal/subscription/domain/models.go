package domain

import (
	"errors"
	"time"
)

type PlanType string

const (
	PlanPremium PlanType = "PREMIUM"
	PlanBasic   PlanType = "BASIC"
)

// DateLayout is the fixed day/month/year layout used for stored dates.
const DateLayout = "02/01/2006"

// Subscription is a prepaid monthly pass. EndDate is informational only.
type Subscription struct {
	ID         string   `json:"id"`
	ClientName string   `json:"clientName"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Type       PlanType `json:"type"`
	Price      int64    `json:"price"`
	CreatedAt  int64    `json:"createdAt,omitempty"`
}

func (s Subscription) Created() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

type CreateSubscriptionRequest struct {
	ClientName string
	// Price is the raw operator input; anything that is not a positive
	// number falls back to the catalog default.
	Price string
}

var (
	ErrInvalidClientName = errors.New("invalid_client_name")
	ErrNotFound          = errors.New("subscription_not_found")
)
