package models

import (
	"github.com/google/uuid"
)

// Service is a named backend capability accessible subject to quota.
type Service struct {
	ID          uuid.UUID
	Name        string
	Endpoint    string
	Description string
}

// SubscriptionPlan is a named tier granting access to a set of services,
// each limited to CallLimit calls per reset period.
type SubscriptionPlan struct {
	ID          uuid.UUID
	Name        string
	CallLimit   int
	Description string
}
