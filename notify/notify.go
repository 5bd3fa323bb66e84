// Package notify delivers out-of-band verification requests to authorities
// over email and MQTT.
package notify

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by a transport that has no credentials or
// endpoint and therefore skipped delivery.
var ErrNotConfigured = errors.New("transport not configured")

type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// VerificationNotice is the broker payload announcing that a hazard awaits
// review. It never carries the token.
type VerificationNotice struct {
	HazardID    string    `json:"hazard_id"`
	HazardType  string    `json:"hazard_type"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	AuthorityID string    `json:"authority_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	IssuedAt    time.Time `json:"issued_at"`
}

type Publisher interface {
	Publish(ctx context.Context, notice VerificationNotice) error
}
