package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationStatus is the aggregate outcome persisted to the ledger.
type NotificationStatus string

const (
	NotificationOK          NotificationStatus = "ok"
	NotificationPartialFail NotificationStatus = "partial_fail"
	NotificationNoBinding   NotificationStatus = "no_binding"
)

// NotificationRecord is one ledger row per dispatch attempt. ApartmentKey is
// nil once the apartment has been removed.
type NotificationRecord struct {
	ID           string             `json:"id"`
	ApartmentKey *ApartmentKey      `json:"apartment_no"`
	Count        *int               `json:"count"`
	Note         *string            `json:"note"`
	Status       NotificationStatus `json:"status"`
	Error        *string            `json:"error,omitempty"`
	SentAt       time.Time          `json:"sent_at"`
}

// DispatchStatus is the caller-facing result of a dispatch that reached at least one recipient.
type DispatchStatus string

const (
	DispatchOK      DispatchStatus = "OK"
	DispatchPartial DispatchStatus = "PARTIAL"
)

// RecipientResult records one send attempt. Error carries the gateway payload
// (or the error text) and is set only when OK is false.
type RecipientResult struct {
	UserID string    `json:"userId"`
	OK     bool      `json:"ok"`
	At     time.Time `json:"at"`
	Error  any       `json:"error,omitempty"`
}

type DispatchResult struct {
	Status  DispatchStatus    `json:"status"`
	Results []RecipientResult `json:"results"`
}

// Failed returns the number of recipients whose send failed.
func (r *DispatchResult) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.OK {
			n++
		}
	}
	return n
}

// GatewayError is returned by messaging gateways when the remote side
// answered with an error body worth keeping.
type GatewayError struct {
	StatusCode int
	Payload    json.RawMessage
	Err        error
}

func (e *GatewayError) Error() string {
	if len(e.Payload) > 0 {
		return fmt.Sprintf("gateway status %d: %s", e.StatusCode, e.Payload)
	}
	return fmt.Sprintf("gateway status %d: %v", e.StatusCode, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }
