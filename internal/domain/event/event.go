package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ParcelRegistered       Type = "parcel.registered"
	VerificationRequested  Type = "verification.requested"
	VerificationVerified   Type = "verification.verified"
	VerificationRejected   Type = "verification.rejected"
	RegionVerifierAssigned Type = "region.verifier_assigned"
	RegionVerifierRemoved  Type = "region.verifier_removed"
	LoanActivated          Type = "loan.activated"
	LoanRepayment          Type = "loan.repayment"
	LoanRepaid             Type = "loan.repaid"
	LoanDefaulted          Type = "loan.defaulted"
)

// Event is a committed state change, published for dashboards and notifiers.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	ParcelID   string         `json:"parcel_id,omitempty"`
	Region     string         `json:"region,omitempty"`
	Actor      string         `json:"actor,omitempty"`
	State      string         `json:"state,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func New(t Type, parcelID, actor, state string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		ParcelID:   parcelID,
		Actor:      actor,
		State:      state,
		OccurredAt: at.UTC(),
	}
}

// With returns e with key set in Data.
func (e Event) With(key string, v any) Event {
	data := make(map[string]any, len(e.Data)+1)
	for k, old := range e.Data {
		data[k] = old
	}
	data[key] = v
	e.Data = data
	return e
}

// Publisher delivers events at most once. Callers publish after commit and
// treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
