package verification

import (
	"time"

	"landq-backend/pkg/account"
)

// Policy holds the switches an operator decides on.
type Policy struct {
	// AllowReverifyAfterReject lets the owner re-open a rejected parcel.
	AllowReverifyAfterReject bool
	Admins                   account.Set
}

type VerifyInput struct {
	ParcelID       string
	Verifier       string
	AppraisedValue int64
	Notes          string
}

type RejectInput struct {
	ParcelID string
	Verifier string
	Reason   string
}

type RecordDTO struct {
	ParcelID         string     `json:"parcel_id"`
	Region           string     `json:"region"`
	State            string     `json:"state"`
	RequestedBy      string     `json:"requested_by,omitempty"`
	AssignedVerifier string     `json:"assigned_verifier,omitempty"`
	AppraisedValue   int64      `json:"appraised_value"`
	Notes            string     `json:"notes,omitempty"`
	RequestedAt      *time.Time `json:"requested_at,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

type RegionDTO struct {
	Region     string    `json:"region"`
	Verifier   string    `json:"verifier"`
	Version    uint64    `json:"version"`
	AssignedBy string    `json:"assigned_by"`
	UpdatedAt  time.Time `json:"updated_at"`
}
