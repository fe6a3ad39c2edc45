package verification

import (
	"time"

	"landq-backend/pkg/apperr"
)

type State string

const (
	StateUnverified          State = "unverified"
	StatePendingVerification State = "pending_verification"
	StateVerified            State = "verified"
	StateRejected            State = "rejected"
)

var (
	ErrNotFound         = apperr.New(apperr.KindNotFound, "verification_not_found", "no verification record for parcel")
	ErrNoVerifier       = apperr.New(apperr.KindNotFound, "no_region_verifier", "no verifier assigned to region")
	ErrNotParcelOwner   = apperr.New(apperr.KindAuthorization, "not_parcel_owner", "only the parcel owner may request verification")
	ErrUnauthorized     = apperr.New(apperr.KindAuthorization, "unauthorized", "caller is not the verifier for this region")
	ErrNotAdmin         = apperr.New(apperr.KindAuthorization, "not_admin", "caller may not administer region verifiers")
	ErrAlreadyPending   = apperr.New(apperr.KindState, "already_pending", "verification already pending")
	ErrAlreadyTerminal  = apperr.New(apperr.KindState, "already_terminal", "verification already concluded")
	ErrInvalidState     = apperr.New(apperr.KindState, "invalid_state", "verification is not pending")
	ErrInvalidAppraisal = apperr.New(apperr.KindValidation, "invalid_appraisal", "appraised value must be positive")
	ErrReasonRequired   = apperr.New(apperr.KindValidation, "reason_required", "rejection reason is required")
	ErrInvalidVerifier  = apperr.New(apperr.KindValidation, "invalid_verifier", "verifier must be an account address")
)

// Table: verifications. One row per parcel, created on the first request.
type Record struct {
	ID               uint64     `gorm:"primaryKey;column:id" json:"-"`
	ParcelID         string     `gorm:"size:32;not null;uniqueIndex:ux_verifications_parcel_id" json:"parcel_id"`
	Region           string     `gorm:"size:32;not null;index:idx_verifications_region_state,priority:1" json:"region"`
	State            State      `gorm:"size:24;not null;index:idx_verifications_region_state,priority:2" json:"state"`
	RequestedBy      string     `gorm:"size:42;not null" json:"requested_by"`
	AssignedVerifier string     `gorm:"size:42" json:"assigned_verifier"`
	AppraisedValue   int64      `gorm:"not null;default:0" json:"appraised_value"`
	Notes            string     `gorm:"type:text" json:"notes"`
	RequestedAt      time.Time  `gorm:"not null" json:"requested_at"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	StateUpdatedAt   time.Time  `gorm:"not null" json:"state_updated_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Record) TableName() string { return "verifications" }

var transitions = map[State][]State{
	StateUnverified:          {StatePendingVerification},
	StatePendingVerification: {StateVerified, StateRejected},
}

// CanTransition reports whether the workflow allows from → to. Verified and
// Rejected have no outgoing edges; re-opening a rejection is a policy switch
// handled by the caller.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool { return s == StateVerified || s == StateRejected }

// Table: region_assignments. Verifier is empty after removal; Version
// increases on every write so readers can tell assignments apart.
type RegionAssignment struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	Region     string    `gorm:"size:32;not null;uniqueIndex:ux_region_assignments_region" json:"region"`
	Verifier   string    `gorm:"size:42;not null;default:''" json:"verifier"`
	Version    uint64    `gorm:"not null" json:"version"`
	AssignedBy string    `gorm:"size:42;not null" json:"assigned_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RegionAssignment) TableName() string { return "region_assignments" }

// Authorizes reports whether verifier currently holds the region.
func (a *RegionAssignment) Authorizes(verifier string) bool {
	return a != nil && a.Verifier != "" && a.Verifier == verifier
}
