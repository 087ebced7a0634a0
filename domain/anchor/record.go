package anchor

import (
	"fmt"

	"dockwatch/domain/core"
)

// ConfirmationState tracks what is known about a submitted transaction.
// Unconfirmed means the confirmation wait timed out; the transaction may
// still confirm out-of-band, so it is reported as "submitted, confirmation
// unknown" rather than a failure.
type ConfirmationState string

const (
	ConfirmationPending     ConfirmationState = "pending"
	ConfirmationConfirmed   ConfirmationState = "confirmed"
	ConfirmationUnconfirmed ConfirmationState = "unconfirmed-timeout"
)

// Terminal reports whether the state can no longer change.
func (s ConfirmationState) Terminal() bool {
	return s == ConfirmationConfirmed || s == ConfirmationUnconfirmed
}

// Record is one anchoring attempt for a report.
type Record struct {
	ID                   core.AnchorID     `json:"anchor_id"`
	JobID                core.JobID        `json:"job_id"`
	ContentHash          core.Hash         `json:"content_hash"`
	ReportType           string            `json:"report_type"`
	Stakeholder          string            `json:"stakeholder"`
	TransactionSignature string            `json:"transaction_signature,omitempty"`
	ConfirmationState    ConfirmationState `json:"confirmation_state"`
	CreatedAt            core.Timestamp    `json:"created_at"`
}

// NewRecord starts a pending anchoring attempt.
func NewRecord(jobID core.JobID, contentHash core.Hash, reportType, stakeholder string) Record {
	return Record{
		ID:                core.AnchorID(core.NewID()),
		JobID:             jobID,
		ContentHash:       contentHash,
		ReportType:        reportType,
		Stakeholder:       stakeholder,
		ConfirmationState: ConfirmationPending,
		CreatedAt:         core.Now(),
	}
}

// SetSignature records the transaction signature. Write-once.
func (r *Record) SetSignature(sig string) error {
	if r.TransactionSignature != "" {
		return core.ErrSignatureWritten
	}
	if sig == "" {
		return core.NewValidationError("transaction_signature", "cannot be empty")
	}
	r.TransactionSignature = sig
	return nil
}

// Resolve moves the record from pending to a terminal confirmation state.
// The transition happens exactly once.
func (r *Record) Resolve(state ConfirmationState) error {
	if !state.Terminal() {
		return core.NewValidationError("confirmation_state", fmt.Sprintf("%s is not terminal", state))
	}
	if r.ConfirmationState.Terminal() {
		return fmt.Errorf("anchor %s already resolved as %s", r.ID, r.ConfirmationState)
	}
	r.ConfirmationState = state
	return nil
}
