package solana

import (
	"encoding/json"
	"fmt"
	"time"

	"dockwatch/domain/core"
)

// MaxMemoBytes is the single-instruction size limit on the target chain.
const MaxMemoBytes = 1232

// ReportType is the canonical descriptor type for anchored reports.
const ReportType = "molecular_docking_report"

// MemoPayload is the canonical content descriptor written on-chain.
// Field order is fixed by the struct so serialization is deterministic.
type MemoPayload struct {
	Type      string            `json:"type"`
	Hash      string            `json:"hash"`
	Timestamp string            `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// BuildMemoPayload serializes the descriptor as compact JSON and enforces
// the chain's instruction size limit before any network call. Callers must
// shrink metadata on core.ErrPayloadTooLarge; nothing is truncated here.
func BuildMemoPayload(hash core.Hash, metadata map[string]string, at time.Time) (MemoPayload, []byte, error) {
	if hash.IsEmpty() {
		return MemoPayload{}, nil, core.NewValidationError("content_hash", "cannot be empty")
	}
	payload := MemoPayload{
		Type:      ReportType,
		Hash:      hash.String(),
		Timestamp: at.UTC().Format(time.RFC3339),
		Metadata:  metadata,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return MemoPayload{}, nil, fmt.Errorf("serialize memo payload: %w", err)
	}
	if len(raw) > MaxMemoBytes {
		return MemoPayload{}, nil, fmt.Errorf("%w: %d bytes > %d", core.ErrPayloadTooLarge, len(raw), MaxMemoBytes)
	}
	return payload, raw, nil
}
