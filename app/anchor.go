package app

import (
	"context"
	"encoding/json"
	"fmt"

	"dockwatch/adapters/solana"
	"dockwatch/domain/anchor"
	"dockwatch/domain/core"
	"dockwatch/internal"
	"dockwatch/ports"
)

// AnchorService orchestrates report anchoring: generate the report, render
// and hash the artifact, write the descriptor on-chain, persist the attempt.
type AnchorService struct {
	backend ports.DockingBackend
	chain   *solana.Service
	anchors ports.AnchorRepository
	signer  ports.Signer
	log     *internal.Logger
}

func NewAnchorService(backend ports.DockingBackend, chain *solana.Service, anchors ports.AnchorRepository, signer ports.Signer, log *internal.Logger) *AnchorService {
	return &AnchorService{backend: backend, chain: chain, anchors: anchors, signer: signer, log: log}
}

// AnchorResult is what a completed (or timed-out) anchoring run reports back.
type AnchorResult struct {
	Record     anchor.Record `json:"record"`
	ReportHTML []byte        `json:"-"`
	Network    string        `json:"network"`
	FinalState solana.State  `json:"final_state"`
}

// AnchorReport generates the report for a job, hashes the rendered artifact
// and anchors the hash. The record is persisted in every terminal outcome,
// including unconfirmed-timeout: the broadcast already happened, so losing
// the signature would orphan the transaction.
func (s *AnchorService) AnchorReport(ctx context.Context, jobID core.JobID, stakeholder string, metadata map[string]string) (AnchorResult, error) {
	request, err := json.Marshal(map[string]string{"job_id": string(jobID)})
	if err != nil {
		return AnchorResult{}, fmt.Errorf("encode report request: %w", err)
	}
	report, err := s.backend.GenerateReport(ctx, jobID, request)
	if err != nil {
		return AnchorResult{}, err
	}

	artifact := RenderReportHTML(report)
	rec := anchor.NewRecord(jobID, core.NewHash(artifact), solana.ReportType, stakeholder)

	attempt, err := s.chain.Anchor(ctx, &rec, s.signer, metadata)
	if err != nil {
		// A record with a signature is still worth keeping for audit.
		if rec.TransactionSignature != "" {
			s.persist(ctx, rec)
		}
		return AnchorResult{Record: rec, Network: s.chain.Network(), FinalState: attempt.State}, err
	}
	s.persist(ctx, rec)

	return AnchorResult{
		Record:     rec,
		ReportHTML: artifact,
		Network:    s.chain.Network(),
		FinalState: attempt.State,
	}, nil
}

// Verify reports whether a transaction exists for the signature and, when it
// does, returns its decoded memo descriptor. A missing transaction is a
// normal answer, not an error, and repeat calls are side-effect free.
func (s *AnchorService) Verify(ctx context.Context, signature string) (*solana.MemoPayload, bool, error) {
	payload, err := s.chain.Retrieve(ctx, signature)
	if err != nil {
		return nil, false, err
	}
	if payload == nil {
		return nil, false, nil
	}
	return payload, true, nil
}

// VerifyJob checks the stored anchor for a job against what is actually
// on-chain. A divergent hash is reported as core.ErrHashMismatch.
func (s *AnchorService) VerifyJob(ctx context.Context, jobID core.JobID) (anchor.Record, error) {
	rec, err := s.anchors.GetAnchorByJob(ctx, jobID)
	if err != nil {
		return anchor.Record{}, err
	}
	if rec.TransactionSignature == "" {
		return rec, core.NewValidationError("transaction_signature", "anchor was never submitted")
	}
	payload, found, err := s.Verify(ctx, rec.TransactionSignature)
	if err != nil {
		return rec, err
	}
	if !found {
		return rec, fmt.Errorf("%w: transaction %s", core.ErrNotFound, rec.TransactionSignature)
	}
	if !rec.ContentHash.Equals(core.Hash(payload.Hash)) {
		return rec, fmt.Errorf("%w: stored %s, on-chain %s", core.ErrHashMismatch, rec.ContentHash, payload.Hash)
	}
	return rec, nil
}

func (s *AnchorService) persist(ctx context.Context, rec anchor.Record) {
	if s.anchors == nil {
		return
	}
	if err := s.anchors.SaveAnchor(ctx, rec); err != nil {
		s.log.Warn("persisting anchor %s failed: %v", rec.ID, err)
	}
}
