package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dockwatch/domain/anchor"
	"dockwatch/domain/core"
	"dockwatch/internal"
	"dockwatch/ports"
)

// State tracks one anchoring attempt through its lifecycle.
type State string

const (
	StateCreated           State = "created"
	StateBuilding          State = "building"
	StateAwaitingSignature State = "awaiting_signature"
	StateSubmitted         State = "submitted"
	StateConfirmed         State = "confirmed"
	StateUnconfirmed       State = "unconfirmed"
)

// BroadcastError wraps the transport failure after broadcast retries are
// exhausted. The transaction was never accepted by the node.
type BroadcastError struct {
	Err error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("transaction broadcast failed: %v", e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// Attempt is the in-memory record of one anchoring run. PayloadBytes are
// frozen when Building completes; the signed bytes and the reported hash
// must match byte-for-byte.
type Attempt struct {
	State        State
	Payload      MemoPayload
	PayloadBytes []byte
	Blockhash    string
	Signature    string
}

// Service assembles, submits and confirms memo transactions. It never holds
// private keys: signing is delegated to the caller-supplied ports.Signer.
type Service struct {
	rpc             *RPCClient
	network         string
	blockRefTimeout time.Duration
	confirmTimeout  time.Duration
	confirmInterval time.Duration
	log             *internal.Logger
}

// NewService builds an anchoring service for one network.
func NewService(rpc *RPCClient, network string, blockRefTimeout, confirmTimeout time.Duration, log *internal.Logger) *Service {
	if blockRefTimeout <= 0 {
		blockRefTimeout = 10 * time.Second
	}
	if confirmTimeout <= 0 {
		confirmTimeout = 30 * time.Second
	}
	return &Service{
		rpc:             rpc,
		network:         network,
		blockRefTimeout: blockRefTimeout,
		confirmTimeout:  confirmTimeout,
		confirmInterval: 2 * time.Second,
		log:             log,
	}
}

// Network returns the configured network identifier.
func (s *Service) Network() string { return s.network }

// Anchor runs the full state machine for one record:
// Created -> Building -> AwaitingSignature -> Submitted -> {Confirmed | Unconfirmed}.
// A confirmation timeout resolves the record as Unconfirmed without error,
// because the broadcast already succeeded.
func (s *Service) Anchor(ctx context.Context, rec *anchor.Record, signer ports.Signer, metadata map[string]string) (*Attempt, error) {
	attempt := &Attempt{State: StateCreated}

	attempt.State = StateBuilding
	payload, raw, err := BuildMemoPayload(rec.ContentHash, metadata, rec.CreatedAt.Time())
	if err != nil {
		return attempt, err
	}
	attempt.Payload = payload
	attempt.PayloadBytes = raw

	blockhash, err := s.fetchBlockReference(ctx)
	if err != nil {
		return attempt, err
	}
	attempt.Blockhash = blockhash

	attempt.State = StateAwaitingSignature
	message, err := assembleMessage(raw, blockhash, signer.PublicKey())
	if err != nil {
		return attempt, err
	}
	signed, err := signer.Sign(ctx, message)
	if err != nil {
		return attempt, fmt.Errorf("signer rejected transaction: %w", err)
	}

	signature, err := s.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(signed))
	if err != nil {
		return attempt, &BroadcastError{Err: err}
	}
	attempt.State = StateSubmitted
	attempt.Signature = signature
	if err := rec.SetSignature(signature); err != nil {
		return attempt, err
	}
	s.log.Info("anchored job %s on %s: %s", rec.JobID, s.network, signature)

	confirmed := s.awaitConfirmation(ctx, signature)
	if confirmed {
		attempt.State = StateConfirmed
		return attempt, rec.Resolve(anchor.ConfirmationConfirmed)
	}
	attempt.State = StateUnconfirmed
	s.log.Warn("confirmation window elapsed for %s; transaction may still confirm", signature)
	return attempt, rec.Resolve(anchor.ConfirmationUnconfirmed)
}

// fetchBlockReference gets the latest blockhash under its own deadline.
func (s *Service) fetchBlockReference(ctx context.Context) (string, error) {
	refCtx, cancel := context.WithTimeout(ctx, s.blockRefTimeout)
	defer cancel()
	blockhash, err := s.rpc.LatestBlockhash(refCtx)
	if err != nil {
		if errors.Is(refCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", core.ErrBlockReferenceTimeout, s.blockRefTimeout)
		}
		return "", err
	}
	return blockhash, nil
}

// awaitConfirmation polls signature status until confirmed or the window
// elapses. Poll errors are logged and treated as "not yet confirmed".
func (s *Service) awaitConfirmation(ctx context.Context, signature string) bool {
	deadline := time.Now().Add(s.confirmTimeout)
	ticker := time.NewTicker(s.confirmInterval)
	defer ticker.Stop()

	for {
		confirmed, err := s.rpc.SignatureConfirmed(ctx, signature)
		if err != nil {
			s.log.Debug("confirmation poll for %s failed: %v", signature, err)
		} else if confirmed {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Verify reports whether a transaction exists for the signature.
// Calling it twice has no side effects and returns the same answer.
func (s *Service) Verify(ctx context.Context, signature string) (bool, error) {
	_, found, err := s.rpc.GetTransaction(ctx, signature)
	return found, err
}

// Retrieve fetches a transaction and decodes its memo descriptor.
// A missing transaction returns (nil, nil); malformed memo content is an error.
func (s *Service) Retrieve(ctx context.Context, signature string) (*MemoPayload, error) {
	raw, found, err := s.rpc.GetTransaction(ctx, signature)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	memo, err := extractMemo(raw)
	if err != nil {
		return nil, err
	}
	var payload MemoPayload
	if err := json.Unmarshal([]byte(memo), &payload); err != nil {
		return nil, fmt.Errorf("decode memo descriptor: %w", err)
	}
	return &payload, nil
}

// assembleMessage produces the deterministic unsigned transaction message.
// The memo bytes are embedded exactly as built; they are never re-encoded.
func assembleMessage(memo []byte, blockhash, feePayer string) ([]byte, error) {
	msg := struct {
		Memo            json.RawMessage `json:"memo"`
		RecentBlockhash string          `json:"recentBlockhash"`
		FeePayer        string          `json:"feePayer"`
	}{
		Memo:            json.RawMessage(memo),
		RecentBlockhash: blockhash,
		FeePayer:        feePayer,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("assemble transaction message: %w", err)
	}
	return raw, nil
}

// extractMemo pulls the memo string out of a getTransaction result.
func extractMemo(result json.RawMessage) (string, error) {
	var decoded struct {
		Transaction struct {
			Message struct {
				Memo string `json:"memo"`
			} `json:"message"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return "", fmt.Errorf("decode transaction result: %w", err)
	}
	if decoded.Transaction.Message.Memo == "" {
		return "", errors.New("transaction carries no memo")
	}
	return decoded.Transaction.Message.Memo, nil
}
