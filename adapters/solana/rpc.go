package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"dockwatch/internal/httpclient"
)

// RPCError is a JSON-RPC level error returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// RPCClient speaks JSON-RPC 2.0 to a Solana node through the resilient
// HTTP client, which owns retry and backoff policy.
type RPCClient struct {
	endpoint string
	http     *httpclient.Client
}

// NewRPCClient builds a client for the given RPC endpoint.
func NewRPCClient(endpoint string, http *httpclient.Client) *RPCClient {
	return &RPCClient{endpoint: endpoint, http: http}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Call issues one JSON-RPC request and returns the raw result.
func (c *RPCClient) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal rpc request: %w", err)
	}
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		URL:         c.endpoint,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	var decoded rpcResponse
	if err := httpclient.DecodeJSON(resp, &decoded); err != nil {
		return nil, err
	}
	if decoded.Error != nil {
		return nil, decoded.Error
	}
	return decoded.Result, nil
}

// LatestBlockhash fetches the node's current block reference.
func (c *RPCClient) LatestBlockhash(ctx context.Context) (string, error) {
	result, err := c.Call(ctx, "getLatestBlockhash")
	if err != nil {
		return "", err
	}
	var decoded struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return "", fmt.Errorf("decode blockhash result: %w", err)
	}
	if decoded.Value.Blockhash == "" {
		return "", errors.New("node returned empty blockhash")
	}
	return decoded.Value.Blockhash, nil
}

// SendTransaction broadcasts a base64 signed transaction, returning its signature.
func (c *RPCClient) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	result, err := c.Call(ctx, "sendTransaction", signedTx, map[string]string{"encoding": "base64"})
	if err != nil {
		return "", err
	}
	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return "", fmt.Errorf("decode transaction signature: %w", err)
	}
	return signature, nil
}

// SignatureConfirmed reports whether the signature has reached confirmed or
// finalized commitment. An unknown signature is simply not confirmed yet.
func (c *RPCClient) SignatureConfirmed(ctx context.Context, signature string) (bool, error) {
	result, err := c.Call(ctx, "getSignatureStatuses", []string{signature})
	if err != nil {
		return false, err
	}
	var decoded struct {
		Value []*struct {
			ConfirmationStatus string `json:"confirmationStatus"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return false, fmt.Errorf("decode signature status: %w", err)
	}
	if len(decoded.Value) == 0 || decoded.Value[0] == nil {
		return false, nil
	}
	status := decoded.Value[0].ConfirmationStatus
	return status == "confirmed" || status == "finalized", nil
}

// GetTransaction fetches a transaction by signature. Nodes answer an unknown
// signature with a null result; that is the only case mapped to "not found".
// RPC-level errors (malformed signature, node-side failures) surface as
// errors so a verification never misreads them as a missing transaction.
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (json.RawMessage, bool, error) {
	result, err := c.Call(ctx, "getTransaction", signature, map[string]string{"encoding": "json"})
	if err != nil {
		return nil, false, err
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, false, nil
	}
	return result, true, nil
}
