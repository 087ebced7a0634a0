package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/internal/httpclient"
	"dockwatch/ports"
)

// Client talks to the docking backend over the resilient HTTP client.
// It implements ports.DockingBackend.
type Client struct {
	baseURL string
	http    *httpclient.Client
	log     *internal.Logger
}

var _ ports.DockingBackend = (*Client)(nil)

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, http *httpclient.Client, log *internal.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		log:     log,
	}
}

// SubmitJob uploads protein, ligands and parameters as multipart form data.
func (c *Client) SubmitJob(ctx context.Context, sub ports.JobSubmission) (docking.JobRecord, error) {
	if sub.JobName == "" {
		return docking.JobRecord{}, core.NewValidationError("job_name", "is required")
	}
	if len(sub.ProteinPDB) == 0 && sub.ProteinSequence == "" {
		return docking.JobRecord{}, core.NewValidationError("protein", "either a PDB file or a sequence is required")
	}
	if len(sub.LigandFiles) == 0 {
		return docking.JobRecord{}, core.NewValidationError("ligand_files", "at least one ligand is required")
	}

	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return docking.JobRecord{}, err
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		URL:         c.baseURL + "/jobs",
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		return docking.JobRecord{}, err
	}

	job, err := JobFromJSON(resp.Body)
	if err != nil {
		return docking.JobRecord{}, parseError(resp, err)
	}
	c.log.Info("submitted job %s (%s)", job.ID, job.Name)
	return job, nil
}

// FetchJob retrieves a job status snapshot.
func (c *Client) FetchJob(ctx context.Context, id core.JobID) (docking.JobRecord, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		URL: fmt.Sprintf("%s/jobs/%s", c.baseURL, id),
	})
	if err != nil {
		return docking.JobRecord{}, err
	}
	job, err := JobFromJSON(resp.Body)
	if err != nil {
		return docking.JobRecord{}, parseError(resp, err)
	}
	return job, nil
}

// FetchResults retrieves and normalizes a job's docking results.
func (c *Client) FetchResults(ctx context.Context, id core.JobID) ([]docking.LigandResultSet, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		URL: fmt.Sprintf("%s/jobs/%s/results", c.baseURL, id),
	})
	if err != nil {
		return nil, err
	}
	sets, err := ResultsFromJSON(resp.Body)
	if err != nil {
		return nil, parseError(resp, err)
	}
	return sets, nil
}

// RequestAnalysis forwards an AI analysis request and returns the payload
// as an opaque schema-tagged blob. The content is not interpreted here.
func (c *Client) RequestAnalysis(ctx context.Context, id core.JobID, request []byte) (docking.AnalysisBlob, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		URL:         fmt.Sprintf("%s/jobs/%s/analyze", c.baseURL, id),
		Body:        request,
		ContentType: "application/json",
	})
	if err != nil {
		return docking.AnalysisBlob{}, err
	}
	if !json.Valid(resp.Body) {
		return docking.AnalysisBlob{}, parseError(resp, fmt.Errorf("analysis payload is not JSON"))
	}
	return docking.AnalysisBlob{Schema: "ai_analysis", Payload: resp.Body}, nil
}

// GenerateReport asks the backend for a report artifact. A JSON body with a
// "report" field is unwrapped; any other body is taken as the raw markdown.
func (c *Client) GenerateReport(ctx context.Context, id core.JobID, request []byte) (string, error) {
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:      http.MethodPost,
		URL:         c.baseURL + "/report/generate",
		Body:        request,
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	var wrapped struct {
		Report string `json:"report"`
	}
	if err := json.Unmarshal(resp.Body, &wrapped); err == nil && wrapped.Report != "" {
		return wrapped.Report, nil
	}
	return string(resp.Body), nil
}

func encodeSubmission(sub ports.JobSubmission) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("job_name", sub.JobName); err != nil {
		return nil, "", fmt.Errorf("encode job_name: %w", err)
	}
	if sub.ProteinSequence != "" {
		if err := w.WriteField("protein_sequence", sub.ProteinSequence); err != nil {
			return nil, "", fmt.Errorf("encode protein_sequence: %w", err)
		}
	}
	if len(sub.ProteinPDB) > 0 {
		part, err := w.CreateFormFile("protein_pdb", "protein.pdb")
		if err != nil {
			return nil, "", fmt.Errorf("encode protein_pdb: %w", err)
		}
		if _, err := part.Write(sub.ProteinPDB); err != nil {
			return nil, "", fmt.Errorf("encode protein_pdb: %w", err)
		}
	}
	for name, content := range sub.LigandFiles {
		part, err := w.CreateFormFile("ligand_files", name)
		if err != nil {
			return nil, "", fmt.Errorf("encode ligand %s: %w", name, err)
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", fmt.Errorf("encode ligand %s: %w", name, err)
		}
	}
	if sub.Parameters != nil {
		params, err := json.Marshal(sub.Parameters)
		if err != nil {
			return nil, "", fmt.Errorf("encode docking_parameters: %w", err)
		}
		if err := w.WriteField("docking_parameters", string(params)); err != nil {
			return nil, "", fmt.Errorf("encode docking_parameters: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func parseError(resp *httpclient.Response, err error) error {
	return &httpclient.RequestError{
		Kind:    httpclient.KindParse,
		Status:  resp.StatusCode,
		Message: err.Error(),
		Err:     err,
	}
}
