package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dockwatch/app"
	"dockwatch/domain/core"
	"dockwatch/domain/docking"
	"dockwatch/internal"
	"dockwatch/internal/httpclient"
	"dockwatch/ports"
)

// downBackend simulates an unreachable docking backend.
type downBackend struct{}

var _ ports.DockingBackend = downBackend{}

func (downBackend) SubmitJob(context.Context, ports.JobSubmission) (docking.JobRecord, error) {
	return docking.JobRecord{}, &httpclient.RequestError{Kind: httpclient.KindNetwork, Message: "backend unreachable"}
}
func (downBackend) FetchJob(context.Context, core.JobID) (docking.JobRecord, error) {
	return docking.JobRecord{}, &httpclient.RequestError{Kind: httpclient.KindRequest, Status: http.StatusNotFound, Message: "no such job"}
}
func (downBackend) FetchResults(context.Context, core.JobID) ([]docking.LigandResultSet, error) {
	return nil, &httpclient.RequestError{Kind: httpclient.KindNetwork, Message: "backend unreachable"}
}
func (downBackend) RequestAnalysis(context.Context, core.JobID, []byte) (docking.AnalysisBlob, error) {
	return docking.AnalysisBlob{}, &httpclient.RequestError{Kind: httpclient.KindTimeout, Message: "request timed out"}
}
func (downBackend) GenerateReport(context.Context, core.JobID, []byte) (string, error) {
	return "", &httpclient.RequestError{Kind: httpclient.KindNetwork, Message: "backend unreachable"}
}

func testServer() *httptest.Server {
	log := internal.NewLogger(internal.LogLevelError)
	store := app.NewJobStore(nil, log)
	store.Load(app.SampleJobs())
	jobs := app.NewJobService(downBackend{}, store, nil, log)
	api := NewApp(jobs, app.NewAnalysisService(jobs, log), nil, log)
	return httptest.NewServer(api.Handler())
}

func TestHandleJobStatistics(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs/sample-egfr-erlotinib/statistics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var stats app.JobStatistics
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Decoding response failed: %v", err)
	}
	if stats.Distribution.Count != 8 {
		t.Errorf("Expected 8 pooled measurements, got %d", stats.Distribution.Count)
	}
	if len(stats.Ligands) != 2 {
		t.Errorf("Expected 2 ligand rows, got %d", len(stats.Ligands))
	}
}

func TestHandleCompareJobs_InsufficientDataIsBadRequest(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	body := strings.NewReader(`{"job_ids":["sample-egfr-erlotinib"]}`)
	resp, err := http.Post(srv.URL+"/api/statistics/compare", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for insufficient data, got %d", resp.StatusCode)
	}
}

func TestHandleCompareJobs_XLSXExport(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	body := strings.NewReader(`{"job_ids":["sample-egfr-erlotinib","sample-egfr-lapatinib"]}`)
	resp, err := http.Post(srv.URL+"/api/statistics/compare?format=xlsx", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Expected an xlsx content type, got %s", ct)
	}
}

func TestHandleGetJob_UnknownJobMapsUpstreamStatus(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs/does-not-exist")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected upstream 404 to pass through, got %d", resp.StatusCode)
	}
}

func TestHandleTrend(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/statistics/trend")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		IsImproving bool `json:"is_improving"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Decoding response failed: %v", err)
	}
	if !result.IsImproving {
		t.Error("Sample data should trend improving")
	}
}

func TestHandleGetJob_BlankIDIsBadRequest(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	// %20 decodes to a blank id, which must be rejected before any lookup.
	resp, err := http.Get(srv.URL + "/api/jobs/%20/statistics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a blank job id, got %d", resp.StatusCode)
	}
}

func TestHandleCompareJobs_BlankIDIsBadRequest(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	body := strings.NewReader(`{"job_ids":[" ","sample-egfr-erlotinib"]}`)
	resp, err := http.Post(srv.URL+"/api/statistics/compare", "application/json", body)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for a blank job id, got %d", resp.StatusCode)
	}
}

func TestHandleAnchorRoutes_DisabledWithoutSigner(t *testing.T) {
	srv := testServer()
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/jobs/sample-egfr-erlotinib/anchor", "application/json", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 when anchoring is not configured, got %d", resp.StatusCode)
	}
}

func TestStatusFor_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{core.ErrJobNotFound, http.StatusNotFound},
		{core.ErrInsufficientData, http.StatusBadRequest},
		{core.ErrEmptyInput, http.StatusBadRequest},
		{core.NewValidationError("field", "bad"), http.StatusBadRequest},
		{&httpclient.RequestError{Kind: httpclient.KindTimeout}, http.StatusGatewayTimeout},
		{&httpclient.RequestError{Kind: httpclient.KindNetwork}, http.StatusBadGateway},
		{&httpclient.RequestError{Kind: httpclient.KindParse}, http.StatusBadGateway},
		{&httpclient.RequestError{Kind: httpclient.KindRequest, Status: 422}, 422},
		{&httpclient.RequestError{Kind: httpclient.KindRequest, Status: 503}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.status {
			t.Errorf("statusFor(%v): expected %d, got %d", tc.err, tc.status, got)
		}
	}
}
