package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dockwatch/adapters/excel"
	"dockwatch/app"
	"dockwatch/domain/core"
	"dockwatch/internal/httpclient"
	"dockwatch/ports"
)

// maxSubmissionBytes caps an inbound multipart submission (protein + ligands).
const maxSubmissionBytes = 64 << 20

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(r)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	job, err := a.jobs.Submit(r.Context(), sub)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, job)
}

func (a *App) handleListJobs(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.jobs.List(r.Context()))
}

func (a *App) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	job, err := a.jobs.Get(r.Context(), id)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, job)
}

func (a *App) handleJobResults(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	sets, err := a.jobs.Results(r.Context(), id)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, sets)
}

func (a *App) handleAnalyzeJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	request, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	blob, err := a.jobs.Analyze(r.Context(), id, request)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, blob)
}

func (a *App) handleJobStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	stats, err := a.analysis.Statistics(r.Context(), id)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, stats)
}

func (a *App) handleCompareJobs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobIDs []string `json:"job_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	ids := make([]core.JobID, len(req.JobIDs))
	for i, raw := range req.JobIDs {
		id, err := core.ParseJobID(raw)
		if err != nil {
			a.writeMappedError(w, err)
			return
		}
		ids[i] = id
	}

	result, err := a.analysis.Compare(r.Context(), ids)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		workbook, err := excel.WriteComparison(result)
		if err != nil {
			a.writeMappedError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="comparison.xlsx"`)
		if _, err := w.Write(workbook); err != nil {
			a.log.Error("writing workbook response failed: %v", err)
		}
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

func (a *App) handleTrend(w http.ResponseWriter, r *http.Request) {
	result, err := a.analysis.Trend(r.Context())
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, result)
}

// handleGenerateReport returns the markdown report, its rendered HTML
// artifact and the content hash a later anchoring run would claim.
func (a *App) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := core.ParseJobID(req.JobID)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	body, err := json.Marshal(req)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := a.jobs.GenerateReport(r.Context(), id, body)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	artifact := app.RenderReportHTML(report)
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"report":       report,
		"report_html":  string(artifact),
		"content_hash": core.NewHash(artifact),
	})
}

func (a *App) handleAnchorReport(w http.ResponseWriter, r *http.Request) {
	if a.anchors == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.New("anchoring is not configured"))
		return
	}
	var req struct {
		Stakeholder string            `json:"stakeholder"`
		Metadata    map[string]string `json:"metadata"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	result, err := a.anchors.AnchorReport(r.Context(), id, req.Stakeholder, req.Metadata)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, result)
}

func (a *App) handleVerifyJobAnchor(w http.ResponseWriter, r *http.Request) {
	if a.anchors == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.New("anchoring is not configured"))
		return
	}
	id, err := jobIDParam(r)
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	rec, err := a.anchors.VerifyJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrHashMismatch) {
			a.writeJSON(w, http.StatusConflict, map[string]interface{}{
				"record":  rec,
				"matched": false,
				"error":   err.Error(),
			})
			return
		}
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"record":  rec,
		"matched": true,
	})
}

func (a *App) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	if a.anchors == nil {
		a.writeError(w, http.StatusServiceUnavailable, errors.New("anchoring is not configured"))
		return
	}
	payload, found, err := a.anchors.Verify(r.Context(), chi.URLParam(r, "signature"))
	if err != nil {
		a.writeMappedError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"found":   found,
		"payload": payload,
	})
}

// jobIDParam extracts and validates the {id} path parameter.
func jobIDParam(r *http.Request) (core.JobID, error) {
	return core.ParseJobID(chi.URLParam(r, "id"))
}

// decodeSubmission parses the multipart job submission form.
func decodeSubmission(r *http.Request) (ports.JobSubmission, error) {
	if err := r.ParseMultipartForm(maxSubmissionBytes); err != nil {
		return ports.JobSubmission{}, err
	}
	sub := ports.JobSubmission{
		JobName:         r.FormValue("job_name"),
		ProteinSequence: r.FormValue("protein_sequence"),
	}

	if file, _, err := r.FormFile("protein_pdb"); err == nil {
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return ports.JobSubmission{}, err
		}
		sub.ProteinPDB = data
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["ligand_files"] {
			file, err := header.Open()
			if err != nil {
				return ports.JobSubmission{}, err
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				return ports.JobSubmission{}, err
			}
			if sub.LigandFiles == nil {
				sub.LigandFiles = make(map[string][]byte)
			}
			sub.LigandFiles[header.Filename] = data
		}
	}

	if params := r.FormValue("docking_parameters"); params != "" {
		if err := json.Unmarshal([]byte(params), &sub.Parameters); err != nil {
			return ports.JobSubmission{}, err
		}
	}
	return sub, nil
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("encoding response failed: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeMappedError translates domain and transport errors to HTTP statuses.
func (a *App) writeMappedError(w http.ResponseWriter, err error) {
	a.writeError(w, statusFor(err), err)
}

func statusFor(err error) int {
	switch {
	case core.IsNotFoundError(err):
		return http.StatusNotFound
	case core.IsInsufficientData(err):
		return http.StatusBadRequest
	case core.IsValidationError(err):
		return http.StatusBadRequest
	}

	var reqErr *httpclient.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Kind {
		case httpclient.KindValidation:
			return http.StatusBadRequest
		case httpclient.KindTimeout:
			return http.StatusGatewayTimeout
		case httpclient.KindNetwork:
			return http.StatusBadGateway
		case httpclient.KindParse:
			return http.StatusBadGateway
		default:
			if reqErr.Status >= 400 && reqErr.Status < 500 {
				return reqErr.Status
			}
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}
