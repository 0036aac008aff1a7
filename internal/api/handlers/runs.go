package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/gainerscout/internal/archive"
	"github.com/wonny/gainerscout/internal/finviz"
	"github.com/wonny/gainerscout/internal/pipeline"
	"github.com/wonny/gainerscout/pkg/logger"
)

// Runner is the part of the pipeline runner the API drives
type Runner interface {
	Latest() *pipeline.RunResult
	Start(ctx context.Context, opts pipeline.Options) (uuid.UUID, error)
}

// RunArchive reads archived runs
type RunArchive interface {
	LatestRun(ctx context.Context) (*archive.RunSummary, error)
	RunExists(ctx context.Context, runID uuid.UUID) (bool, error)
	RecordsForRun(ctx context.Context, runID uuid.UUID) ([]*finviz.StockRecord, error)
}

// RunHandler handles run endpoints
// ⭐ SSOT: run API 핸들러는 여기서만
type RunHandler struct {
	runner  Runner
	archive RunArchive
	baseCtx context.Context // runs outlive the request that started them
	logger  *logger.Logger
}

// NewRunHandler creates a run handler; archive may be nil
func NewRunHandler(baseCtx context.Context, runner Runner, archive RunArchive, log *logger.Logger) *RunHandler {
	return &RunHandler{
		runner:  runner,
		archive: archive,
		baseCtx: baseCtx,
		logger:  log,
	}
}

// TriggerRequest is the optional body of POST /api/runs
type TriggerRequest struct {
	SkipNotify bool `json:"skip_notify"`
}

// TriggerResponse is returned when a run was started
type TriggerResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// GetLatest returns the latest finished run
// GET /api/runs/latest
func (h *RunHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	if latest := h.runner.Latest(); latest != nil {
		respondJSON(w, http.StatusOK, latest)
		return
	}

	// 프로세스 재시작 후에는 아카이브의 요약으로 대체
	if h.archive != nil {
		summary, err := h.archive.LatestRun(r.Context())
		if err != nil {
			h.logger.WithError(err).Error("Failed to get latest archived run")
			respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
			return
		}
		if summary != nil {
			respondJSON(w, http.StatusOK, summary)
			return
		}
	}

	respondError(w, http.StatusNotFound, "No run has finished yet")
}

// Trigger starts a run in the background
// POST /api/runs
func (h *RunHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.runner.Start(h.baseCtx, pipeline.Options{SkipNotify: req.SkipNotify})
	if errors.Is(err, pipeline.ErrRunInProgress) {
		respondError(w, http.StatusConflict, "A run is already in progress")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to start run")
		respondError(w, http.StatusInternalServerError, "Failed to start run")
		return
	}

	h.logger.WithField("run_id", id.String()).Info("Run triggered via API")
	respondJSON(w, http.StatusAccepted, TriggerResponse{RunID: id.String(), Status: "started"})
}

// RecordsResponse lists the records of one run
type RecordsResponse struct {
	RunID   string                `json:"run_id"`
	Count   int                   `json:"count"`
	Records []*finviz.StockRecord `json:"records"`
}

// GetRecords returns the records of a run, from memory for the latest run
// and from the archive otherwise
// GET /api/runs/{id}/records
func (h *RunHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	if latest := h.runner.Latest(); latest != nil && latest.RunID == id {
		respondRecords(w, id, latest.Records)
		return
	}

	if h.archive == nil {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	// 레코드 0건인 run도 200 (빈 목록)
	exists, err := h.archive.RunExists(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id.String()).Error("Failed to look up run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run records")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	records, err := h.archive.RecordsForRun(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", id.String()).Error("Failed to get run records")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve run records")
		return
	}
	respondRecords(w, id, records)
}

func respondRecords(w http.ResponseWriter, id uuid.UUID, records []*finviz.StockRecord) {
	if records == nil {
		records = []*finviz.StockRecord{}
	}
	respondJSON(w, http.StatusOK, RecordsResponse{RunID: id.String(), Count: len(records), Records: records})
}
