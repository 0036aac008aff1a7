package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/gainerscout/internal/scheduler"
)

// ScheduleStats reports the in-process scheduler
type ScheduleStats interface {
	Stats() []scheduler.JobStats
	History(name string) ([]scheduler.RunRecord, error)
}

// ScheduleHandler serves scheduler state
type ScheduleHandler struct {
	scheduler ScheduleStats
}

// NewScheduleHandler creates a schedule handler
func NewScheduleHandler(s ScheduleStats) *ScheduleHandler {
	return &ScheduleHandler{scheduler: s}
}

// GetJobs returns stats and next activation of every job
// GET /api/schedule
func (h *ScheduleHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": h.scheduler.Stats(),
	})
}

// GetHistory returns the retained run records of one job, oldest first
// GET /api/schedule/{job}/history
func (h *ScheduleHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["job"]

	records, err := h.scheduler.History(name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		respondError(w, http.StatusNotFound, "unknown job: "+name)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []scheduler.RunRecord{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":  name,
		"runs": records,
	})
}
