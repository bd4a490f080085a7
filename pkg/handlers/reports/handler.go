package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dylandoyle11/RedashETL/pkg/adapters"
	"github.com/dylandoyle11/RedashETL/pkg/models/api"
	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/dylandoyle11/RedashETL/pkg/services/report"
	"github.com/dylandoyle11/RedashETL/pkg/services/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultRunsLimit = 20
)

type Handler struct {
	controller workflow.Controller
	now        func() time.Time
}

func NewHandler(controller workflow.Controller) *Handler {
	return &Handler{
		controller: controller,
		now:        time.Now,
	}
}

// GetPeriod resolves the reporting period of a cadence, optionally as of ?date=YYYY-MM-DD.
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	cadence, ok := h.cadence(w, r)
	if !ok {
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	period, err := report.ResolvePeriod(cadence, asOf)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainPeriodToAPI(period))
}

// StartReport launches a background run; a run already active for the cadence yields 409.
func (h *Handler) StartReport(w http.ResponseWriter, r *http.Request) {
	cadence, ok := h.cadence(w, r)
	if !ok {
		return
	}
	asOf, ok := h.asOf(w, r)
	if !ok {
		return
	}

	run, err := h.controller.Start(r.Context(), cadence, asOf)
	switch {
	case errors.Is(err, workflow.ErrRunInProgress):
		writeError(w, r, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, adapters.MapDomainRunToAPI(run))
}

func (h *Handler) CancelReport(w http.ResponseWriter, r *http.Request) {
	cadence, ok := h.cadence(w, r)
	if !ok {
		return
	}

	err := h.controller.Cancel(r.Context(), cadence)
	switch {
	case errors.Is(err, workflow.ErrRunNotActive):
		writeError(w, r, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := workflow.RunFilter{Limit: defaultRunsLimit}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.ParseUint(limit, 10, 64)
		if err != nil || n == 0 {
			writeError(w, r, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		filter.Limit = n
	}
	if c := r.URL.Query().Get("cadence"); c != "" {
		cadence, err := domain.ParseCadence(c)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err)
			return
		}
		filter.Cadence = cadence
	}

	runs, err := h.controller.Runs(r.Context(), filter)
	switch {
	case errors.Is(err, workflow.ErrHistoryDisabled):
		writeError(w, r, http.StatusNotImplemented, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	response := api.RunList{Runs: make([]api.Run, 0, len(runs))}
	for _, run := range runs {
		response.Runs = append(response.Runs, adapters.MapDomainRunToAPI(run))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.controller.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, workflow.ErrRunNotFound):
		writeError(w, r, http.StatusNotFound, err)
		return
	case errors.Is(err, workflow.ErrHistoryDisabled):
		writeError(w, r, http.StatusNotImplemented, err)
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapDomainRunToAPI(run))
}

func (h *Handler) cadence(w http.ResponseWriter, r *http.Request) (domain.Cadence, bool) {
	cadence, err := domain.ParseCadence(chi.URLParam(r, "cadence"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return "", false
	}
	return cadence, true
}

func (h *Handler) asOf(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return h.now(), true
	}
	t, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, errors.New("date must be formatted as YYYY-MM-DD"))
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	}
	writeJSON(w, r, status, api.Error{Error: err.Error()})
}
