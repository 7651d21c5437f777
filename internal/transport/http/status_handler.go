package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/service/status"
)

// StatusHandler обслуживает справочник декоративных статусов.
type StatusHandler struct {
	statuses *status.Service
	logger   *log.Entry
}

// NewStatusHandler создаёт обработчик справочника статусов.
func NewStatusHandler(statuses *status.Service, logger *log.Entry) *StatusHandler {
	if logger == nil {
		logger = log.WithField("component", "status-handler")
	}
	return &StatusHandler{statuses: statuses, logger: logger}
}

// Create обрабатывает POST /api/v1/statuses.
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req statusRefDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	ref, err := h.statuses.Create(req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, statusRefFromDomain(ref))
}

// List обрабатывает GET /api/v1/statuses.
func (h *StatusHandler) List(w http.ResponseWriter, _ *http.Request) {
	refs, err := h.statuses.List()
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]statusRefDTO, 0, len(refs))
	for _, ref := range refs {
		dtos = append(dtos, statusRefFromDomain(ref))
	}
	writeJSON(w, http.StatusOK, map[string]any{"statuses": dtos})
}

// Update обрабатывает PUT /api/v1/statuses/{id}.
func (h *StatusHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req statusRefDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	req.ID = chi.URLParam(r, "id")

	ref, err := h.statuses.Update(req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusRefFromDomain(ref))
}
