package api

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/mediakeeper/internal/common"
	"github.com/dmitrijs2005/mediakeeper/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

type writeRequest struct {
	EntityType string           `json:"entityType"`
	Operation  models.Operation `json:"operation"`
	Payload    models.Payload   `json:"payload"`
}

type pendingResponse struct {
	Count   int                    `json:"count"`
	Changes []models.PendingChange `json:"changes"`
}

type syncResponse struct {
	Result models.SyncResult `json:"result"`
	Error  string            `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.engine.NetworkSnapshot())
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	changes, err := s.engine.PendingChanges(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if changes == nil {
		changes = []models.PendingChange{}
	}
	s.respond(w, r, http.StatusOK, pendingResponse{Count: len(changes), Changes: changes})
}

func (s *Server) handleLastSync(w http.ResponseWriter, r *http.Request) {
	res, ok := s.engine.LastSyncResult()
	if !ok {
		s.respond(w, r, http.StatusNotFound, errorResponse{Error: "no sync pass has run yet"})
		return
	}
	s.respond(w, r, http.StatusOK, res)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.ForceSync(r.Context())
	if err == nil {
		s.respond(w, r, http.StatusOK, syncResponse{Result: res})
		return
	}

	status := http.StatusInternalServerError
	var abort *common.PassAbortError
	switch {
	case errors.Is(err, common.ErrOffline):
		status = http.StatusConflict
	case errors.As(err, &abort):
		status = http.StatusServiceUnavailable
	}
	s.respond(w, r, status, syncResponse{Result: res, Error: err.Error()})
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respond(w, r, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	res, err := s.engine.Write(r.Context(), req.EntityType, req.Operation, req.Payload)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Queued {
		status = http.StatusAccepted
	}
	s.respond(w, r, status, res)
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Read(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, res)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	s.respond(w, r, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidOperation),
		errors.Is(err, common.ErrInvalidEntityType),
		errors.Is(err, common.ErrMissingID):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrLocalDataNotAvailable),
		errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrQueueFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error(r.Context(), "failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug(r.Context(), "failed to write response", "error", err)
	}
}
