package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"smartfinances/internal/amqp"
	"smartfinances/internal/core"
	"smartfinances/internal/log"
	"smartfinances/internal/storage"
)

// handleTriggerRefresh queues a refresh request for the worker and flushes
// the render caches so the next poll re-reads the database.
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if s.publisher == nil {
		ServiceUnavailableError("Refresh is unavailable: no broker configured").
			TriggerErrorNotification("Refresh is unavailable").
			Write(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	scope, err := core.ParseRefreshScope(r.Form.Get("scope"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.publisher.PublishRefreshRequest(r.Context(), scope, "dashboard"); err != nil {
		s.logger.ErrorContext(r.Context(), "Refresh publish failed",
			log.FieldError, err,
			log.FieldScope, string(scope),
			log.FieldOperation, log.OpPublish)
		if errors.Is(err, amqp.ErrCircuitOpen) {
			ServiceUnavailableError("Refresh is unavailable: broker unreachable").
				TriggerErrorNotification("Refresh is unavailable").
				Write(w)
			return
		}
		InternalServerError("Failed to queue refresh").
			TriggerErrorNotification("Failed to queue refresh").
			Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.refreshesQueued, 1)
	s.caches.FlushAll()
	s.logger.InfoContext(r.Context(), "Refresh queued",
		log.FieldScope, string(scope),
		log.FieldOperation, log.OpPublish)

	NewHTMXResponse().
		Status(http.StatusAccepted).
		TriggerRefreshQueued(scope).
		TriggerSuccessNotification("Refresh queued").
		BodyHTML(`<div class="success">Refresh queued</div>`).
		Write(w)
}

// handleRefreshStatus renders the last refresh run partial, polled by the
// dashboard header.
func (s *Server) handleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	run, err := s.data.LastRefresh(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Last refresh lookup failed", log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Error loading refresh status</div>`))
		return
	}

	data := struct {
		HasRun      bool
		Scope       string
		Status      string
		StatusClass string
		Running     bool
		StartedAt   string
		FinishedAt  string
		Detail      string
	}{}
	if run != nil {
		data.HasRun = true
		data.Scope = run.Scope
		data.Status = run.Status
		data.Running = run.Status == storage.RunStatusRunning
		data.StartedAt = run.StartedAt.Format("2006-01-02 15:04")
		if !run.FinishedAt.IsZero() {
			data.FinishedAt = run.FinishedAt.Format("2006-01-02 15:04")
		}
		data.Detail = run.Detail
		switch run.Status {
		case storage.RunStatusOK:
			data.StatusClass = "refresh-status--ok"
		case storage.RunStatusError:
			data.StatusClass = "refresh-status--error"
		default:
			data.StatusClass = "refresh-status--running"
		}
	}

	body, err := s.render("refresh_status", data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Refresh status render failed", log.FieldError, err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="placeholder">Error rendering refresh status</div>`))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
