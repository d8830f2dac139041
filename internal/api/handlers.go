package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/systems2beyond/bethel-social-sub005/internal/normalize"
	"github.com/systems2beyond/bethel-social-sub005/internal/postwatch"
	"github.com/systems2beyond/bethel-social-sub005/pkg/models"
)

type ingestRequest struct {
	SourceType string            `json:"sourceType,omitempty"`
	URL        string            `json:"url,omitempty"`
	Text       string            `json:"text,omitempty"`
	Title      string            `json:"title,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ingestResponse struct {
	Success bool   `json:"success"`
	Chunks  int    `json:"chunks"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleIngest runs one source through ingestion synchronously and reports
// the chunk count.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ingestResponse{Error: "malformed request body"})
		return
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = models.DocTypeWebpage
	}
	if sourceType != models.DocTypeWebpage && sourceType != models.DocTypeSocialPost {
		writeJSON(w, http.StatusBadRequest, ingestResponse{Error: "unknown sourceType: " + req.SourceType})
		return
	}

	result, err := s.engine.Ingest(r.Context(), models.Source{
		Type:     sourceType,
		URL:      req.URL,
		Text:     req.Text,
		Title:    req.Title,
		Metadata: req.Metadata,
	})
	if err != nil {
		var valErr *normalize.ValidationError
		var fetchErr *normalize.FetchError
		switch {
		case errors.As(err, &valErr):
			writeJSON(w, http.StatusBadRequest, ingestResponse{Error: valErr.Error()})
		case errors.As(err, &fetchErr):
			writeJSON(w, http.StatusBadGateway, ingestResponse{Error: fetchErr.Error()})
		default:
			slog.Error("ingestion failed", "url", req.URL, "error", err)
			writeJSON(w, http.StatusInternalServerError, ingestResponse{Error: "ingestion failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Success: true, Chunks: result.Chunks})
}

// handlePostChange accepts a post change event and queues it for the watcher.
// The caller gets a 202 immediately; ingestion happens asynchronously.
func (s *Server) handlePostChange(w http.ResponseWriter, r *http.Request) {
	var event postwatch.ChangeEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, ingestResponse{Error: "malformed request body"})
		return
	}
	if event.Before == nil && event.After == nil {
		writeJSON(w, http.StatusBadRequest, ingestResponse{Error: "event carries no snapshots"})
		return
	}

	if err := postwatch.Publish(s.publisher, event); err != nil {
		slog.Error("failed to publish post change event", "error", err)
		writeJSON(w, http.StatusInternalServerError, ingestResponse{Error: "failed to queue event"})
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{Success: true})
}

type healthResponse struct {
	Status        string `json:"status"`
	Elasticsearch bool   `json:"elasticsearch"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	esUp := s.store != nil && s.store.Ping(r.Context())
	status := http.StatusOK
	body := healthResponse{Status: "ok", Elasticsearch: esUp}
	if !esUp {
		status = http.StatusServiceUnavailable
		body.Status = "degraded"
	}
	writeJSON(w, status, body)
}
