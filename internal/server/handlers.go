package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/factcheck/internal/errs"
	"github.com/ppiankov/factcheck/internal/logger"
)

const maxBodyBytes = 1 << 20

// checkRequest is the POST /check body
type checkRequest struct {
	Claim string `json:"claim" validate:"required"`
}

// healthResponse is the GET /health body
type healthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	VectorDBStatus string `json:"vectordb_status"`
	DocumentCount  int    `json:"document_count"`
}

var errNotReady = errs.Wire{Code: "not_ready", Message: "service not ready, wait for startup to complete"}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	if !s.state.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, errNotReady)
		return
	}

	var req checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		msg := "request body must be JSON like {\"claim\": \"...\"}"
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			msg = "request body too large"
		} else if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeJSON(w, http.StatusBadRequest, errs.Wire{Code: errs.KindInvalidInput.String(), Message: msg})
		return
	}
	req.Claim = strings.TrimSpace(req.Claim)
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errs.Wire{Code: errs.KindInvalidInput.String(), Message: "claim cannot be empty"})
		return
	}

	result, err := s.checker.Check(r.Context(), req.Claim)
	if err != nil {
		kind := errs.KindOf(err)
		logger.C(r.Context(), s.log).Warn().Err(err).Str("kind", kind.String()).Msg("check failed")
		writeJSON(w, errs.HTTPStatus(kind), errs.WireFrom(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:         "not_ready",
		Timestamp:      time.Now().Format("2006-01-02 15:04:05"),
		VectorDBStatus: "disconnected",
	}
	n, reachable := s.state.Documents(r.Context())
	resp.DocumentCount = n
	if s.state.Ready() {
		resp.Status = "ready"
		if reachable {
			resp.VectorDBStatus = "connected"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.state.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, errNotReady)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
