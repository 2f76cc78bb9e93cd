package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"voterdesk/internal/constants"
	"voterdesk/internal/models"
	"voterdesk/internal/service"

	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// decodeSendRequest reads a batch send request and stamps the calling
// operator onto the spec.
func decodeSendRequest(r *http.Request) (*models.SendRequest, error) {
	var req models.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if operatorID := r.Header.Get("X-Operator-ID"); operatorID != "" {
		req.Spec.OperatorID = operatorID
	}
	return &req, nil
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *models.SendRequest) {
	report, err := s.dispatcher.SendBatch(r.Context(), *req)
	if err != nil {
		// A report still comes back when every recipient failed to
		// resolve; surface it with the rejection.
		if report != nil {
			writeJSON(w, http.StatusUnprocessableEntity, report)
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSendText() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeSendRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		req.Spec.ContentKind = models.ContentText
		s.dispatch(w, r, req)
	}
}

func (s *Server) handleSendTemplate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeSendRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		req.Spec.ContentKind = models.ContentTemplate
		s.dispatch(w, r, req)
	}
}

func (s *Server) handleSendMedia() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeSendRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}

		if !req.Spec.ContentKind.IsMedia() {
			writeJSONError(w, http.StatusBadRequest,
				fmt.Sprintf("content kind %q does not carry media", req.Spec.ContentKind))
			return
		}
		s.dispatch(w, r, req)
	}
}

func (s *Server) handleMediaUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadBodyBytes)

		if err := r.ParseMultipartForm(constants.MaxUploadBodyBytes); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		kind := models.ContentKind(r.FormValue("kind"))
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "failed to read file")
			return
		}

		prepared, err := s.mediaHandler.PrepareOutbound(r.Context(), header.Filename, data, kind)
		if err != nil {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, prepared)
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID := mux.Vars(r)["id"]
		if conversationID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing conversation id")
			return
		}

		messages, err := s.ledger.History(r.Context(), conversationID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		if messages == nil {
			messages = []*models.Message{}
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
	}
}

func (s *Server) handleMarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID := mux.Vars(r)["id"]
		if messageID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing message id")
			return
		}

		if err := s.ledger.MarkRead(r.Context(), messageID); err != nil {
			if errors.Is(err, service.ErrMessageNotFound) {
				writeJSONError(w, http.StatusNotFound, "message not found")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "failed to mark message read")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
	}
}

// handleRealtime upgrades to WebSocket after checking the shared
// realtime token. Elevated sessions additionally join the shared admins
// group.
func (s *Server) handleRealtime() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if s.cfg.Server.RealtimeToken == "" || token != s.cfg.Server.RealtimeToken {
			writeJSONError(w, http.StatusUnauthorized, "invalid realtime token")
			return
		}

		operatorID := r.URL.Query().Get("operator_id")
		if operatorID == "" {
			writeJSONError(w, http.StatusBadRequest, "missing operator_id")
			return
		}

		elevated := r.URL.Query().Get("role") == "admin"
		s.hub.Serve(w, r, operatorID, elevated)
	}
}
