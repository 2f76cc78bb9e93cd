package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"voterdesk/internal/constants"
	"voterdesk/internal/models"
	"voterdesk/internal/service"
	"voterdesk/internal/validation"
)

// handleWebhookVerify answers the provider's subscription handshake:
// echo hub.challenge when the verify token matches, 403 otherwise.
func (s *Server) handleWebhookVerify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		mode := query.Get("hub.mode")
		token := query.Get("hub.verify_token")
		challenge := query.Get("hub.challenge")

		if mode != "subscribe" || s.cfg.Provider.VerifyToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Provider.VerifyToken)) != 1 {
			s.logger.Warn("Webhook verification failed")
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

// handleWebhookEvent accepts a provider event envelope. Once the body
// parses, the response is always 200; per-event failures are logged and
// retried by the provider's own redelivery, never by an error status.
func (s *Server) handleWebhookEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := validation.ValidateHTTPRequestSize(r, constants.MaxWebhookBodyBytes); err != nil {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "webhook body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodyBytes)

		var env models.WebhookEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			s.logger.WithError(err).Warn("Failed to parse webhook envelope")
			writeJSONError(w, http.StatusBadRequest, "invalid webhook body")
			return
		}

		if errs := s.reconciler.ProcessEnvelope(r.Context(), &env); len(errs) > 0 {
			for _, err := range errs {
				s.logger.WithError(err).
					WithField(service.LogFieldComponent, "reconciler").
					Warn("Webhook event processing error")
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
