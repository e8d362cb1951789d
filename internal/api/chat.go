package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/MikeSquared-Agency/tina/internal/conversation"
	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/outcome"
)

type startRequest struct {
	Message string            `json:"message"`
	History intake.Transcript `json:"history" validate:"omitempty,dive"`
}

type continueRequest struct {
	Message string            `json:"message" validate:"required"`
	History intake.Transcript `json:"history" validate:"required,dive"`
}

type recommendRequest struct {
	Context string            `json:"context" validate:"required"`
	History intake.Transcript `json:"history" validate:"omitempty,dive"`
}

type chatResponse struct {
	Response    string             `json:"response"`
	MessageType intake.MessageType `json:"messageType"`
	History     intake.Transcript  `json:"history"`
}

type recommendResponse struct {
	Recommendations string            `json:"recommendations"`
	History         intake.Transcript `json:"history"`
}

// start handles POST /chat/v1/start. An empty body is an empty message.
func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req, true) {
		return
	}

	reply, err := s.chat.Start(r.Context(), req.Message, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.replied(w, reply)
}

// continueChat handles POST /chat/v1/continue.
func (s *Server) continueChat(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	reply, err := s.chat.Continue(r.Context(), req.Message, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.replied(w, reply)
}

// recommend handles POST /chat/v1/recommend.
func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !s.decode(w, r, &req, false) {
		return
	}

	text, history, err := s.chat.Recommend(r.Context(), req.Context, req.History)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if history == nil {
		history = intake.Transcript{}
	}
	writeJSON(w, http.StatusOK, recommendResponse{Recommendations: text, History: history})
}

func (s *Server) replied(w http.ResponseWriter, reply conversation.Reply) {
	if reply.Concluded && s.outcomes != nil {
		if o, ok := outcome.FromReply(reply); ok {
			s.outcomes.Record(o)
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:    reply.Response,
		MessageType: reply.Type,
		History:     reply.History,
	})
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF) && allowEmpty:
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *conversation.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}

	err = oops.
		In("api").
		With("path", r.URL.Path).
		With("request_id", middleware.GetReqID(r.Context())).
		Wrap(err)
	s.logger.ErrorContext(r.Context(), "chat request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
