package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/insightbot/insightd/assistant"
)

type chatRequest struct {
	UserInput           string           `json:"user_input"`
	ConversationHistory []assistant.Turn `json:"conversation_history"`
	UserGUID            string           `json:"user_guid"`
}

type chatResponse struct {
	AssistantResponse string `json:"assistant_response"`
	AgentLogs         string `json:"agent_logs"`
	UserGUID          string `json:"user_guid"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body", err.Error())
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, http.StatusBadRequest, "Missing or empty user_input in JSON payload", "")
		return
	}

	ctx := r.Context()
	registry := s.loader.Discover(ctx)

	outcome, err := s.dispatcher.Respond(ctx, registry, assistant.Request{
		UserInput: req.UserInput,
		History:   req.ConversationHistory,
		UserGUID:  req.UserGUID,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Chat request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		AssistantResponse: outcome.FinalText,
		AgentLogs:         strings.Join(outcome.AgentLogs, "\n"),
		UserGUID:          outcome.UserGUID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}
