package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"kb-chat/internal/domain"
	"kb-chat/internal/transcript"
	"kb-chat/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

// ChatService is the single operation the handler needs from the usecase layer.
type ChatService interface {
	Respond(ctx context.Context, in usecase.RespondInput) (usecase.RespondOutput, error)
}

// Info is the read-only deployment summary shown by the chat surface.
type Info struct {
	AppTitle    string `json:"appTitle"`
	Region      string `json:"region"`
	ModelID     string `json:"modelId"`
	ProductName string `json:"productName"`
}

type Handler struct {
	svc      ChatService
	sessions *transcript.Store
	info     Info
	logger   *slog.Logger
}

func NewHandler(svc ChatService, sessions *transcript.Store, info Info, logger *slog.Logger) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	if sessions == nil {
		return nil, errors.New("handler: session store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, sessions: sessions, info: info, logger: logger}, nil
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string        `json:"sessionId"`
	Answer    domain.Answer `json:"answer"`
}

type transcriptResponse struct {
	SessionID string        `json:"sessionId"`
	Turns     []domain.Turn `json:"turns"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleChat runs one query to completion: resolve the session, dispatch,
// append both turns, return the answer.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	corrID := correlationID(r)
	w.Header().Set(correlationHeader, corrID)
	log := h.logger.With("correlationId", corrID)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "request body must be JSON with a message field",
		})
		return
	}

	sess, ok := h.resolveSession(req.SessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "unknown session id",
		})
		return
	}

	out, err := h.svc.Respond(r.Context(), usecase.RespondInput{
		Query:       req.Message,
		KBSessionID: sess.KBSessionID,
	})
	if err != nil {
		log.Error("respond failed", "sessionId", sess.ID, "err", err)
		status, msg := statusForError(err)
		writeJSON(w, status, errorResponse{Error: string(errorCode(err)), Message: msg})
		return
	}

	// whitespace-only input is a no-op, same as an empty message
	if strings.TrimSpace(req.Message) != "" {
		if _, err := h.sessions.Append(sess.ID, domain.RoleUser, req.Message); err != nil {
			log.Error("append user turn failed", "sessionId", sess.ID, "err", err)
		}
	}
	if _, err := h.sessions.Append(sess.ID, domain.RoleAssistant, out.Answer.Text); err != nil {
		log.Error("append assistant turn failed", "sessionId", sess.ID, "err", err)
	}
	if out.KBSessionID != "" {
		if err := h.sessions.SetKBSessionID(sess.ID, out.KBSessionID); err != nil {
			log.Error("store kb session failed", "sessionId", sess.ID, "err", err)
		}
	}

	log.Info("query answered", "sessionId", sess.ID, "category", out.Answer.Category, "source", out.Answer.Source)
	writeJSON(w, http.StatusOK, chatResponse{SessionID: sess.ID, Answer: out.Answer})
}

// HandleTranscript returns the full ordered transcript for a session.
func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := h.sessions.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "unknown session id",
		})
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{SessionID: sess.ID, Turns: sess.Turns})
}

// HandleClear empties a session transcript, the "clear chat" control.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := h.sessions.Clear(id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   string(usecase.ErrorInvalidInput),
			Message: "unknown session id",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleInfo exposes the non-secret configuration the UI sidebar shows.
func (h *Handler) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// resolveSession returns the existing session or creates a new one when
// no id was supplied.
func (h *Handler) resolveSession(id string) (transcript.Session, bool) {
	if id == "" {
		return h.sessions.Create(), true
	}
	return h.sessions.Get(id)
}

func correlationID(r *http.Request) string {
	if v := r.Header.Get(correlationHeader); v != "" {
		return v
	}
	return uuid.NewString()
}

func errorCode(err error) usecase.ErrorCode {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		return ucErr.Code
	}
	return usecase.ErrorInternal
}

// statusForError maps usecase error codes to an HTTP status and a
// user-visible message. Raw upstream faults never reach the client.
func statusForError(err error) (int, string) {
	switch errorCode(err) {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, "The request could not be understood. Please rephrase your question."
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests, "The assistant is handling too many requests right now. Please try again in a moment."
	case usecase.ErrorUpstream:
		return http.StatusBadGateway, "Sorry, I could not reach the knowledge base. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong while answering your question. Please try again."
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
