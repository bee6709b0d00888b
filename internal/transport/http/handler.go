package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// Handler exposes the room engine as a transport-thin JSON API. Every
// endpoint is a synchronous request/response pair; GET /rooms/{code} is
// the pollable read side.
type Handler struct {
	service *app.RoomService
}

func NewHandler(service *app.RoomService) *Handler {
	return &Handler{service: service}
}

// Register mounts the API on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", h.createRoom)
	mux.HandleFunc("POST /rooms/{code}/join", h.joinRoom)
	mux.HandleFunc("GET /rooms/{code}", h.roomState)
	mux.HandleFunc("POST /rooms/{code}/start", h.startRoom)
	mux.HandleFunc("POST /rooms/{code}/advance", h.advanceRoom)
	mux.HandleFunc("POST /rooms/{code}/answer", h.submitAnswer)
}

type createRoomRequest struct {
	HostName     string `json:"host_name"`
	Prompt       string `json:"prompt"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

type joinRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type hostRequest struct {
	HostID string `json:"host_id"`
}

type answerRequest struct {
	PlayerID string `json:"player_id"`
	Answer   string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.HostName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "host_name is required"})
		return
	}

	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.service.CreateRoom(r.Context(), req.HostName, domain.QuizRequest{
		Topic:        req.Prompt,
		NumQuestions: req.NumQuestions,
		Difficulty:   difficulty,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("room %s created by %s (%d questions, %s)", created.RoomCode, req.HostName, len(created.Quiz.Questions), difficulty)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.PlayerName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "player_name is required"})
		return
	}

	joined, err := h.service.Join(r.PathValue("code"), req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, joined)
}

func (h *Handler) roomState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.Snapshot(r.PathValue("code"), r.URL.Query().Get("host_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) startRoom(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	state, err := h.service.Start(r.PathValue("code"), req.HostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) advanceRoom(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	state, err := h.service.Advance(r.PathValue("code"), req.HostID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	state, err := h.service.SubmitAnswer(r.PathValue("code"), req.PlayerID, req.Answer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnknownPlayer):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrEmptyRoom):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidDifficulty):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
