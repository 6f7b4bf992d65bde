package service

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	knowledge "github.com/xiv-ai/knowledge"
)

type trainURLRequest struct {
	URL  string `json:"url"`
	Mode string `json:"mode"`
}

type trainTextRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type trainQARequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Service) handleTrainURL(w http.ResponseWriter, r *http.Request) {
	var req trainURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(strings.TrimSpace(req.URL)) == 0 {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	fullSite := req.Mode == "full" || req.Mode == "full_site"

	token := s.startRun(fullSite, strings.TrimSpace(req.URL))

	slog.InfoContext(r.Context(), "training started", "token", token, "url", req.URL, "full_site", fullSite)

	writeJSON(w, http.StatusAccepted, map[string]any{"token": token})
}

func (s *Service) handleTrainText(w http.ResponseWriter, r *http.Request) {
	var req trainTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pipeline := knowledge.New(s.options.Pipeline...)

	recordId, err := pipeline.TrainText(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": recordId})
}

func (s *Service) handleTrainQA(w http.ResponseWriter, r *http.Request) {
	var req trainQARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pipeline := knowledge.New(s.options.Pipeline...)

	recordId, err := pipeline.TrainQA(r.Context(), req.Question, req.Answer)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": recordId})
}

func (s *Service) handleProgress(w http.ResponseWriter, r *http.Request) {
	run := s.lookup(mux.Vars(r)["token"])
	if run == nil {
		writeError(w, http.StatusNotFound, "unknown training token")
		return
	}

	percent, status, trained, detail := run.snapshot()

	writeJSON(w, http.StatusOK, map[string]any{
		"percent": percent,
		"status":  status,
		"trained": trained,
		"detail":  detail,
	})
}

func (s *Service) handleStop(w http.ResponseWriter, r *http.Request) {
	run := s.lookup(mux.Vars(r)["token"])
	if run == nil {
		writeError(w, http.StatusNotFound, "unknown training token")
		return
	}

	run.requestStop()

	writeJSON(w, http.StatusOK, map[string]any{"stopping": true})
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(strings.TrimSpace(req.Message)) == 0 {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	pipeline := knowledge.New(s.options.Pipeline...)

	reply, err := pipeline.Answer(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]any{"error": detail})
}
