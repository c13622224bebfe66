package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/companion-lab/mnemosyne/pkg/domain/model"
	"github.com/companion-lab/mnemosyne/pkg/domain/types"
	"github.com/companion-lab/mnemosyne/pkg/usecase"
)

var errBadRequestBody = errors.New("invalid request body")

func isNotFound(err error) bool {
	return errors.Is(err, usecase.ErrPersonaNotFound) || errors.Is(err, usecase.ErrSessionNotFound)
}

func isBadRequest(err error) bool {
	return errors.Is(err, usecase.ErrEmptyMessage) || errors.Is(err, errBadRequestBody)
}

type personaPayload struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	Relation          string   `json:"relation,omitempty"`
	Traits            string   `json:"traits,omitempty"`
	Backstory         string   `json:"backstory,omitempty"`
	Goals             string   `json:"goals,omitempty"`
	ResponseStyle     string   `json:"responseStyle,omitempty"`
	ProfilePictureURL string   `json:"profilePictureUrl,omitempty"`
	Memories          []string `json:"memories,omitempty"`
	LastChatTime      string   `json:"lastChatTime,omitempty"`
}

func toPersonaPayload(p *model.Persona) personaPayload {
	out := personaPayload{
		ID:                string(p.ID),
		Name:              p.Name,
		Relation:          p.Relation,
		Traits:            p.Traits,
		Backstory:         p.Backstory,
		Goals:             p.Goals,
		ResponseStyle:     p.ResponseStyle,
		ProfilePictureURL: p.ProfilePictureURL,
		Memories:          p.SortedMemories(),
	}
	if !p.LastChatTime.IsZero() {
		out.LastChatTime = p.LastChatTime.Format(time.RFC3339)
	}
	return out
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := s.uc.Persona.List(r.Context())
	if err != nil {
		handleErr(w, r, err)
		return
	}

	out := make([]personaPayload, 0, len(personas))
	for _, p := range personas {
		out = append(out, toPersonaPayload(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	id := types.PersonaID(chi.URLParam(r, "personaID"))
	persona, err := s.uc.Persona.Get(r.Context(), id)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPersonaPayload(persona))
}

func (s *Server) handlePutPersona(w http.ResponseWriter, r *http.Request) {
	var req personaPayload
	if err := decodeJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}

	persona := &model.Persona{
		ID:                types.PersonaID(req.ID),
		Name:              req.Name,
		Relation:          req.Relation,
		Traits:            req.Traits,
		Backstory:         req.Backstory,
		Goals:             req.Goals,
		ResponseStyle:     req.ResponseStyle,
		ProfilePictureURL: req.ProfilePictureURL,
		Memories:          req.Memories,
	}
	if urlID := chi.URLParam(r, "personaID"); urlID != "" {
		persona.ID = types.PersonaID(urlID)
	}

	stored, err := s.uc.Persona.Put(r.Context(), persona)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPersonaPayload(stored))
}

func (s *Server) handleDeletePersona(w http.ResponseWriter, r *http.Request) {
	id := types.PersonaID(chi.URLParam(r, "personaID"))
	if err := s.uc.Persona.Delete(r.Context(), id); err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type retrievedPayload struct {
	ChatID  string `json:"chatId"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Summary string `json:"summary,omitempty"`
}

type chatResponse struct {
	Reply     string             `json:"reply"`
	Retrieved []retrievedPayload `json:"retrieved,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}

	result, err := s.uc.Chat.SendMessage(r.Context(), personaID, types.SessionID(req.SessionID), req.Message)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	resp := chatResponse{Reply: result.Reply.Content}
	for _, m := range result.Retrieved {
		resp.Retrieved = append(resp.Retrieved, retrievedPayload{
			ChatID:  string(m.ChatID),
			Title:   m.Title,
			Date:    m.Date,
			Summary: m.Summary,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type sessionPayload struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Messages     []messagePayload `json:"messages,omitempty"`
	MessageCount int              `json:"messageCount"`
	CreatedAt    string           `json:"createdAt"`
	UpdatedAt    string           `json:"updatedAt,omitempty"`
	Summary      string           `json:"summary,omitempty"`
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toSessionPayload(s *model.ChatSession, includeMessages bool) sessionPayload {
	out := sessionPayload{
		ID:           string(s.ID),
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		Summary:      s.Summary,
	}
	if !s.UpdatedAt.IsZero() {
		out.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	if includeMessages {
		for _, m := range s.Messages {
			out.Messages = append(out.Messages, messagePayload{Role: string(m.Role), Content: m.Content})
		}
	}
	return out
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))
	sessions, err := s.uc.Session.List(r.Context(), personaID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	out := make([]sessionPayload, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionPayload(session, false))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))

	var req struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}

	session, err := s.uc.Session.Create(r.Context(), personaID, req.Title)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionPayload(session, false))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))
	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))

	session, err := s.uc.Session.Get(r.Context(), personaID, sessionID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionPayload(session, true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))
	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))

	if err := s.uc.Session.Delete(r.Context(), personaID, sessionID); err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearSessions(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))
	if err := s.uc.Session.Clear(r.Context(), personaID); err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleSummarizeSession(w http.ResponseWriter, r *http.Request) {
	personaID := types.PersonaID(chi.URLParam(r, "personaID"))
	sessionID := types.SessionID(chi.URLParam(r, "sessionID"))

	summary, err := s.uc.Session.Summarize(r.Context(), personaID, sessionID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

type profilePayload struct {
	Name  string `json:"name,omitempty"`
	About string `json:"about,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.uc.Profile.Get(r.Context())
	if err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profilePayload{Name: profile.Name, About: profile.About})
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req profilePayload
	if err := decodeJSON(r, &req); err != nil {
		handleErr(w, r, err)
		return
	}

	if err := s.uc.Profile.Put(r.Context(), model.UserProfile{Name: req.Name, About: req.About}); err != nil {
		handleErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
