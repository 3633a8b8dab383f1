package handlers

import (
	"net/http"

	"auditline/internal/middleware"
	"auditline/internal/services"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.deps.Sessions.SignUp(r.Context(), req.Email, req.Password, services.SignUpMetadata{FullName: req.FullName})
	if err != nil {
		respondFailure(w, r, err, "sign up")
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.deps.Sessions.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		respondFailure(w, r, err, "sign in")
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, _ := middleware.SessionIDFromContext(r.Context())
	if err := h.deps.Sessions.SignOut(r.Context(), userID, sessionID); err != nil {
		respondFailure(w, r, err, "sign out")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, _ := middleware.SessionIDFromContext(r.Context())
	user, err := h.deps.Users.GetByID(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"user":       user,
	})
}
