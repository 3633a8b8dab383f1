package handlers

import "net/http"

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	notifications, err := h.deps.Notifications.List(r.Context(), userID)
	if err != nil {
		respondFailure(w, r, err, "load notifications")
		return
	}
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"unread":        unread,
		"notifications": notifications,
	})
}

func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Notifications.MarkAllRead(r.Context(), userID); err != nil {
		respondFailure(w, r, err, "update notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.deps.Notifications.Clear(r.Context(), userID); err != nil {
		respondFailure(w, r, err, "clear notifications")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
