package handlers

import (
	"net/http"

	"github.com/wolfman30/salon-booking-web/internal/calendar"
)

// Invite serves the booking on the success screen as a calendar file.
func (h *AppHandler) Invite(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	appt, ok := sess.Controller.LastBooking()
	sess.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "no confirmed booking")
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+calendar.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(calendar.ICS(appt)))
}
