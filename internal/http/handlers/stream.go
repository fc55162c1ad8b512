package handlers

import (
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
)

// StreamMessage is a frame pushed to a mounted calendar.
type StreamMessage struct {
	Type  string           `json:"type"`
	Slots []salon.TimeSlot `json:"slots,omitempty"`
}

type streamInbound struct {
	Type string `json:"type"`
}

// CalendarStream pushes the available slots to the browser while the calendar
// is mounted. Polling runs for the lifetime of the connection.
func (h *AppHandler) CalendarStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveStream(conn, r, sess)
	}).ServeHTTP(w, r)
}

func (h *AppHandler) serveStream(conn *websocket.Conn, r *http.Request, sess *visitor.Session) {
	var sendMu sync.Mutex
	send := func(msg StreamMessage) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		return websocket.JSON.Send(conn, msg)
	}

	if sess.Slots == nil {
		_ = send(StreamMessage{Type: "error"})
		return
	}

	sub := sess.Slots.Subscribe(r.Context(), func(available []salon.TimeSlot) {
		if err := send(StreamMessage{Type: "slots", Slots: available}); err != nil {
			h.logger.Debug("calendar stream send failed", "visitor_id", sess.ID, "error", err)
		}
	})
	defer sub.Stop()

	h.logger.Debug("calendar stream opened", "visitor_id", sess.ID)
	for {
		var msg streamInbound
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("calendar stream closed", "visitor_id", sess.ID, "error", err)
			return
		}
		if msg.Type == "ping" {
			_ = send(StreamMessage{Type: "pong"})
		}
	}
}
