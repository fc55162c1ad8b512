package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/salon-booking-web/internal/flow"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/internal/salonapi"
	"github.com/wolfman30/salon-booking-web/internal/visitor"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

const maxBodyBytes = 64 << 10

// AppHandler exposes the booking flow of the requesting visitor.
type AppHandler struct {
	registry *visitor.Registry
	logger   *logging.Logger
}

func NewAppHandler(registry *visitor.Registry, logger *logging.Logger) *AppHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AppHandler{registry: registry, logger: logger}
}

type errorResponse struct {
	Error string         `json:"error"`
	View  *flow.Snapshot `json:"view,omitempty"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authModeRequest struct {
	Mode flow.AuthMode `json:"mode"`
}

type profileRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type createSlotRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// View returns the current view model.
func (h *AppHandler) View(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(context.Context, *flow.Controller) error { return nil })
}

func (h *AppHandler) BookNow(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.BookNow(ctx) })
}

func (h *AppHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, c *flow.Controller) error { return c.BackToHome() })
}

func (h *AppHandler) ShowAuth(w http.ResponseWriter, r *http.Request) {
	var req authModeRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	h.apply(w, r, func(_ context.Context, c *flow.Controller) error { return c.ShowAuth(req.Mode) })
}

func (h *AppHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error {
		return c.Login(ctx, req.Username, req.Password)
	})
}

func (h *AppHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req salonapi.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.Register(ctx, req) })
}

func (h *AppHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.Logout(ctx) })
}

func (h *AppHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := slotIDParam(w, r)
	if !ok {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.SelectSlot(ctx, id) })
}

func (h *AppHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var details salon.ClientDetails
	if !decode(w, r, &details) {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.Confirm(ctx, details) })
}

func (h *AppHandler) CancelConfirmation(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.CancelConfirmation(ctx) })
}

func (h *AppHandler) Modify(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, c *flow.Controller) error { return c.Modify() })
}

func (h *AppHandler) BackToBooking(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.BackToBooking(ctx) })
}

func (h *AppHandler) ToggleDashboard(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.ToggleDashboard(ctx) })
}

func (h *AppHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if token == "" {
		writeError(w, http.StatusBadRequest, "cancellation token required")
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.CancelBooking(ctx, token) })
}

func (h *AppHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error {
		return c.UpdateProfile(ctx, req.Email, req.Phone)
	})
}

func (h *AppHandler) OpenAdminOverlay(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, c *flow.Controller) error { return c.OpenAdminOverlay() })
}

func (h *AppHandler) CloseAdminOverlay(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(_ context.Context, c *flow.Controller) error {
		c.CloseAdminOverlay()
		return nil
	})
}

func (h *AppHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decode(w, r, &req) {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error {
		return c.AdminLogin(ctx, req.Username, req.Password)
	})
}

func (h *AppHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.AdminLogout(ctx) })
}

func (h *AppHandler) AdminSlots(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.AdminReload(ctx) })
}

func (h *AppHandler) AdminCreateSlot(w http.ResponseWriter, r *http.Request) {
	var req createSlotRequest
	if !decode(w, r, &req) {
		return
	}
	start, err := parseOptionalTime(req.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startTime")
		return
	}
	end, err := parseOptionalTime(req.EndTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endTime")
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error {
		return c.AdminCreateSlot(ctx, start.Time, end.Time)
	})
}

func (h *AppHandler) AdminDeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := slotIDParam(w, r)
	if !ok {
		return
	}
	h.apply(w, r, func(ctx context.Context, c *flow.Controller) error { return c.AdminDeleteSlot(ctx, id) })
}

// apply runs one event against the visitor's controller, persists the result
// and writes the new view model.
func (h *AppHandler) apply(w http.ResponseWriter, r *http.Request, event func(context.Context, *flow.Controller) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()

	ctx := r.Context()
	err := event(ctx, sess.Controller)
	if saveErr := h.registry.Save(ctx, sess); saveErr != nil {
		h.logger.Warn("visitor state save failed", "visitor_id", sess.ID, "error", saveErr)
	}

	snap := sess.Controller.Snapshot()
	if err != nil {
		status := statusFor(err)
		h.logger.Debug("flow event rejected", "visitor_id", sess.ID, "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: messageFor(err), View: &snap})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *AppHandler) session(w http.ResponseWriter, r *http.Request) (*visitor.Session, bool) {
	id, ok := visitor.IDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "visitor session required")
		return nil, false
	}
	return h.registry.Get(r.Context(), id), true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, flow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, salon.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, salon.ErrBookingConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if errors.Is(err, flow.ErrInvalidTransition) {
		return "That action is not available right now."
	}
	return salon.UserMessage(err)
}

func slotIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "slotID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid slot id")
		return 0, false
	}
	return id, true
}

func parseOptionalTime(s string) (salon.Timestamp, error) {
	if strings.TrimSpace(s) == "" {
		return salon.Timestamp{}, nil
	}
	return salon.ParseTimestamp(s)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decode(w, r, dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
