package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/salon-booking-web/internal/observability/metrics"
	"github.com/wolfman30/salon-booking-web/internal/salon"
	"github.com/wolfman30/salon-booking-web/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8081"
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 300
)

var tracer = otel.Tracer("salon.internal.salonapi")

// Client wraps the remote salon REST API. Each visitor gets its own Client so
// the remote session cookie stays with that visitor.
type Client struct {
	httpClient *http.Client
	jar        http.CookieJar
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request. The remote API has no timeout of its own.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient constructs a client with a fresh cookie jar.
func NewClient(baseURL string, logger *logging.Logger, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	jar, _ := cookiejar.New(nil)
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout, Jar: jar},
		jar:        jar,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Me returns the user behind the current remote session.
func (c *Client) Me(ctx context.Context) (salon.User, error) {
	var user salon.User
	err := c.doJSON(ctx, "me", http.MethodGet, "/api/auth/me", nil, &user)
	if err != nil {
		if statusOf(err) != 0 {
			return salon.User{}, fmt.Errorf("me: %w: %v", salon.ErrSession, err)
		}
		return salon.User{}, fmt.Errorf("me: %w", err)
	}
	return user, nil
}

// Login opens a remote session. The session cookie is kept in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (salon.User, error) {
	var resp loginResponse
	err := c.doJSON(ctx, "login", http.MethodPost, "/api/auth/login", Credentials{Username: username, Password: password}, &resp)
	if err != nil {
		if status := statusOf(err); status == http.StatusUnauthorized || status == http.StatusBadRequest {
			return salon.User{}, &salon.AuthError{Message: "Invalid credentials"}
		}
		return salon.User{}, fmt.Errorf("login: %w", err)
	}
	return resp.User, nil
}

// Register creates a customer account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	err := c.doJSON(ctx, "register", http.MethodPost, "/api/auth/register", req, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			msg := decodeErrorMessage(apiErr.Body)
			if msg == "" {
				msg = "Registration failed"
			}
			return &salon.AuthError{Message: msg}
		}
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout ends the remote session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, "logout", http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// UserAppointments lists the signed-in customer's bookings.
func (c *Client) UserAppointments(ctx context.Context) (salon.Bookings, error) {
	var bookings salon.Bookings
	err := c.doJSON(ctx, "user_appointments", http.MethodGet, "/api/user/appointments", nil, &bookings)
	if err != nil {
		if status := statusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return salon.Bookings{}, fmt.Errorf("user appointments: %w", salon.ErrNotAuthorized)
		}
		return salon.Bookings{}, fmt.Errorf("user appointments: %w", err)
	}
	return bookings, nil
}

// UpdateProfile changes the signed-in customer's contact details.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	err := c.doJSON(ctx, "update_profile", http.MethodPut, "/api/user/profile", update, nil)
	if err != nil {
		if status := statusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			return fmt.Errorf("update profile: %w", salon.ErrNotAuthorized)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// ListTimeSlots returns every slot, booked or not, with nested appointment summaries.
func (c *Client) ListTimeSlots(ctx context.Context) ([]salon.TimeSlot, error) {
	var slots []salon.TimeSlot
	if err := c.doJSON(ctx, "list_timeslots", http.MethodGet, "/api/timeslots", nil, &slots); err != nil {
		return nil, fmt.Errorf("list timeslots: %w", err)
	}
	return slots, nil
}

// CreateTimeSlot publishes a new available slot.
func (c *Client) CreateTimeSlot(ctx context.Context, start, end time.Time) (salon.TimeSlot, error) {
	req := createSlotRequest{
		StartTime: start.UTC().Format(time.RFC3339),
		EndTime:   end.UTC().Format(time.RFC3339),
		Available: true,
	}
	var slot salon.TimeSlot
	err := c.doJSON(ctx, "create_timeslot", http.MethodPost, "/api/timeslots", req, &slot)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			if strings.Contains(strings.ToLower(apiErr.Body), "overlap") {
				return salon.TimeSlot{}, fmt.Errorf("create timeslot: %w", salon.ErrSlotOverlap)
			}
			return salon.TimeSlot{}, fmt.Errorf("create timeslot: %w", salon.ErrInvalidSlot)
		}
		return salon.TimeSlot{}, fmt.Errorf("create timeslot: %w", err)
	}
	return slot, nil
}

// DeleteTimeSlot removes a slot. The remote refuses slots that are booked.
func (c *Client) DeleteTimeSlot(ctx context.Context, id int64) error {
	path := "/api/timeslots/" + strconv.FormatInt(id, 10)
	err := c.doJSON(ctx, "delete_timeslot", http.MethodDelete, path, nil, nil)
	switch statusOf(err) {
	case 0:
		if err != nil {
			return fmt.Errorf("delete timeslot: %w", err)
		}
		return nil
	case http.StatusBadRequest, http.StatusConflict:
		return fmt.Errorf("delete timeslot %d: %w", id, salon.ErrSlotHasAppointments)
	case http.StatusNotFound:
		return fmt.Errorf("delete timeslot %d: %w", id, salon.ErrSlotNotFound)
	default:
		return fmt.Errorf("delete timeslot: %w", err)
	}
}

// CreateAppointment books slotID. A slot taken in the meantime yields ErrBookingConflict.
func (c *Client) CreateAppointment(ctx context.Context, slotID int64, details salon.ClientDetails) (salon.Appointment, error) {
	req := createAppointmentRequest{
		CustomerName:  details.CustomerName,
		CustomerEmail: details.CustomerEmail,
		CustomerPhone: details.CustomerPhone,
		TimeSlotID:    slotID,
		Service:       details.Service,
		Location:      details.Location,
	}
	var appt salon.Appointment
	err := c.doJSON(ctx, "create_appointment", http.MethodPost, "/api/appointments", req, &appt)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return salon.Appointment{}, fmt.Errorf("create appointment: %w", err)
		}
		switch apiErr.Status {
		case http.StatusConflict, http.StatusBadRequest:
			return salon.Appointment{}, fmt.Errorf("create appointment on slot %d: %w", slotID, salon.ErrBookingConflict)
		case http.StatusUnauthorized, http.StatusForbidden:
			msg := decodeErrorMessage(apiErr.Body)
			if msg == "" {
				msg = "Please login to book an appointment"
			}
			return salon.Appointment{}, &salon.AuthError{Message: msg}
		default:
			return salon.Appointment{}, fmt.Errorf("create appointment: %w", err)
		}
	}
	if appt.TimeSlotID == 0 {
		appt.TimeSlotID = slotID
	}
	return appt, nil
}

// CancelAppointment cancels by token. Unknown or already used tokens yield ErrAlreadyCanceled.
func (c *Client) CancelAppointment(ctx context.Context, token string) error {
	path := "/api/appointments/cancel/" + url.PathEscape(token)
	err := c.doJSON(ctx, "cancel_appointment", http.MethodDelete, path, nil, nil)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return fmt.Errorf("cancel appointment: %w", salon.ErrAlreadyCanceled)
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}
	return nil
}

// Cookies returns the remote session cookies so they can be persisted.
func (c *Client) Cookies() []*http.Cookie {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil
	}
	return c.jar.Cookies(u)
}

// SetCookies restores previously persisted remote session cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	u, err := url.Parse(c.baseURL)
	if err != nil || len(cookies) == 0 {
		return
	}
	c.jar.SetCookies(u, cookies)
}

func (c *Client) doJSON(ctx context.Context, operation, method, path string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	ctx, span := tracer.Start(ctx, "salonapi."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("salon.api.path", path),
	)

	start := time.Now()
	status := "error"
	defer func() {
		c.metrics.ObserveAPIRequest(operation, status, time.Since(start).Seconds())
	}()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "http request failed")
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		span.SetStatus(codes.Error, status)
		c.logger.Debug("salon API non-2xx response", "operation", operation, "status", resp.StatusCode, "path", path, "body", msg)
		return &APIError{Operation: operation, Status: resp.StatusCode, Body: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusOf returns the HTTP status of an APIError, or 0 for other errors.
func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func decodeErrorMessage(body string) string {
	var parsed errorBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return ""
	}
	if parsed.Error != "" {
		return parsed.Error
	}
	return parsed.Message
}
