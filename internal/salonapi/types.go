// Package salonapi is the typed client for the remote salon booking API.
package salonapi

import (
	"fmt"

	"github.com/wolfman30/salon-booking-web/internal/salon"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the account registration body.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ProfileUpdate is the body of PUT /api/user/profile.
type ProfileUpdate struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type loginResponse struct {
	Message string     `json:"message"`
	User    salon.User `json:"user"`
}

type createSlotRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

type createAppointmentRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	CustomerPhone string `json:"customerPhone"`
	TimeSlotID    int64  `json:"timeSlotId"`
	Service       string `json:"service"`
	Location      string `json:"location"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	Operation string
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("salonapi: %s returned %d: %s", e.Operation, e.Status, e.Body)
}
