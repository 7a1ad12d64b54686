package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

type IssueCodeRequest struct {
	Phone string `json:"phone" validate:"required,clinicphone"`
	Email string `json:"email" validate:"required,email"`
}

type IssueCodeResponse struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type RedeemCodeRequest struct {
	Phone string `json:"phone" validate:"required,clinicphone"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

type RedeemCodeResponse struct {
	Phone    string `json:"phone"`
	Verified bool   `json:"verified"`
}

type CreateAppointmentRequest struct {
	Phone   string `json:"phone" validate:"required,clinicphone"`
	Date    string `json:"date" validate:"required"`
	Slot    string `json:"slot" validate:"required"`
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Service string `json:"service" validate:"required,max=120"`
	Notes   string `json:"notes" validate:"max=1000"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	PatientID   uuid.UUID  `json:"patient_id"`
	Date        string     `json:"date"`
	Slot        string     `json:"slot"`
	SlotLabel   string     `json:"slot_label"`
	Status      string     `json:"status"`
	Name        string     `json:"name"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone"`
	Service     string     `json:"service"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy string     `json:"cancelled_by,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		PatientID:   a.PatientID,
		Date:        string(a.Date),
		Slot:        a.SlotKey,
		SlotLabel:   a.SlotLabel,
		Status:      string(a.Status),
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		Service:     a.Service,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		CancelledAt: a.CancelledAt,
		CancelledBy: a.CancelledBy,
	}
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Admin     AdminInfo `json:"admin"`
}

type AdminInfo struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"`
}

type DailyLimitRequest struct {
	DailyLimit int `json:"daily_limit"`
}

type TimeSlotsRequest struct {
	TimeSlots []clinic.TimeSlot `json:"time_slots" validate:"required,min=1"`
}

type ThresholdsRequest struct {
	NearCapacityRatio     float64 `json:"near_capacity_ratio"`
	NearCapacityRemaining int     `json:"near_capacity_remaining"`
}

type BlockDateRequest struct {
	Date string `json:"date" validate:"required"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
