package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/apperr"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

func issueCodeHandler(svc VerificationService, v *validator.Validate, exposeCodes bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req IssueCodeRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		code, err := svc.IssueCode(r.Context(), req.Phone, req.Email)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		resp := IssueCodeResponse{
			Phone:   req.Phone,
			Message: "verification code sent",
		}
		if exposeCodes {
			resp.Code = code
		}
		writeJSON(w, http.StatusAccepted, resp)
	}
}

func redeemCodeHandler(svc VerificationService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RedeemCodeRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		patient, err := svc.RedeemCode(r.Context(), req.Phone, req.Code)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, RedeemCodeResponse{Phone: patient.Phone, Verified: patient.Verified})
	}
}

func availabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := clinic.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		res, err := svc.ListAvailability(r.Context(), date)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func createAppointmentHandler(svc BookingService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		appt, err := svc.Reserve(r.Context(), appointment.ReserveRequest{
			Phone:   req.Phone,
			Date:    clinic.Date(req.Date),
			SlotKey: req.Slot,
			Name:    req.Name,
			Email:   req.Email,
			Service: req.Service,
			Notes:   req.Notes,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func parseAppointmentID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id must be a valid UUID")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("%s must be a non-negative integer", key)
	}
	return n, nil
}
