package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/clinic"
)

func loginHandler(svc AdminAuthenticator, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		session, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			Admin: AdminInfo{
				ID:    session.Admin.ID,
				Email: session.Admin.Email,
				Name:  session.Admin.Name,
			},
		})
	}
}

func getConfigHandler(svc ConfigService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := svc.GetConfig(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func setDailyLimitHandler(svc ConfigService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DailyLimitRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		cfg, err := svc.SetDailyLimit(r.Context(), req.DailyLimit)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func setTimeSlotsHandler(svc ConfigService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TimeSlotsRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		cfg, err := svc.SetTimeSlots(r.Context(), req.TimeSlots)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func setThresholdsHandler(svc ConfigService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThresholdsRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}

		cfg, err := svc.SetThresholds(r.Context(), clinic.Thresholds{
			NearCapacityRatio:     req.NearCapacityRatio,
			NearCapacityRemaining: req.NearCapacityRemaining,
		})
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func blockDateHandler(svc ConfigService, v *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockDateRequest
		if err := decodeJSON(w, r, v, &req); err != nil {
			writeAppError(w, r, err)
			return
		}
		date, err := clinic.ParseDate(req.Date)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		cfg, err := svc.BlockDate(r.Context(), date)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func unblockDateHandler(svc ConfigService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := clinic.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		cfg, err := svc.UnblockDate(r.Context(), date)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func calendarHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, err := clinic.ParseDate(q.Get("from"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		to, err := clinic.ParseDate(q.Get("to"))
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		days, err := svc.Calendar(r.Context(), from, to)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"days": days})
	}
}

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, err := queryInt(r, "limit", appointment.DefaultListLimit)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		filter := appointment.ListFilter{
			Date:   clinic.Date(q.Get("date")),
			Status: appointment.Status(q.Get("status")),
			Limit:  limit,
			Offset: offset,
		}
		appts, err := svc.List(r.Context(), filter)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		resp := AppointmentListResponse{
			Appointments: make([]AppointmentResponse, 0, len(appts)),
			Limit:        limit,
			Offset:       offset,
		}
		for i := range appts {
			resp.Appointments = append(resp.Appointments, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAppointmentID(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseAppointmentID(r)
		if err != nil {
			writeAppError(w, r, err)
			return
		}

		actor := "admin"
		if claims, ok := AdminFromContext(r.Context()); ok && claims.Email != "" {
			actor = claims.Email
		}

		appt, err := svc.Cancel(r.Context(), id, actor)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}
