package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
)

type createBookingRequest struct {
	ItemID *int64          `json:"itemId"`
	Start  models.DateTime `json:"start"`
	End    models.DateTime `json:"end"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := s.callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	switch {
	case body.ItemID == nil:
		writeError(w, http.StatusBadRequest, "itemId is required")
		return
	case body.Start.IsZero():
		writeError(w, http.StatusBadRequest, "start is required")
		return
	case body.End.IsZero():
		writeError(w, http.StatusBadRequest, "end is required")
		return
	}

	view, err := s.deps.Bookings.Create(r.Context(), userID, *body.ItemID, body.Start.Time, body.End.Time)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := s.callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw := r.URL.Query().Get("approved")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "approved is required")
		return
	}
	approved, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid approved value: %s", raw))
		return
	}

	view, err := s.deps.Bookings.Decide(r.Context(), userID, bookingID, approved)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := s.callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.deps.Bookings.GetByID(r.Context(), bookingID, userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleListByBooker(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.deps.Bookings.ListByBooker)
}

func (s *HTTPServer) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	s.handleList(w, r, s.deps.Bookings.ListByOwner)
}

type listFunc func(ctx context.Context, userID int64, state models.State, from, size int) ([]models.BookingView, error)

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request, list listFunc) {
	userID, err := s.callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	stateName := q.Get("state")
	if stateName == "" {
		stateName = models.StateAll.String()
	}
	state, ok := models.ParseState(stateName)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown state: "+stateName)
		return
	}

	from, err := queryInt(q.Get("from"), 0)
	if err != nil || from < 0 {
		writeError(w, http.StatusBadRequest, "from must be a non-negative integer")
		return
	}
	size, err := queryInt(q.Get("size"), s.cfg.DefaultPageSize)
	if err != nil || size < 1 {
		writeError(w, http.StatusBadRequest, "size must be a positive integer")
		return
	}

	views, err := list(r.Context(), userID, state, from, size)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	userID, err := s.callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.deps.Items.ItemDetails(r.Context(), userID, itemID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.PingContext(r.Context()); err != nil {
			s.logger.Error().Err(err).Msg("health check failed")
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps error kinds to status codes. Anything unclassified is
// logged and hidden behind a 500.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Str("request_id", requestIDFrom(r.Context())).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *HTTPServer) callerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(s.cfg.UserHeader))
	if raw == "" {
		return 0, fmt.Errorf("%s header is required", s.cfg.UserHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s header: %s", s.cfg.UserHeader, raw)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	return id, nil
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
