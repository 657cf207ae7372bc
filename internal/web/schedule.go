package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"tablecal/internal/extract"
	"tablecal/internal/ics"
	appLog "tablecal/internal/log"
	"tablecal/internal/metrics"
	"tablecal/internal/model"
)

// uploadField is the multipart form field holding the schedule image.
const uploadField = "file"

// errMissingFile is reported when the upload has no "file" part.
var errMissingFile = errors.New(`missing multipart field "file"`)

// handleProcessImage converts an uploaded schedule image into events.
//
// POST /process_image/  (multipart/form-data, field "file")
//
// 200 returns the event array; any failure returns 400 {"error": msg}.
func (s *Server) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	const endpoint = "process_image"

	events, status, err := s.processUpload(w, r)
	if err != nil {
		s.fail(w, endpoint, status, err)
		return
	}
	s.recorder.ObserveRequest(endpoint, metrics.OutcomeOK)
	writeJSON(w, http.StatusOK, events)
}

// handleScheduleICS is handleProcessImage with an iCalendar response.
//
// POST /api/schedule.ics  (multipart/form-data, field "file")
func (s *Server) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	const endpoint = "schedule_ics"

	events, status, err := s.processUpload(w, r)
	if err != nil {
		s.fail(w, endpoint, status, err)
		return
	}

	body, err := ics.Encode(events, ics.EncodeOptions{RepeatWeeks: s.cfg.ICS.RepeatWeeks})
	if err != nil {
		s.fail(w, endpoint, http.StatusInternalServerError, err)
		return
	}
	s.recorder.ObserveRequest(endpoint, metrics.OutcomeOK)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// processUpload reads the "file" part and runs it through the processor.
// On failure it returns the HTTP status to answer with.
func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) ([]model.Event, int, error) {
	if s.proc == nil {
		return nil, http.StatusServiceUnavailable, errors.New("schedule processor unavailable")
	}

	maxBytes := s.cfg.Upload.MaxBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooLarge.Limit)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart upload: %w", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	f, hdr, err := r.FormFile(uploadField)
	if err != nil {
		return nil, http.StatusBadRequest, errMissingFile
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("read upload: %w", err)
	}
	appLog.Debug("schedule upload received", "filename", hdr.Filename, "bytes", len(data))

	events, err := safeProcess(r.Context(), func(ctx context.Context) ([]model.Event, error) {
		return s.proc.ProcessBytes(ctx, data)
	})
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return events, http.StatusOK, nil
}

// safeProcess runs fn and converts a panic into an error.
func safeProcess(ctx context.Context, fn func(context.Context) ([]model.Event, error)) (events []model.Event, err error) {
	defer func() {
		if v := recover(); v != nil {
			events = nil
			err = fmt.Errorf("%v", v)
		}
	}()
	return fn(ctx)
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, status int, err error) {
	outcome := metrics.OutcomeError
	if errors.Is(err, extract.ErrNoTable) {
		outcome = metrics.OutcomeNoTable
	}
	s.recorder.ObserveRequest(endpoint, outcome)
	appLog.Error("schedule request failed", err, "endpoint", endpoint, "status", status)
	writeError(w, status, err.Error())
}
