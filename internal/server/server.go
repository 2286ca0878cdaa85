// Package server exposes the ingestion, dashboard, prediction, and
// booking endpoints over JSON HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskpulse-ai/riskpulse/internal/booking"
	"github.com/riskpulse-ai/riskpulse/internal/config"
	"github.com/riskpulse-ai/riskpulse/internal/dashboard"
	"github.com/riskpulse-ai/riskpulse/internal/records"
	"github.com/riskpulse-ai/riskpulse/internal/redact"
	"github.com/riskpulse-ai/riskpulse/internal/risk"
	"github.com/riskpulse-ai/riskpulse/internal/store"
	"github.com/riskpulse-ai/riskpulse/internal/telemetry"
)

const maxUploadBytes = 64 << 20

// Mailer delivers one notification email.
type Mailer interface {
	Send(to, subject, body string) error
}

// Server wraps the HTTP components for RiskPulse.
type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	svc    *risk.Service
	store  *store.Store // nil disables dataset persistence
	mailer Mailer       // nil disables booking emails
	tel    *telemetry.Provider
}

// New wires routes around the prediction service and its collaborators.
func New(cfg *config.Config, svc *risk.Service, st *store.Store, mailer Mailer, tel *telemetry.Provider) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		cfg:    cfg,
		svc:    svc,
		store:  st,
		mailer: mailer,
		tel:    tel,
	}

	s.mux.HandleFunc("/healthz", s.instrument("/healthz", s.handleHealth))
	s.mux.HandleFunc("/process-csv", s.instrument("/process-csv", s.handleProcessCSV))
	s.mux.HandleFunc("/get-dashboard", s.instrument("/get-dashboard", s.handleGetDashboard))
	s.mux.HandleFunc("/predict-risk", s.instrument("/predict-risk", s.handlePredictRisk))
	s.mux.HandleFunc("/book-appointment", s.instrument("/book-appointment", s.handleBookAppointment))

	return s
}

// Start begins serving on addr and blocks.
func (s *Server) Start(addr string) error {
	redact.Logf("RiskPulse running on %s (model=%s)", addr, s.svc.Handle().Kind())
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

// statusWriter captures the response code for request metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(sw, r)
		s.tel.RecordRequest(route, sw.status, float64(time.Since(start).Milliseconds()))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"model":  s.svc.Handle().Kind(),
	})
}

type processCSVResponse struct {
	DatasetID       string            `json:"dataset_id,omitempty"`
	Classifications []string          `json:"classifications"`
	Manufacturers   []string          `json:"manufacturers"`
	Countries       []string          `json:"countries"`
	Preview         records.RecordSet `json:"preview"`
	Data            records.RecordSet `json:"data"`
}

func (s *Server) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	recs, err := records.ParseCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("csv parse failed: %v", err))
		return
	}

	recs = records.Deduplicate(recs)
	records.FillMissing(recs)
	records.CoerceNumeric(recs, false)

	resp := processCSVResponse{
		Classifications: records.UniqueSorted(recs, "classification"),
		Manufacturers:   records.UniqueSorted(recs, "name_mfr"),
		Countries:       records.UniqueSorted(recs, "country"),
		Preview:         head(recs, 20),
		Data:            recs,
	}

	if s.store != nil {
		id, err := s.store.SaveDataset(header.Filename, recs)
		if err != nil {
			redact.Logf("dataset save failed: %v", err)
		} else {
			resp.DatasetID = id
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type dashboardRequest struct {
	Classification string            `json:"classification"`
	CSVData        records.RecordSet `json:"csv_data"`
	DatasetID      string            `json:"dataset_id"`
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	recs := req.CSVData
	if len(recs) == 0 && req.DatasetID != "" {
		if s.store == nil {
			writeError(w, http.StatusBadRequest, "dataset persistence is disabled")
			return
		}
		stored, err := s.store.Dataset(req.DatasetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "dataset not found")
				return
			}
			redact.Logf("dataset load failed: %v", err)
			writeError(w, http.StatusInternalServerError, "dataset load failed")
			return
		}
		recs = stored
	}

	result, err := dashboard.Prepare(req.Classification, recs)
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		redact.Logf("dashboard aggregation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "dashboard aggregation failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePredictRisk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.svc.Predict(r.Context(), fields)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		redact.Logf("prediction failed: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type bookingRequest struct {
	UserName        string         `json:"userName"`
	UserEmail       string         `json:"userEmail"`
	AppointmentDate string         `json:"appointmentDate"`
	InputDataText   map[string]any `json:"inputDataText"`
	Explanation     string         `json:"explanation"`
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.mailer == nil {
		writeError(w, http.StatusServiceUnavailable, "email delivery is not configured")
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	appt, err := booking.ParseDate(req.AppointmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link := booking.CalendarLink(appt)
	userBody := booking.UserBody(req.UserName, req.InputDataText, appt, link)
	mfrBody := booking.ManufacturerBody(req.UserName, req.UserEmail, req.InputDataText, req.Explanation, appt, link)

	var details []string
	if err := s.mailer.Send(req.UserEmail, "Appointment Confirmed - Medical Device", userBody); err != nil {
		redact.Logf("user email failed: %v", err)
		details = append(details, fmt.Sprintf("User email error: %v", err))
	}
	if err := s.mailer.Send(s.cfg.SMTP.ManufacturerEmail, "Device Failure / Appointment Scheduled", mfrBody); err != nil {
		redact.Logf("manufacturer email failed: %v", err)
		details = append(details, fmt.Sprintf("Manufacturer email error: %v", err))
	}

	if len(details) > 0 {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   "Failed to send one or more emails.",
			"details": details,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Appointment created and emails sent successfully.",
		"eventLink": link,
	})
}

func head(recs records.RecordSet, n int) records.RecordSet {
	if len(recs) > n {
		return recs[:n]
	}
	return recs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		redact.Logf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
