package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energy-dashboard/internal/analytics/domain/series"
	"energy-dashboard/internal/analytics/interfaces/export"
	telemetryapp "energy-dashboard/internal/telemetry/application"
)

// HistoryHandler serves per-device consumption history views under
// /api/v1/devices/{id}/history.
type HistoryHandler struct {
	service *telemetryapp.HistoryService
	logger  *log.Logger
}

// NewHistoryHandler constructs a handler.
func NewHistoryHandler(service *telemetryapp.HistoryService, logger *log.Logger) (*HistoryHandler, error) {
	if service == nil {
		return nil, errors.New("history handler: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HistoryHandler{service: service, logger: logger}, nil
}

// ServeHTTP routes /api/v1/devices/{id}/history and its export variants.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/devices/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[1] != "history" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	deviceID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2:
		h.handleHistory(w, r, deviceID)
	case len(parts) == 3 && parts[2] == "export.xlsx":
		h.handleExport(w, r, deviceID, "xlsx")
	case len(parts) == 3 && parts[2] == "export.pdf":
		h.handleExport(w, r, deviceID, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *HistoryHandler) handleHistory(w http.ResponseWriter, r *http.Request, deviceID int64) {
	start := time.Now()
	computed, status, err := h.compute(r, deviceID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(computed)
	h.logger.Printf("history duration_ms=%d device_id=%d view=%s points=%d",
		time.Since(start).Milliseconds(), deviceID, viewParam(r), len(computed.Points))
}

func (h *HistoryHandler) handleExport(w http.ResponseWriter, r *http.Request, deviceID int64, format string) {
	computed, status, err := h.compute(r, deviceID)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "xlsx":
		data, err = export.BuildSeriesXLSX(computed)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = export.BuildSeriesPDF(computed)
		contentType = "application/pdf"
	}
	if err != nil {
		h.logger.Printf("history export: build %s error: %v", format, err)
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// compute loads the device history and evaluates the requested view.
// An unknown device is not an error: it yields an empty series.
func (h *HistoryHandler) compute(r *http.Request, deviceID int64) (series.Series, int, error) {
	view := series.View(viewParam(r))
	if !view.IsValid() {
		return series.Series{}, http.StatusBadRequest, series.ErrInvalidView
	}

	store, err := h.service.Load(r.Context(), deviceID)
	if err != nil {
		h.logger.Printf("history: load device %d: %v", deviceID, err)
		return series.Series{}, http.StatusInternalServerError, errors.New("history unavailable")
	}

	computed, err := series.ForView(view, store.All())
	if err != nil {
		return series.Series{}, http.StatusBadRequest, err
	}
	return computed, http.StatusOK, nil
}

func viewParam(r *http.Request) string {
	view := r.URL.Query().Get("view")
	if view == "" {
		return string(series.ViewDaily)
	}
	return view
}
