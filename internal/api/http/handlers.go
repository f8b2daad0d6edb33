package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	billingapp "pivtrack/internal/billing/application"
	billinginterfaces "pivtrack/internal/billing/interfaces"
	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
	"pivtrack/internal/observability/metrics"
	reconcileapp "pivtrack/internal/reconcile/application"
	"pivtrack/internal/reconcile/infrastructure/memory"
	reconcileinterfaces "pivtrack/internal/reconcile/interfaces"
)

// Mirror persists store snapshots after mutations. Nil disables
// persistence.
type Mirror interface {
	Sync(ctx context.Context, panels []masterdata.Panel, events []ledger.Event) error
}

// PanelsHandler serves panel listing and day-status queries.
type PanelsHandler struct {
	store *memory.Store
}

// NewPanelsHandler constructs a PanelsHandler.
func NewPanelsHandler(store *memory.Store) *PanelsHandler {
	return &PanelsHandler{store: store}
}

// ServeHTTP handles GET /api/v1/panels and
// GET /api/v1/panels/{id}/status.
func (h *PanelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/panels")
	rest = strings.Trim(rest, "/")
	if rest == "" {
		writeJSON(w, h.store.Panels())
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "status" {
		http.NotFound(w, r)
		return
	}
	panelID := parts[0]
	panel, ok := h.store.Panel(panelID)
	if !ok {
		http.Error(w, "panel not found", http.StatusNotFound)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}

	status := ledger.StatusOnDay(panel.InstalledOn, h.store.EventsForPanel(panelID), day)
	writeJSON(w, map[string]any{
		"panel_id": panelID,
		"date":     ledger.Day(day).Format("2006-01-02"),
		"status":   status.Status,
		"billable": status.Billable,
	})
}

// BillingHandler serves monthly billing queries and exports.
type BillingHandler struct {
	calc *billingapp.Calculator
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(calc *billingapp.Calculator) *BillingHandler {
	return &BillingHandler{calc: calc}
}

// ServeHTTP handles GET /api/v1/billing and its export variants.
func (h *BillingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.calc == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/export.xlsx"):
		records := h.calc.MonthlyBillingAll(year, month)
		data, err := billinginterfaces.BuildBillingXLSX(year, month, records)
		if err != nil {
			metrics.ObserveExport("xlsx", metrics.ResultError)
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		metrics.ObserveExport("xlsx", metrics.ResultSuccess)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="billing.xlsx"`)
		_, _ = w.Write(data)
	case strings.HasSuffix(r.URL.Path, "/export.pdf"):
		records := h.calc.MonthlyBillingAll(year, month)
		data, err := billinginterfaces.BuildBillingPDF(year, month, records)
		if err != nil {
			metrics.ObserveExport("pdf", metrics.ResultError)
			http.Error(w, "export error", http.StatusInternalServerError)
			return
		}
		metrics.ObserveExport("pdf", metrics.ResultSuccess)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="billing.pdf"`)
		_, _ = w.Write(data)
	default:
		if panelID := r.URL.Query().Get("panel_id"); panelID != "" {
			writeJSON(w, h.calc.MonthlyBilling(panelID, year, month))
			return
		}
		writeJSON(w, h.calc.MonthlyBillingAll(year, month))
	}
}

// ImportHandler ingests uploaded XLSX batches through the
// reconciliation service.
type ImportHandler struct {
	service *reconcileapp.Service
	store   *memory.Store
	mirror  Mirror
	logger  *log.Logger
}

// NewImportHandler constructs an ImportHandler.
func NewImportHandler(service *reconcileapp.Service, store *memory.Store, mirror Mirror, logger *log.Logger) (*ImportHandler, error) {
	if service == nil || store == nil || logger == nil {
		return nil, errors.New("import handler: nil dependency")
	}
	return &ImportHandler{service: service, store: store, mirror: mirror, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/import/panels and
// POST /api/v1/import/events with a multipart "file" field.
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	rows, err := reconcileinterfaces.ReadRows(file)
	if err != nil {
		http.Error(w, "unreadable workbook", http.StatusBadRequest)
		return
	}

	var result reconcileapp.BatchResult
	switch {
	case strings.HasSuffix(r.URL.Path, "/panels"):
		result = h.service.ReconcilePanels(reconcileinterfaces.PanelInputsFromRows(rows))
	case strings.HasSuffix(r.URL.Path, "/events"):
		result = h.service.ReconcileEvents(reconcileinterfaces.EventInputsFromRows(rows))
	default:
		http.NotFound(w, r)
		return
	}

	h.syncMirror(r.Context())
	writeJSON(w, result)
}

func (h *ImportHandler) syncMirror(ctx context.Context) {
	if h.mirror == nil {
		return
	}
	if err := h.mirror.Sync(ctx, h.store.Panels(), h.store.Events()); err != nil {
		h.logger.Printf("mirror sync error: %v", err)
	}
}

// EventsHandler serves manual event entry and edits.
type EventsHandler struct {
	service *reconcileapp.Service
	store   *memory.Store
	mirror  Mirror
	logger  *log.Logger
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(service *reconcileapp.Service, store *memory.Store, mirror Mirror, logger *log.Logger) (*EventsHandler, error) {
	if service == nil || store == nil || logger == nil {
		return nil, errors.New("events handler: nil dependency")
	}
	return &EventsHandler{service: service, store: store, mirror: mirror, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/events, PUT /api/v1/events/{id} and
// GET /api/v1/events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.store.Events())
	case http.MethodPost:
		var input reconcileapp.EventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		result := h.service.ReconcileEvents([]reconcileapp.EventInput{input})
		h.syncMirror(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if result.Accepted == 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}
		_ = json.NewEncoder(w).Encode(result)
	case http.MethodPut:
		eventID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/events"), "/")
		if eventID == "" {
			http.Error(w, "event id is required", http.StatusBadRequest)
			return
		}
		var input reconcileapp.EventInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := h.service.UpdateEvent(eventID, input); err != nil {
			if errors.Is(err, reconcileapp.ErrEventNotFound) {
				http.Error(w, "event not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.syncMirror(r.Context())
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *EventsHandler) syncMirror(ctx context.Context) {
	if h.mirror == nil {
		return
	}
	if err := h.mirror.Sync(ctx, h.store.Panels(), h.store.Events()); err != nil {
		h.logger.Printf("mirror sync error: %v", err)
	}
}

// ClearHandler empties both collections.
type ClearHandler struct {
	service *reconcileapp.Service
	store   *memory.Store
	mirror  Mirror
	logger  *log.Logger
}

// NewClearHandler constructs a ClearHandler.
func NewClearHandler(service *reconcileapp.Service, store *memory.Store, mirror Mirror, logger *log.Logger) (*ClearHandler, error) {
	if service == nil || store == nil || logger == nil {
		return nil, errors.New("clear handler: nil dependency")
	}
	return &ClearHandler{service: service, store: store, mirror: mirror, logger: logger}, nil
}

// ServeHTTP handles POST /api/v1/admin/clear.
func (h *ClearHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	panels, events := h.service.ClearAll()
	if h.mirror != nil {
		if err := h.mirror.Sync(r.Context(), nil, nil); err != nil {
			h.logger.Printf("mirror sync error: %v", err)
		}
	}
	writeJSON(w, map[string]int{"panels_removed": panels, "events_removed": events})
}

func parseYearMonth(r *http.Request) (int, time.Month, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1900 || year > 3000 {
		return 0, 0, errors.New("year is required")
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.New("month must be 1-12")
	}
	return year, time.Month(month), nil
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(value)
}
