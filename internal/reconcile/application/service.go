package application

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
	"pivtrack/internal/observability/metrics"
	"pivtrack/internal/reconcile/infrastructure/memory"
)

// maxBatchErrors caps the error list in a batch result; counts stay
// exact regardless of truncation.
const maxBatchErrors = 20

var (
	ErrPanelNotFound = errors.New("reconcile: panel not found")
	ErrEventNotFound = errors.New("reconcile: event not found")
)

// PanelInput is a raw panel row, fields as extracted from the source.
type PanelInput struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Municipality string `json:"municipality"`
	Address      string `json:"address"`
	Owner        string `json:"owner"`
	Notes        string `json:"notes"`
	InstalledOn  string `json:"installed_on"`
	MonthlyRate  string `json:"monthly_rate"`
	Status       string `json:"status"`
}

// EventInput is a raw event row. Rows carry either an explicit
// (old_status, new_status) pair or an action kind; the pair wins when
// both are present.
type EventInput struct {
	PanelID   string `json:"panel_id"`
	Date      string `json:"date"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Action    string `json:"action"`
	Note      string `json:"note"`
}

// BatchResult reports the outcome of one reconciliation batch.
type BatchResult struct {
	Total      int      `json:"total"`
	Accepted   int      `json:"accepted"`
	Skipped    int      `json:"skipped"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors"`
}

func (r *BatchResult) skip(format string, args ...any) {
	r.Skipped++
	r.ErrorCount++
	if len(r.Errors) < maxBatchErrors {
		r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	}
}

// Service validates and merges panel/event batches and keeps derived
// status fields consistent with the event log.
type Service struct {
	store  *memory.Store
	logger *log.Logger
	now    func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a reconciliation service.
func NewService(store *memory.Store, logger *log.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("reconcile: nil store")
	}
	if logger == nil {
		return nil, errors.New("reconcile: nil logger")
	}
	service := &Service{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// ReconcilePanels validates a panel batch exhaustively, then applies
// all accepted rows in one pass.
func (s *Service) ReconcilePanels(inputs []PanelInput) BatchResult {
	start := time.Now()
	result := BatchResult{Total: len(inputs)}

	staged := make([]masterdata.Panel, 0, len(inputs))
	stagedIDs := make(map[string]struct{}, len(inputs))
	for i, input := range inputs {
		id := strings.TrimSpace(input.ID)
		if id == "" {
			result.skip("row %d: missing panel id", i+1)
			continue
		}
		if _, exists := s.store.Panel(id); exists {
			result.skip("row %d: duplicate panel id %q", i+1, id)
			continue
		}
		if _, exists := stagedIDs[id]; exists {
			result.skip("row %d: panel id %q duplicated within batch", i+1, id)
			continue
		}
		stagedIDs[id] = struct{}{}
		staged = append(staged, s.buildPanel(id, input))
	}

	for _, panel := range staged {
		s.store.PutPanel(panel)
		s.recomputePanel(panel.ID)
		result.Accepted++
	}

	metrics.ObserveReconcile("panels", metrics.ResultSuccess, result.Accepted, result.Skipped, time.Since(start))
	s.logger.Printf("reconcile panels: total=%d accepted=%d skipped=%d", result.Total, result.Accepted, result.Skipped)
	return result
}

// ReconcileEvents validates an event batch exhaustively, applies all
// accepted events, then recomputes every affected panel from its fully
// merged event history.
func (s *Service) ReconcileEvents(inputs []EventInput) BatchResult {
	start := time.Now()
	result := BatchResult{Total: len(inputs)}

	seen := make(map[string]struct{})
	for _, evt := range s.store.Events() {
		seen[eventKey(evt)] = struct{}{}
	}

	staged := make([]ledger.Event, 0, len(inputs))
	for i, input := range inputs {
		evt, err := s.buildEvent(input)
		if err != nil {
			result.skip("row %d: %v", i+1, err)
			continue
		}
		key := eventKey(evt)
		if _, dup := seen[key]; dup {
			result.skip("row %d: duplicate event for panel %q on %s", i+1, evt.PanelID, evt.Date.Format("2006-01-02"))
			continue
		}
		seen[key] = struct{}{}
		staged = append(staged, evt)
	}

	affected := make(map[string]struct{}, len(staged))
	for _, evt := range staged {
		s.store.AppendEvent(evt)
		affected[evt.PanelID] = struct{}{}
		result.Accepted++
	}
	for panelID := range affected {
		s.recomputePanel(panelID)
	}

	metrics.ObserveReconcile("events", metrics.ResultSuccess, result.Accepted, result.Skipped, time.Since(start))
	s.logger.Printf("reconcile events: total=%d accepted=%d skipped=%d panels=%d", result.Total, result.Accepted, result.Skipped, len(affected))
	return result
}

// UpdatePanel applies add-level validation to an existing panel's
// descriptive fields and recomputes its derived status.
func (s *Service) UpdatePanel(input PanelInput) error {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return errors.New("reconcile: missing panel id")
	}
	existing, ok := s.store.Panel(id)
	if !ok {
		return ErrPanelNotFound
	}
	panel := s.buildPanel(id, input)
	panel.CreatedAt = existing.CreatedAt
	s.store.PutPanel(panel)
	s.recomputePanel(id)
	return nil
}

// UpdateEvent replaces an accepted event's transition, date or note.
// When the owning panel changes, both old and new panels are
// recomputed.
func (s *Service) UpdateEvent(eventID string, input EventInput) error {
	existing, ok := s.store.Event(eventID)
	if !ok {
		return ErrEventNotFound
	}
	evt, err := s.buildEvent(input)
	if err != nil {
		return err
	}
	for _, other := range s.store.Events() {
		if other.ID != eventID && eventKey(other) == eventKey(evt) {
			return fmt.Errorf("reconcile: duplicate event for panel %q on %s", evt.PanelID, evt.Date.Format("2006-01-02"))
		}
	}
	evt.ID = eventID
	if !s.store.ReplaceEvent(evt) {
		return ErrEventNotFound
	}
	s.recomputePanel(evt.PanelID)
	if existing.PanelID != evt.PanelID {
		s.recomputePanel(existing.PanelID)
	}
	return nil
}

// ClearAll empties both collections. Idempotent.
func (s *Service) ClearAll() (panelsRemoved, eventsRemoved int) {
	panelsRemoved, eventsRemoved = s.store.Clear()
	s.logger.Printf("clear all: panels=%d events=%d", panelsRemoved, eventsRemoved)
	return panelsRemoved, eventsRemoved
}

func (s *Service) buildPanel(id string, input PanelInput) masterdata.Panel {
	now := s.now()
	panel := masterdata.Panel{
		ID:           id,
		Name:         strings.TrimSpace(input.Name),
		Municipality: strings.TrimSpace(input.Municipality),
		Address:      strings.TrimSpace(input.Address),
		Owner:        strings.TrimSpace(input.Owner),
		Notes:        strings.TrimSpace(input.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if panel.Municipality == "" {
		panel.Municipality = masterdata.DefaultMunicipality
	}
	if date, ok := ParseFlexibleDate(input.InstalledOn); ok {
		panel.InstalledOn = date
	}
	if rate, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(input.MonthlyRate), ",", "."), 64); err == nil && rate > 0 {
		panel.MonthlyRate = rate
	}
	// Raw status is only a hint: the authoritative value is recomputed
	// from the anchor and event history right after the put.
	panel.CurrentStatus = ledger.MapRawStatus(input.Status)
	return panel
}

func (s *Service) buildEvent(input EventInput) (ledger.Event, error) {
	panelID := strings.TrimSpace(input.PanelID)
	if panelID == "" {
		return ledger.Event{}, errors.New("missing panel id")
	}
	if _, ok := s.store.Panel(panelID); !ok {
		return ledger.Event{}, fmt.Errorf("unknown panel %q", panelID)
	}
	date, ok := ParseFlexibleDate(input.Date)
	if !ok {
		return ledger.Event{}, fmt.Errorf("unparseable date %q", input.Date)
	}
	if strings.TrimSpace(input.NewStatus) != "" {
		evt, err := ledger.NormalizeTransition(panelID, date, input.OldStatus, input.NewStatus, input.Note)
		if err != nil {
			return ledger.Event{}, fmt.Errorf("invalid status %q", input.NewStatus)
		}
		return evt, nil
	}
	if strings.TrimSpace(input.Action) != "" {
		evt, err := ledger.NormalizeAction(panelID, date, input.Action, input.Note)
		if err != nil {
			return ledger.Event{}, fmt.Errorf("unknown action %q", input.Action)
		}
		return evt, nil
	}
	return ledger.Event{}, errors.New("missing status transition")
}

// recomputePanel refreshes the cached status fields from the complete,
// current event history. Must run after every mutation that can change
// a panel's effective history.
func (s *Service) recomputePanel(panelID string) {
	panel, ok := s.store.Panel(panelID)
	if !ok {
		return
	}
	current := ledger.Current(panel.InstalledOn, s.store.EventsForPanel(panelID), s.now())
	if current.Status == ledger.StatusUnknown && panel.CurrentStatus != "" {
		// No anchor and no events: keep the vocabulary-mapped input
		// status for display, day-level derivation stays unknown.
	} else {
		panel.CurrentStatus = current.Status
		panel.LastStatusUpdate = current.AsOf
	}
	panel.UpdatedAt = s.now()
	s.store.PutPanel(panel)
}

func eventKey(evt ledger.Event) string {
	return evt.PanelID + "|" + evt.Date.Format("20060102") + "|" + string(evt.Kind) + "|" + string(evt.NewStatus)
}
