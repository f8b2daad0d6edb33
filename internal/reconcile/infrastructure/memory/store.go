package memory

import (
	"sync"

	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
)

// Store holds the panel and event collections. It is constructed once
// by the host and passed by reference to the reconciliation service and
// the billing calculator; Clear is its teardown.
type Store struct {
	mu      sync.RWMutex
	panels  map[string]*masterdata.Panel
	order   []string
	events  []ledger.Event
	nextSeq int
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{panels: make(map[string]*masterdata.Panel)}
}

// Panel returns a copy of the panel with the given id.
func (s *Store) Panel(id string) (masterdata.Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	panel, ok := s.panels[id]
	if !ok {
		return masterdata.Panel{}, false
	}
	return *panel, true
}

// Panels returns all panels in insertion order.
func (s *Store) Panels() []masterdata.Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]masterdata.Panel, 0, len(s.order))
	for _, id := range s.order {
		if panel, ok := s.panels[id]; ok {
			result = append(result, *panel)
		}
	}
	return result
}

// Events returns all events in insertion order.
func (s *Store) Events() []ledger.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]ledger.Event, len(s.events))
	copy(result, s.events)
	return result
}

// EventsForPanel returns the full event history of one panel.
func (s *Store) EventsForPanel(panelID string) []ledger.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ledger.Event
	for _, evt := range s.events {
		if evt.PanelID == panelID {
			result = append(result, evt)
		}
	}
	return result
}

// Event returns a copy of the event with the given id.
func (s *Store) Event(id string) (ledger.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, evt := range s.events {
		if evt.ID == id {
			return evt, true
		}
	}
	return ledger.Event{}, false
}

// PutPanel inserts or replaces a panel.
func (s *Store) PutPanel(panel masterdata.Panel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.panels[panel.ID]; !exists {
		s.order = append(s.order, panel.ID)
	}
	copy := panel
	s.panels[panel.ID] = &copy
}

// AppendEvent stores an event, assigning its sequence number and id.
func (s *Store) AppendEvent(evt ledger.Event) ledger.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(evt)
}

func (s *Store) appendLocked(evt ledger.Event) ledger.Event {
	s.nextSeq++
	evt.Seq = s.nextSeq
	if evt.ID == "" {
		evt.ID = ledger.BuildEventID(evt.Seq)
	}
	s.events = append(s.events, evt)
	return evt
}

// ReplaceEvent overwrites the stored event with the same id, keeping
// its sequence position.
func (s *Store) ReplaceEvent(evt ledger.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == evt.ID {
			evt.Seq = s.events[i].Seq
			s.events[i] = evt
			return true
		}
	}
	return false
}

// Seed loads host-persisted collections, preserving event order.
func (s *Store) Seed(panels []masterdata.Panel, events []ledger.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, panel := range panels {
		if _, exists := s.panels[panel.ID]; !exists {
			s.order = append(s.order, panel.ID)
		}
		copy := panel
		s.panels[panel.ID] = &copy
	}
	for _, evt := range events {
		s.appendLocked(evt)
	}
}

// Clear empties both collections and reports the counts removed.
func (s *Store) Clear() (panelsRemoved, eventsRemoved int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	panelsRemoved = len(s.panels)
	eventsRemoved = len(s.events)
	s.panels = make(map[string]*masterdata.Panel)
	s.order = nil
	s.events = nil
	s.nextSeq = 0
	return panelsRemoved, eventsRemoved
}
