package ledger

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Status is the closed status vocabulary for a panel.
type Status string

const (
	StatusPending     Status = "pending_installation"
	StatusInstalled   Status = "installed"
	StatusRemoved     Status = "removed"
	StatusMaintenance Status = "maintenance"
	StatusUnknown     Status = "unknown"
)

// Kind classifies the effect of an event on billability.
type Kind string

const (
	KindDeactivation Kind = "deactivation"
	KindReactivation Kind = "reactivation"
)

var (
	ErrEmptyPanelID  = errors.New("ledger: empty panel id")
	ErrInvalidDate   = errors.New("ledger: invalid event date")
	ErrUnknownStatus = errors.New("ledger: status outside vocabulary")
	ErrUnknownAction = errors.New("ledger: unknown action kind")
)

// Event is a dated fact that changes a panel's status. Seq records
// insertion order and breaks ties between events sharing a date.
type Event struct {
	ID        string
	PanelID   string
	Date      time.Time
	Kind      Kind
	NewStatus Status
	Note      string
	Seq       int
}

// BuildEventID derives a stable id from the insertion sequence.
func BuildEventID(seq int) string {
	return "evt-" + strconv.Itoa(seq)
}

// Validate checks event invariants.
func (e Event) Validate() error {
	if e.PanelID == "" {
		return ErrEmptyPanelID
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if _, ok := NormalizeStatus(string(e.NewStatus)); !ok {
		return ErrUnknownStatus
	}
	return nil
}

// NormalizeStatus validates a value against the closed vocabulary.
func NormalizeStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusInstalled, StatusRemoved, StatusMaintenance, StatusUnknown:
		return Status(value), true
	default:
		return "", false
	}
}

// LookupRawStatus resolves free-form spreadsheet labels against the
// vocabulary. Canonical values pass through.
func LookupRawStatus(raw string) (Status, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := NormalizeStatus(value); ok {
		return status, true
	}
	switch value {
	case "active", "pose", "posé", "installe", "installé", "en service":
		return StatusInstalled, true
	case "inactive", "depose", "déposé", "retire", "retiré", "hors service":
		return StatusRemoved, true
	case "en maintenance", "entretien":
		return StatusMaintenance, true
	case "pending", "a poser", "à poser", "prevu", "prévu":
		return StatusPending, true
	default:
		return "", false
	}
}

// MapRawStatus is LookupRawStatus with blank and unrecognized values
// defaulting to pending installation.
func MapRawStatus(raw string) Status {
	if status, ok := LookupRawStatus(raw); ok {
		return status
	}
	return StatusPending
}

// NormalizeTransition builds a canonical event from an explicit
// (oldStatus -> newStatus) row. The old status is informational only;
// the new status decides the kind: installed reactivates, removed and
// maintenance deactivate.
func NormalizeTransition(panelID string, date time.Time, oldRaw, newRaw, note string) (Event, error) {
	_ = oldRaw
	if panelID == "" {
		return Event{}, ErrEmptyPanelID
	}
	if date.IsZero() {
		return Event{}, ErrInvalidDate
	}
	status, ok := LookupRawStatus(newRaw)
	if !ok {
		return Event{}, ErrUnknownStatus
	}
	kind, err := kindForStatus(status)
	if err != nil {
		return Event{}, err
	}
	return Event{PanelID: panelID, Date: date, Kind: kind, NewStatus: status, Note: note}, nil
}

// NormalizeAction builds a canonical event from an action-kind row
// (deactivate / reactivate shapes).
func NormalizeAction(panelID string, date time.Time, action, note string) (Event, error) {
	if panelID == "" {
		return Event{}, ErrEmptyPanelID
	}
	if date.IsZero() {
		return Event{}, ErrInvalidDate
	}
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "deactivate", "deactivation", "depose", "désactivation", "desactivation":
		return Event{PanelID: panelID, Date: date, Kind: KindDeactivation, NewStatus: StatusRemoved, Note: note}, nil
	case "reactivate", "reactivation", "pose", "réactivation":
		return Event{PanelID: panelID, Date: date, Kind: KindReactivation, NewStatus: StatusInstalled, Note: note}, nil
	default:
		return Event{}, ErrUnknownAction
	}
}

func kindForStatus(status Status) (Kind, error) {
	switch status {
	case StatusInstalled:
		return KindReactivation, nil
	case StatusRemoved, StatusMaintenance:
		return KindDeactivation, nil
	default:
		return "", ErrUnknownStatus
	}
}
