package masterdata

import (
	"errors"
	"time"

	ledger "pivtrack/internal/ledger/domain"
)

// DefaultMunicipality is used when imported rows leave the field blank.
const DefaultMunicipality = "non renseignée"

// Panel represents a physical advertising panel (PIV).
type Panel struct {
	ID           string
	Name         string
	Municipality string
	Address      string
	Owner        string
	Notes        string

	// InstalledOn is the anchor from which billability is possible.
	// Zero means no installation has been recorded yet.
	InstalledOn time.Time

	// MonthlyRate is the configured rate; non-positive values fall
	// back to the system default at billing time.
	MonthlyRate float64

	// CurrentStatus and LastStatusUpdate are caches of the ledger
	// derivation, recomputed after every mutation.
	CurrentStatus    ledger.Status
	LastStatusUpdate time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks panel invariants.
func (p Panel) Validate() error {
	if p.ID == "" {
		return errors.New("panel: empty id")
	}
	return nil
}

// EffectiveMonthlyRate resolves the rate used for billing.
func (p Panel) EffectiveMonthlyRate(defaultRate float64) float64 {
	if p.MonthlyRate > 0 {
		return p.MonthlyRate
	}
	return defaultRate
}
