package application

import (
	"errors"
	"math"
	"time"

	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
	"pivtrack/internal/observability/metrics"
)

// BillingRecord is the monthly billing figure for one panel.
type BillingRecord struct {
	PanelID          string     `json:"panel_id"`
	Year             int        `json:"year"`
	Month            time.Month `json:"month"`
	BilledDays       int        `json:"billed_days"`
	TotalDaysInMonth int        `json:"total_days_in_month"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency"`
}

// PanelReader is the store view the calculator needs.
type PanelReader interface {
	Panel(id string) (masterdata.Panel, bool)
	Panels() []masterdata.Panel
	EventsForPanel(panelID string) []ledger.Event
}

// Calculator derives monthly billing from the status ledger.
type Calculator struct {
	store PanelReader
	cfg   Config
}

// NewCalculator constructs a calculator.
func NewCalculator(store PanelReader, cfg Config) (*Calculator, error) {
	if store == nil {
		return nil, errors.New("billing: nil store")
	}
	if cfg.StandardMonthDays <= 0 || cfg.DefaultMonthlyRate <= 0 {
		return nil, errors.New("billing: invalid config")
	}
	return &Calculator{store: store, cfg: cfg}, nil
}

// MonthlyBilling computes the billing record for one panel and month.
// An unknown panel yields a zero record rather than an error.
func (c *Calculator) MonthlyBilling(panelID string, year int, month time.Month) BillingRecord {
	start := time.Now()
	defer func() {
		metrics.ObserveBilling(metrics.ResultSuccess, time.Since(start))
	}()

	naturalDays := daysInMonth(year, month)
	record := BillingRecord{
		PanelID:          panelID,
		Year:             year,
		Month:            month,
		TotalDaysInMonth: naturalDays,
		Currency:         c.cfg.Currency,
	}

	panel, ok := c.store.Panel(panelID)
	if !ok {
		return record
	}
	events := c.store.EventsForPanel(panelID)

	activeDays := 0
	for day := 1; day <= naturalDays; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if ledger.StatusOnDay(panel.InstalledOn, events, date).Billable {
			activeDays++
		}
	}

	if activeDays >= naturalDays {
		// Full-month rule: a fully active month bills as the
		// standardized month regardless of its natural length.
		record.BilledDays = c.cfg.StandardMonthDays
		record.TotalDaysInMonth = c.cfg.StandardMonthDays
	} else {
		record.BilledDays = activeDays
	}

	rate := panel.EffectiveMonthlyRate(c.cfg.RateFor(panel.Municipality))
	dailyRate := rate / float64(c.cfg.StandardMonthDays)
	record.Amount = round2(float64(record.BilledDays) * dailyRate)
	return record
}

// MonthlyBillingAll computes records for every panel in the store.
func (c *Calculator) MonthlyBillingAll(year int, month time.Month) []BillingRecord {
	panels := c.store.Panels()
	records := make([]BillingRecord, 0, len(panels))
	for _, panel := range panels {
		records = append(records, c.MonthlyBilling(panel.ID, year, month))
	}
	return records
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
