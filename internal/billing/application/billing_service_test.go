package application

import (
	"testing"
	"time"

	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
	"pivtrack/internal/reconcile/infrastructure/memory"
)

func testConfig() Config {
	return Config{DefaultMonthlyRate: 37.70, Currency: "EUR", StandardMonthDays: 30}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newCalculator(t *testing.T, store *memory.Store) *Calculator {
	t.Helper()
	calc, err := NewCalculator(store, testConfig())
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	return calc
}

func TestFullMonthBillsStandardizedMonth(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2024, time.January, 1)})
	calc := newCalculator(t, store)

	// Fully active 31-day month bills as the standardized 30-day month.
	record := calc.MonthlyBilling("p1", 2024, time.July)
	if record.BilledDays != 30 || record.TotalDaysInMonth != 30 {
		t.Fatalf("expected 30/30, got %d/%d", record.BilledDays, record.TotalDaysInMonth)
	}
	if record.Amount != 37.70 {
		t.Fatalf("expected amount 37.70, got %.2f", record.Amount)
	}
}

func TestFullMonthIdempotentAcrossMonthLengths(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2023, time.January, 1)})
	calc := newCalculator(t, store)

	february := calc.MonthlyBilling("p1", 2023, time.February)
	july := calc.MonthlyBilling("p1", 2023, time.July)
	if february.Amount != july.Amount {
		t.Fatalf("full months must bill identically: feb=%.2f jul=%.2f", february.Amount, july.Amount)
	}
	if february.BilledDays != 30 || july.BilledDays != 30 {
		t.Fatalf("full months must report 30 billed days, got %d and %d", february.BilledDays, july.BilledDays)
	}
}

func TestPartialMonthBillsActualDays(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2024, time.June, 1)})
	store.AppendEvent(ledger.Event{
		PanelID: "p1", Date: date(2024, time.June, 15),
		Kind: ledger.KindDeactivation, NewStatus: ledger.StatusRemoved,
	})
	calc := newCalculator(t, store)

	// Active days 1-15 of a 30-day month at the default rate.
	record := calc.MonthlyBilling("p1", 2024, time.June)
	if record.BilledDays != 15 {
		t.Fatalf("expected 15 billed days, got %d", record.BilledDays)
	}
	if record.TotalDaysInMonth != 30 {
		t.Fatalf("expected natural day count 30, got %d", record.TotalDaysInMonth)
	}
	if record.Amount != 18.85 {
		t.Fatalf("expected amount 18.85, got %.2f", record.Amount)
	}
}

func TestDeactivateReactivateMonth(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2024, time.June, 1)})
	store.AppendEvent(ledger.Event{
		PanelID: "p1", Date: date(2024, time.June, 10),
		Kind: ledger.KindDeactivation, NewStatus: ledger.StatusRemoved,
	})
	store.AppendEvent(ledger.Event{
		PanelID: "p1", Date: date(2024, time.June, 20),
		Kind: ledger.KindReactivation, NewStatus: ledger.StatusInstalled,
	})
	calc := newCalculator(t, store)

	record := calc.MonthlyBilling("p1", 2024, time.June)
	if record.BilledDays != 21 {
		t.Fatalf("expected 21 billed days, got %d", record.BilledDays)
	}
}

func TestUnknownPanelYieldsZeroRecord(t *testing.T) {
	calc := newCalculator(t, memory.NewStore())

	record := calc.MonthlyBilling("ghost", 2024, time.February)
	if record.BilledDays != 0 || record.Amount != 0 {
		t.Fatalf("expected zero record, got days=%d amount=%.2f", record.BilledDays, record.Amount)
	}
	if record.TotalDaysInMonth != 29 {
		t.Fatalf("expected natural day count 29, got %d", record.TotalDaysInMonth)
	}
}

func TestPanelWithoutAnchorNeverBills(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1"})
	calc := newCalculator(t, store)

	record := calc.MonthlyBilling("p1", 2024, time.June)
	if record.BilledDays != 0 || record.Amount != 0 {
		t.Fatalf("anchorless panel must bill zero, got days=%d amount=%.2f", record.BilledDays, record.Amount)
	}
}

func TestConfiguredRateOverridesDefault(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2024, time.January, 1), MonthlyRate: 60})
	calc := newCalculator(t, store)

	record := calc.MonthlyBilling("p1", 2024, time.April)
	if record.Amount != 60 {
		t.Fatalf("expected configured rate amount 60, got %.2f", record.Amount)
	}
}

func TestBilledDaysBounds(t *testing.T) {
	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", InstalledOn: date(2024, time.June, 20)})
	calc := newCalculator(t, store)

	for month := time.January; month <= time.December; month++ {
		record := calc.MonthlyBilling("p1", 2024, month)
		if record.BilledDays < 0 || record.BilledDays > 30 {
			t.Fatalf("%s: billed days out of range: %d", month, record.BilledDays)
		}
		if record.BilledDays > record.TotalDaysInMonth {
			t.Fatalf("%s: billed days %d exceed month days %d", month, record.BilledDays, record.TotalDaysInMonth)
		}
	}
}

func TestMunicipalityRateFallback(t *testing.T) {
	cfg := testConfig()
	cfg.MunicipalityRates = map[string]float64{"Lyon": 45}

	store := memory.NewStore()
	store.PutPanel(masterdata.Panel{ID: "p1", Municipality: "Lyon", InstalledOn: date(2024, time.January, 1)})
	calc, err := NewCalculator(store, cfg)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	record := calc.MonthlyBilling("p1", 2024, time.April)
	if record.Amount != 45 {
		t.Fatalf("expected municipality rate amount 45, got %.2f", record.Amount)
	}
}
