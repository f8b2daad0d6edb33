package ledger

import (
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestStatusOnDayWithoutAnchor(t *testing.T) {
	status := StatusOnDay(time.Time{}, nil, date(2024, time.March, 15))
	if status.Status != StatusUnknown {
		t.Fatalf("expected unknown, got %s", status.Status)
	}
	if status.Billable {
		t.Fatalf("panel without anchor must never be billable")
	}
}

func TestStatusOnDayAroundAnchor(t *testing.T) {
	anchor := date(2024, time.March, 10)
	for day := 1; day < 10; day++ {
		status := StatusOnDay(anchor, nil, date(2024, time.March, day))
		if status.Status != StatusPending || status.Billable {
			t.Fatalf("day %d: expected pending/non-billable, got %s/%v", day, status.Status, status.Billable)
		}
	}
	for day := 10; day <= 31; day++ {
		status := StatusOnDay(anchor, nil, date(2024, time.March, day))
		if status.Status != StatusInstalled || !status.Billable {
			t.Fatalf("day %d: expected installed/billable, got %s/%v", day, status.Status, status.Billable)
		}
	}
}

func TestDeactivationKeepsItsOwnDayBillable(t *testing.T) {
	anchor := date(2024, time.June, 1)
	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 10), Kind: KindDeactivation, NewStatus: StatusRemoved, Seq: 1},
	}

	on := StatusOnDay(anchor, events, date(2024, time.June, 10))
	if !on.Billable {
		t.Fatalf("deactivation day itself must stay billable")
	}
	if on.Status != StatusRemoved {
		t.Fatalf("deactivation day displays the event status, got %s", on.Status)
	}

	after := StatusOnDay(anchor, events, date(2024, time.June, 11))
	if after.Billable {
		t.Fatalf("day after deactivation must not be billable")
	}
	if after.Status != StatusRemoved {
		t.Fatalf("expected removed after deactivation, got %s", after.Status)
	}
}

func TestDeactivateReactivateRoundTrip(t *testing.T) {
	// Installed day 1, deactivated day 10, reactivated day 20 of a
	// 30-day month: billable days are {1..10, 20..30} = 21.
	anchor := date(2024, time.June, 1)
	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 10), Kind: KindDeactivation, NewStatus: StatusRemoved, Seq: 1},
		{PanelID: "p1", Date: date(2024, time.June, 20), Kind: KindReactivation, NewStatus: StatusInstalled, Seq: 2},
	}

	billable := 0
	for day := 1; day <= 30; day++ {
		if StatusOnDay(anchor, events, date(2024, time.June, day)).Billable {
			billable++
		}
	}
	if billable != 21 {
		t.Fatalf("expected 21 billable days, got %d", billable)
	}
}

func TestFutureEventsIgnored(t *testing.T) {
	anchor := date(2024, time.June, 1)
	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 20), Kind: KindDeactivation, NewStatus: StatusRemoved, Seq: 1},
	}
	status := StatusOnDay(anchor, events, date(2024, time.June, 5))
	if !status.Billable || status.Status != StatusInstalled {
		t.Fatalf("future deactivation must not affect earlier days, got %s/%v", status.Status, status.Billable)
	}
}

func TestSameDayTieBreakLastEventWins(t *testing.T) {
	anchor := date(2024, time.June, 1)
	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 15), Kind: KindDeactivation, NewStatus: StatusMaintenance, Seq: 1},
		{PanelID: "p1", Date: date(2024, time.June, 15), Kind: KindReactivation, NewStatus: StatusInstalled, Seq: 2},
	}

	on := StatusOnDay(anchor, events, date(2024, time.June, 15))
	if on.Status != StatusInstalled {
		t.Fatalf("last listed event must decide the day's status, got %s", on.Status)
	}
	if !on.Billable {
		t.Fatalf("day with same-day events must stay billable")
	}

	// Reversed listing order flips the displayed status but not the
	// billability of the shared day.
	events[0].Seq, events[1].Seq = 2, 1
	on = StatusOnDay(anchor, events, date(2024, time.June, 15))
	if on.Status != StatusMaintenance {
		t.Fatalf("expected maintenance with reversed order, got %s", on.Status)
	}
	if !on.Billable {
		t.Fatalf("day must stay billable regardless of listing order")
	}
}

func TestRedundantDeactivationDoesNotResurrect(t *testing.T) {
	anchor := date(2024, time.June, 1)
	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 5), Kind: KindDeactivation, NewStatus: StatusRemoved, Seq: 1},
		{PanelID: "p1", Date: date(2024, time.June, 10), Kind: KindDeactivation, NewStatus: StatusRemoved, Seq: 2},
	}
	if StatusOnDay(anchor, events, date(2024, time.June, 10)).Billable {
		t.Fatalf("second deactivation of an inactive panel must not make its day billable")
	}
}

func TestCurrentStatus(t *testing.T) {
	anchor := date(2024, time.June, 1)
	today := date(2024, time.July, 1)

	current := Current(time.Time{}, nil, today)
	if current.Status != StatusUnknown {
		t.Fatalf("expected unknown for missing anchor, got %s", current.Status)
	}

	current = Current(anchor, nil, today)
	if current.Status != StatusInstalled || !current.AsOf.Equal(anchor) {
		t.Fatalf("expected installed as of anchor, got %s as of %s", current.Status, current.AsOf)
	}

	current = Current(anchor, nil, date(2024, time.May, 1))
	if current.Status != StatusPending {
		t.Fatalf("expected pending before anchor, got %s", current.Status)
	}

	events := []Event{
		{PanelID: "p1", Date: date(2024, time.June, 10), Kind: KindDeactivation, NewStatus: StatusMaintenance, Seq: 1},
	}
	current = Current(anchor, events, today)
	if current.Status != StatusMaintenance || !current.AsOf.Equal(date(2024, time.June, 10)) {
		t.Fatalf("expected maintenance as of event date, got %s as of %s", current.Status, current.AsOf)
	}
}
