package ledger

import (
	"sort"
	"time"
)

// DayStatus is the derived outcome for a single calendar day.
type DayStatus struct {
	Status   Status
	Billable bool
}

// CurrentStatus is the latest known status for display.
type CurrentStatus struct {
	Status Status
	AsOf   time.Time
}

// Day truncates a time to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StatusOnDay derives the effective status and billability of a panel
// for one day, from its installation anchor and event history.
//
// A panel with no anchor is unknown and never billable. Days before the
// anchor are pending installation. From the anchor on, the panel is
// active until a deactivation; a deactivation dated d keeps day d itself
// billable and deactivates strictly after d, while a reactivation dated
// d is billable from d on. Events dated after the queried day are
// ignored. When several events share the queried date, the last listed
// one decides the displayed status; the day stays billable either way.
func StatusOnDay(installedOn time.Time, events []Event, day time.Time) DayStatus {
	if installedOn.IsZero() {
		return DayStatus{Status: StatusUnknown, Billable: false}
	}
	day = Day(day)
	if day.Before(Day(installedOn)) {
		return DayStatus{Status: StatusPending, Billable: false}
	}

	ordered := sortEvents(events)
	active := true
	var last, lastOnDay *Event
	for i := range ordered {
		date := Day(ordered[i].Date)
		if date.After(day) {
			break
		}
		switch ordered[i].Kind {
		case KindDeactivation:
			// A deactivation keeps its own day billable; it takes
			// effect strictly after its date.
			if date.Before(day) {
				active = false
			}
		case KindReactivation:
			active = true
		}
		last = &ordered[i]
		if date.Equal(day) {
			lastOnDay = &ordered[i]
		}
	}

	var status Status
	switch {
	case lastOnDay != nil:
		// Same-day tie-break: the last event listed for the queried
		// date decides the displayed status.
		status = lastOnDay.NewStatus
	case active:
		status = StatusInstalled
	case last != nil:
		status = last.NewStatus
	default:
		status = StatusRemoved
	}
	return DayStatus{Status: status, Billable: active}
}

// Current derives the latest status for display: the status carried by
// the chronologically last event, or the anchor's implied status when
// no events exist.
func Current(installedOn time.Time, events []Event, today time.Time) CurrentStatus {
	ordered := sortEvents(events)
	if len(ordered) > 0 {
		last := ordered[len(ordered)-1]
		return CurrentStatus{Status: last.NewStatus, AsOf: Day(last.Date)}
	}
	if installedOn.IsZero() {
		return CurrentStatus{Status: StatusUnknown}
	}
	anchor := Day(installedOn)
	if Day(today).Before(anchor) {
		return CurrentStatus{Status: StatusPending, AsOf: anchor}
	}
	return CurrentStatus{Status: StatusInstalled, AsOf: anchor}
}

func sortEvents(events []Event) []Event {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := Day(ordered[i].Date), Day(ordered[j].Date)
		if di.Equal(dj) {
			return ordered[i].Seq < ordered[j].Seq
		}
		return di.Before(dj)
	})
	return ordered
}
