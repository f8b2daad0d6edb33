package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeTransition(t *testing.T) {
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	evt, err := NormalizeTransition("p1", day, "installed", "removed", "vandalized")
	if err != nil {
		t.Fatalf("normalize transition: %v", err)
	}
	if evt.Kind != KindDeactivation || evt.NewStatus != StatusRemoved {
		t.Fatalf("expected deactivation/removed, got %s/%s", evt.Kind, evt.NewStatus)
	}

	evt, err = NormalizeTransition("p1", day, "removed", "installé", "")
	if err != nil {
		t.Fatalf("normalize transition with label: %v", err)
	}
	if evt.Kind != KindReactivation || evt.NewStatus != StatusInstalled {
		t.Fatalf("expected reactivation/installed, got %s/%s", evt.Kind, evt.NewStatus)
	}

	if _, err := NormalizeTransition("p1", day, "installed", "bogus", ""); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if _, err := NormalizeTransition("", day, "installed", "removed", ""); !errors.Is(err, ErrEmptyPanelID) {
		t.Fatalf("expected ErrEmptyPanelID, got %v", err)
	}
	if _, err := NormalizeTransition("p1", time.Time{}, "installed", "removed", ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNormalizeAction(t *testing.T) {
	day := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

	evt, err := NormalizeAction("p1", day, "deactivate", "")
	if err != nil {
		t.Fatalf("normalize action: %v", err)
	}
	if evt.Kind != KindDeactivation || evt.NewStatus != StatusRemoved {
		t.Fatalf("expected deactivation/removed, got %s/%s", evt.Kind, evt.NewStatus)
	}

	evt, err = NormalizeAction("p1", day, "Pose", "reinstall")
	if err != nil {
		t.Fatalf("normalize pose action: %v", err)
	}
	if evt.Kind != KindReactivation {
		t.Fatalf("expected reactivation, got %s", evt.Kind)
	}

	if _, err := NormalizeAction("p1", day, "explode", ""); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMapRawStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want Status
	}{
		{"installed", StatusInstalled},
		{"Posé", StatusInstalled},
		{"en service", StatusInstalled},
		{"déposé", StatusRemoved},
		{"maintenance", StatusMaintenance},
		{"à poser", StatusPending},
		{"", StatusPending},
		{"gibberish", StatusPending},
	}
	for _, tc := range cases {
		if got := MapRawStatus(tc.raw); got != tc.want {
			t.Fatalf("MapRawStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}
