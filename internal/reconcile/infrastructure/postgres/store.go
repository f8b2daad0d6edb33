package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	ledger "pivtrack/internal/ledger/domain"
	masterdata "pivtrack/internal/masterdata/domain"
)

// DBTX abstracts *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the panel and event collections. It is a host-side
// mirror of the in-memory store; the computation core never touches it.
type Store struct {
	db *sql.DB
}

// NewStore constructs a store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// LoadPanels loads all panels in insertion order.
func (s *Store) LoadPanels(ctx context.Context) ([]masterdata.Panel, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("pg store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, municipality, address, owner, notes, installed_on, monthly_rate, current_status, last_status_update, created_at, updated_at
FROM panels
ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var panels []masterdata.Panel
	for rows.Next() {
		var panel masterdata.Panel
		var installedOn, lastUpdate sql.NullTime
		var status string
		if err := rows.Scan(
			&panel.ID,
			&panel.Name,
			&panel.Municipality,
			&panel.Address,
			&panel.Owner,
			&panel.Notes,
			&installedOn,
			&panel.MonthlyRate,
			&status,
			&lastUpdate,
			&panel.CreatedAt,
			&panel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if installedOn.Valid {
			panel.InstalledOn = installedOn.Time.UTC()
		}
		if lastUpdate.Valid {
			panel.LastStatusUpdate = lastUpdate.Time.UTC()
		}
		panel.CurrentStatus = ledger.Status(status)
		panel.CreatedAt = panel.CreatedAt.UTC()
		panel.UpdatedAt = panel.UpdatedAt.UTC()
		panels = append(panels, panel)
	}
	return panels, rows.Err()
}

// LoadEvents loads all events in insertion order.
func (s *Store) LoadEvents(ctx context.Context) ([]ledger.Event, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("pg store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, panel_id, event_date, kind, new_status, note, seq
FROM panel_events
ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		var evt ledger.Event
		var kind, status string
		if err := rows.Scan(&evt.ID, &evt.PanelID, &evt.Date, &kind, &status, &evt.Note, &evt.Seq); err != nil {
			return nil, err
		}
		evt.Date = evt.Date.UTC()
		evt.Kind = ledger.Kind(kind)
		evt.NewStatus = ledger.Status(status)
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Sync replaces the persisted collections with a full snapshot of the
// in-memory store, in one transaction.
func (s *Store) Sync(ctx context.Context, panels []masterdata.Panel, events []ledger.Event) error {
	if s == nil || s.db == nil {
		return errors.New("pg store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM panel_events`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM panels`); err != nil {
		return err
	}

	for _, panel := range panels {
		var installedOn, lastUpdate any
		if !panel.InstalledOn.IsZero() {
			installedOn = panel.InstalledOn
		}
		if !panel.LastStatusUpdate.IsZero() {
			lastUpdate = panel.LastStatusUpdate
		}
		createdAt := panel.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO panels (id, name, municipality, address, owner, notes, installed_on, monthly_rate, current_status, last_status_update, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			panel.ID,
			panel.Name,
			panel.Municipality,
			panel.Address,
			panel.Owner,
			panel.Notes,
			installedOn,
			panel.MonthlyRate,
			string(panel.CurrentStatus),
			lastUpdate,
			createdAt,
			panel.UpdatedAt,
		); err != nil {
			return err
		}
	}
	for _, evt := range events {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO panel_events (id, panel_id, event_date, kind, new_status, note, seq)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			evt.ID,
			evt.PanelID,
			evt.Date,
			string(evt.Kind),
			string(evt.NewStatus),
			evt.Note,
			evt.Seq,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}
