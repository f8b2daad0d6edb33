package interfaces

import (
	"errors"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"pivtrack/internal/reconcile/application"
)

// ReadRows opens a workbook and returns its first sheet as
// header-keyed field maps. Header keys are lower-cased and trimmed.
func ReadRows(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("import: workbook has no sheets")
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := make([]string, len(raw[0]))
	for i, cell := range raw[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	rows := make([]map[string]string, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(map[string]string, len(header))
		empty := true
		for i, key := range header {
			if key == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if value != "" {
				empty = false
			}
			row[key] = value
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// PanelInputsFromRows maps header-keyed rows onto panel inputs,
// accepting the column aliases seen in the source spreadsheets.
func PanelInputsFromRows(rows []map[string]string) []application.PanelInput {
	inputs := make([]application.PanelInput, 0, len(rows))
	for _, row := range rows {
		inputs = append(inputs, application.PanelInput{
			ID:           pick(row, "id", "panel_id", "code", "numero", "numéro"),
			Name:         pick(row, "name", "nom", "libelle", "libellé"),
			Municipality: pick(row, "municipality", "commune", "ville"),
			Address:      pick(row, "address", "adresse", "emplacement"),
			Owner:        pick(row, "owner", "proprietaire", "propriétaire"),
			Notes:        pick(row, "notes", "note", "commentaire"),
			InstalledOn:  pick(row, "installed_on", "date_pose", "date de pose", "installation"),
			MonthlyRate:  pick(row, "monthly_rate", "tarif", "tarif_mensuel", "prix"),
			Status:       pick(row, "status", "statut", "etat", "état"),
		})
	}
	return inputs
}

// EventInputsFromRows maps header-keyed rows onto event inputs. Both
// event schemas are accepted: explicit old/new status pairs and action
// kind rows.
func EventInputsFromRows(rows []map[string]string) []application.EventInput {
	inputs := make([]application.EventInput, 0, len(rows))
	for _, row := range rows {
		inputs = append(inputs, application.EventInput{
			PanelID:   pick(row, "panel_id", "id", "panneau", "code"),
			Date:      pick(row, "date", "date_evenement", "date événement"),
			OldStatus: pick(row, "old_status", "ancien_statut", "ancien statut"),
			NewStatus: pick(row, "new_status", "nouveau_statut", "nouveau statut", "statut"),
			Action:    pick(row, "action", "type", "operation", "opération"),
			Note:      pick(row, "note", "notes", "commentaire"),
		})
	}
	return inputs
}

func pick(row map[string]string, keys ...string) string {
	for _, key := range keys {
		if value, ok := row[key]; ok && value != "" {
			return value
		}
	}
	return ""
}
