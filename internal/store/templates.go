package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// SaveTemplate stores a template reference as a saved item of kind template.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, name, templateName string, params map[string]interface{}) (*TemplateRecord, error) {
	if templateName == "" || len(templateName) > 80 {
		return nil, errors.NewValidationError("template_name", templateName, "must be 1..80 characters")
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	item, err := s.CreateSavedItem(ctx, name, models.SavedTemplate, map[string]interface{}{
		"template_name": templateName,
		"params":        params,
	})
	if err != nil {
		return nil, err
	}
	return &TemplateRecord{
		ID:           item.ID,
		Name:         item.Name,
		TemplateName: templateName,
		CreatedAt:    item.CreatedAt,
	}, nil
}

// ListTemplates returns template summaries, newest first.
func (s *SQLiteStore) ListTemplates(ctx context.Context, limit, offset int) ([]TemplateRecord, error) {
	limit, err := pageLimit(limit, offset)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, payload_json, created_at FROM saved_items
		WHERE kind = ? ORDER BY id DESC LIMIT ? OFFSET ?
	`, string(models.SavedTemplate), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	out := []TemplateRecord{}
	for rows.Next() {
		rec, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		rec.Params = nil
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetTemplate returns one template with its parameters.
func (s *SQLiteStore) GetTemplate(ctx context.Context, id int64) (*TemplateRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, payload_json, created_at FROM saved_items
		WHERE kind = ? AND id = ?
	`, string(models.SavedTemplate), id)

	rec, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewDataError("template", id, "not found", errors.ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(sc scanner) (*TemplateRecord, error) {
	var rec TemplateRecord
	var raw string
	if err := sc.Scan(&rec.ID, &rec.Name, &raw, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	var payload struct {
		TemplateName string                 `json:"template_name"`
		Params       map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errors.NewDataError("template", rec.ID, "corrupt payload", err)
	}
	rec.TemplateName = payload.TemplateName
	rec.Params = payload.Params
	if rec.Params == nil {
		rec.Params = map[string]interface{}{}
	}
	return &rec, nil
}
