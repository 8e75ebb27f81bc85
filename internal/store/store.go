// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"io"

	"options-cockpit/internal/models"
)

const (
	// MaxPayloadBytes caps the encoded JSON payload of a saved item.
	MaxPayloadBytes = 200_000
	// DefaultListLimit applies when a filter leaves Limit unset.
	DefaultListLimit = 50
	// MaxListLimit is the largest page of saved items.
	MaxListLimit = 200
	// MaxTrades is the largest page of the trade log.
	MaxTrades = 500
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Saved items
	CreateSavedItem(ctx context.Context, name string, kind models.SavedKind, payload map[string]interface{}) (*models.SavedItem, error)
	ListSavedItems(ctx context.Context, filter SavedFilter) ([]models.SavedItem, error)
	GetSavedItem(ctx context.Context, id int64) (*models.SavedItem, error)
	DeleteSavedItem(ctx context.Context, id int64) error
	ExportSavedItems(ctx context.Context) (*models.ExportBundle, error)
	ImportSavedItems(ctx context.Context, items []models.SavedItem) ([]int64, error)
	ClearSavedItems(ctx context.Context) error

	// Strategy templates
	SaveTemplate(ctx context.Context, name, templateName string, params map[string]interface{}) (*TemplateRecord, error)
	ListTemplates(ctx context.Context, limit, offset int) ([]TemplateRecord, error)
	GetTemplate(ctx context.Context, id int64) (*TemplateRecord, error)

	// Trades
	LogTrade(ctx context.Context, trade *models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	ExportTradesCSV(ctx context.Context, w io.Writer) error

	// Lifecycle
	Close() error
}

// SavedFilter represents filters for listing saved items.
type SavedFilter struct {
	Kind   models.SavedKind
	Limit  int
	Offset int
}

// TradeFilter represents filters for querying trades.
type TradeFilter struct {
	Symbol   string
	Strategy string
	Limit    int
}

// TemplateRecord is a saved template reference: a named set of parameters
// for one of the built-in strategy templates.
type TemplateRecord struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	TemplateName string                 `json:"template_name"`
	Params       map[string]interface{} `json:"params,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}
