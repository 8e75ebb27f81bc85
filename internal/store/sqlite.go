// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	_ "github.com/mattn/go-sqlite3"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ DataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based data store, creating the
// parent directory when needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Named JSON payloads: strategies, portfolios, notes and templates
	CREATE TABLE IF NOT EXISTS saved_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Simulated trade log
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		strategy TEXT NOT NULL,
		max_loss REAL NOT NULL,
		contracts INTEGER NOT NULL DEFAULT 1,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saved_items_kind ON saved_items(kind);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Saved Items Methods
// ============================================================================

func encodePayload(name string, payload map[string]interface{}) (string, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.NewValidationError("payload", name, err.Error())
	}
	if len(raw) > MaxPayloadBytes {
		return "", errors.Wrapf(errors.ErrPayloadTooLarge, "payload for %q exceeds %d bytes", name, MaxPayloadBytes)
	}
	return string(raw), nil
}

func validateItem(name string, kind models.SavedKind) error {
	if name == "" || len(name) > 200 {
		return errors.NewValidationError("name", name, "must be 1..200 characters")
	}
	if !kind.Valid() {
		return errors.NewValidationError("kind", kind, "must be strategy, portfolio, note or template")
	}
	return nil
}

// CreateSavedItem stores a named payload and returns its summary.
func (s *SQLiteStore) CreateSavedItem(ctx context.Context, name string, kind models.SavedKind, payload map[string]interface{}) (*models.SavedItem, error) {
	if kind == "" {
		kind = models.SavedStrategy
	}
	if err := validateItem(name, kind); err != nil {
		return nil, err
	}
	raw, err := encodePayload(name, payload)
	if err != nil {
		return nil, err
	}

	createdAt := models.NowISO()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO saved_items (name, kind, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`, name, string(kind), raw, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read item id: %w", err)
	}

	return &models.SavedItem{ID: id, Name: name, Kind: kind, CreatedAt: createdAt}, nil
}

// ListSavedItems returns item summaries, newest first.
func (s *SQLiteStore) ListSavedItems(ctx context.Context, filter SavedFilter) ([]models.SavedItem, error) {
	limit, err := pageLimit(filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	query := "SELECT id, name, kind, created_at FROM saved_items WHERE 1=1"
	args := []interface{}{}
	if filter.Kind != "" {
		if !filter.Kind.Valid() {
			return nil, errors.NewValidationError("kind", filter.Kind, "must be strategy, portfolio, note or template")
		}
		query += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved items: %w", err)
	}
	defer rows.Close()

	items := []models.SavedItem{}
	for rows.Next() {
		var it models.SavedItem
		var kind string
		if err := rows.Scan(&it.ID, &it.Name, &kind, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved item: %w", err)
		}
		it.Kind = models.SavedKind(kind)
		items = append(items, it)
	}

	return items, rows.Err()
}

func pageLimit(limit, offset int) (int, error) {
	if limit == 0 {
		limit = DefaultListLimit
	}
	if limit < 1 || limit > MaxListLimit {
		return 0, errors.NewValidationError("limit", limit, "limit must be 1..200")
	}
	if offset < 0 {
		return 0, errors.NewValidationError("offset", offset, "offset must be >= 0")
	}
	return limit, nil
}

// GetSavedItem returns one item with its payload.
func (s *SQLiteStore) GetSavedItem(ctx context.Context, id int64) (*models.SavedItem, error) {
	var it models.SavedItem
	var kind, raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, payload_json, created_at FROM saved_items WHERE id = ?
	`, id).Scan(&it.ID, &it.Name, &kind, &raw, &it.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewDataError("saved_item", id, "not found", errors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved item: %w", err)
	}
	it.Kind = models.SavedKind(kind)
	if err := json.Unmarshal([]byte(raw), &it.Payload); err != nil {
		return nil, errors.NewDataError("saved_item", id, "corrupt payload", err)
	}
	return &it, nil
}

// DeleteSavedItem removes one item.
func (s *SQLiteStore) DeleteSavedItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM saved_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete saved item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete saved item: %w", err)
	}
	if n == 0 {
		return errors.NewDataError("saved_item", id, "not found", errors.ErrNotFound)
	}
	return nil
}

// ExportSavedItems returns every item with its payload in id order.
func (s *SQLiteStore) ExportSavedItems(ctx context.Context) (*models.ExportBundle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, payload_json, created_at FROM saved_items ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to export saved items: %w", err)
	}
	defer rows.Close()

	bundle := &models.ExportBundle{Items: []models.SavedItem{}}
	for rows.Next() {
		var it models.SavedItem
		var kind, raw string
		if err := rows.Scan(&it.ID, &it.Name, &kind, &raw, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved item: %w", err)
		}
		it.Kind = models.SavedKind(kind)
		if err := json.Unmarshal([]byte(raw), &it.Payload); err != nil {
			return nil, errors.NewDataError("saved_item", it.ID, "corrupt payload", err)
		}
		bundle.Items = append(bundle.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved items: %w", err)
	}

	bundle.ExportedAt = models.NowISO()
	return bundle, nil
}

// ImportSavedItems inserts items under new ids in one transaction. Any
// invalid item aborts the whole import.
func (s *SQLiteStore) ImportSavedItems(ctx context.Context, items []models.SavedItem) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO saved_items (name, kind, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.Kind == "" {
			it.Kind = models.SavedStrategy
		}
		if err := validateItem(it.Name, it.Kind); err != nil {
			return nil, err
		}
		raw, err := encodePayload(it.Name, it.Payload)
		if err != nil {
			return nil, err
		}
		createdAt := it.CreatedAt
		if createdAt == "" {
			createdAt = models.NowISO()
		}

		res, err := stmt.ExecContext(ctx, it.Name, string(it.Kind), raw, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to import item: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read item id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ids, nil
}

// ClearSavedItems removes every saved item.
func (s *SQLiteStore) ClearSavedItems(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM saved_items"); err != nil {
		return fmt.Errorf("failed to clear saved items: %w", err)
	}
	return nil
}

// ============================================================================
// Trades Methods
// ============================================================================

// LogTrade saves a trade and fills in its id and timestamp.
func (s *SQLiteStore) LogTrade(ctx context.Context, trade *models.Trade) error {
	if trade.Timestamp == "" {
		trade.Timestamp = models.NowISO()
	}
	if trade.Contracts == 0 {
		trade.Contracts = 1
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (symbol, strategy, max_loss, contracts, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, trade.Symbol, trade.Strategy, trade.MaxLoss, trade.Contracts, trade.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to log trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trade id: %w", err)
	}
	trade.ID = id
	return nil
}

// GetTrades retrieves trades, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, symbol, strategy, max_loss, contracts, timestamp FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Strategy != "" {
		query += " AND strategy = ?"
		args = append(args, filter.Strategy)
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxTrades {
		limit = MaxTrades
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	return s.queryTrades(ctx, query, args...)
}

func (s *SQLiteStore) queryTrades(ctx context.Context, query string, args ...interface{}) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Strategy, &t.MaxLoss, &t.Contracts, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// ExportTradesCSV writes the full trade log as CSV in id order.
func (s *SQLiteStore) ExportTradesCSV(ctx context.Context, w io.Writer) error {
	trades, err := s.queryTrades(ctx, "SELECT id, symbol, strategy, max_loss, contracts, timestamp FROM trades ORDER BY id ASC")
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&trades, w); err != nil {
		return fmt.Errorf("failed to write trades csv: %w", err)
	}
	return nil
}
