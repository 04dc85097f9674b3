package database

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch-telegram-bot/internal/types"
)

// AlertStore persists alerts in the alerts table.
type AlertStore struct {
	db *sql.DB
}

func NewAlertStore(db *sql.DB) *AlertStore {
	return &AlertStore{db: db}
}

// Insert saves a new alert.
func (s *AlertStore) Insert(ctx context.Context, alert types.Alert) error {
	query := `
	INSERT INTO alerts (id, chat_id, symbol, target)
	VALUES (?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, alert.ID, alert.ChatID, alert.Symbol, alert.Target)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// Get fetches a single alert by id. Returns ErrNotFound when absent.
func (s *AlertStore) Get(ctx context.Context, id string) (types.Alert, error) {
	query := `SELECT id, chat_id, symbol, target, created_at FROM alerts WHERE id = ?;`

	var alert types.Alert
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&alert.ID, &alert.ChatID, &alert.Symbol, &alert.Target, &alert.CreatedAt)
	if err == sql.ErrNoRows {
		return types.Alert{}, ErrNotFound
	} else if err != nil {
		return types.Alert{}, fmt.Errorf("failed to get alert %s: %w", id, err)
	}
	return alert, nil
}

// Delete removes an alert. Deleting an id that is already gone is not an
// error, so two sweeps racing on the same triggered alert cannot fail here.
func (s *AlertStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM alerts WHERE id = ?;`
	_, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	return nil
}

// ListPage returns one page of alerts ordered by id, starting after the
// given cursor. The returned cursor is empty once the scan is exhausted.
func (s *AlertStore) ListPage(ctx context.Context, cursor string, limit int) ([]types.Alert, string, error) {
	query := `SELECT id, chat_id, symbol, target, created_at FROM alerts WHERE id > ? ORDER BY id LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, query, cursor, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query alerts page: %w", err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var alert types.Alert
		if err := rows.Scan(&alert.ID, &alert.ChatID, &alert.Symbol, &alert.Target, &alert.CreatedAt); err != nil {
			return nil, "", fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read alerts page: %w", err)
	}

	next := ""
	if len(alerts) == limit {
		next = alerts[len(alerts)-1].ID
	}
	return alerts, next, nil
}

// ListByChatID fetches all alerts owned by a chat.
func (s *AlertStore) ListByChatID(ctx context.Context, chatID int64) ([]types.Alert, error) {
	query := `SELECT id, chat_id, symbol, target, created_at FROM alerts WHERE chat_id = ? ORDER BY created_at;`

	rows, err := s.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for chat ID %d: %w", chatID, err)
	}
	defer rows.Close()

	var alerts []types.Alert
	for rows.Next() {
		var alert types.Alert
		if err := rows.Scan(&alert.ID, &alert.ChatID, &alert.Symbol, &alert.Target, &alert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
