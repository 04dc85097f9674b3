package database

import (
	"context"
	"database/sql"
	"fmt"

	"pricewatch-telegram-bot/internal/types"
)

// UserStore persists profiles across the pending and confirmed tables, and
// the per-chat registration progress cursor.
type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// IsConfirmed reports whether a chat has an approved profile.
func (s *UserStore) IsConfirmed(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM confirmed_users WHERE chat_id = ?;`, chatID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to check confirmed user: %w", err)
	}
	return true, nil
}

// PutConfirmed writes a profile into the confirmed table.
func (s *UserStore) PutConfirmed(ctx context.Context, profile types.UserProfile) error {
	query := `
	INSERT OR REPLACE INTO confirmed_users (chat_id, name, surname, phone)
	VALUES (?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, profile.ChatID, profile.Name, profile.Surname, profile.Phone)
	if err != nil {
		return fmt.Errorf("failed to insert confirmed user: %w", err)
	}
	return nil
}

// GetPending fetches the pending profile for a chat. Returns ErrNotFound
// when there is none.
func (s *UserStore) GetPending(ctx context.Context, chatID int64) (types.UserProfile, error) {
	query := `SELECT chat_id, name, surname, phone FROM pending_users WHERE chat_id = ?;`

	var profile types.UserProfile
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&profile.ChatID, &profile.Name, &profile.Surname, &profile.Phone)
	if err == sql.ErrNoRows {
		return types.UserProfile{}, ErrNotFound
	} else if err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to get pending user %d: %w", chatID, err)
	}
	return profile, nil
}

// PutPending writes a submitted profile into the pending table.
func (s *UserStore) PutPending(ctx context.Context, profile types.UserProfile) error {
	query := `
	INSERT OR REPLACE INTO pending_users (chat_id, name, surname, phone)
	VALUES (?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, profile.ChatID, profile.Name, profile.Surname, profile.Phone)
	if err != nil {
		return fmt.Errorf("failed to insert pending user: %w", err)
	}
	return nil
}

// DeletePending removes a pending profile. Idempotent.
func (s *UserStore) DeletePending(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_users WHERE chat_id = ?;`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete pending user: %w", err)
	}
	return nil
}

// PendingChatIDs lists pending chats, most recent submission last.
func (s *UserStore) PendingChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id FROM pending_users ORDER BY submitted_at;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetProgress fetches the registration cursor for a chat. Returns
// ErrNotFound when the chat is not mid-registration.
func (s *UserStore) GetProgress(ctx context.Context, chatID int64) (types.RegistrationProgress, error) {
	query := `SELECT chat_id, step, name, surname FROM registration_progress WHERE chat_id = ?;`

	var progress types.RegistrationProgress
	err := s.db.QueryRowContext(ctx, query, chatID).Scan(
		&progress.ChatID, &progress.Step, &progress.Name, &progress.Surname)
	if err == sql.ErrNoRows {
		return types.RegistrationProgress{}, ErrNotFound
	} else if err != nil {
		return types.RegistrationProgress{}, fmt.Errorf("failed to get registration progress %d: %w", chatID, err)
	}
	return progress, nil
}

// PutProgress upserts the registration cursor for a chat.
func (s *UserStore) PutProgress(ctx context.Context, progress types.RegistrationProgress) error {
	query := `
	INSERT OR REPLACE INTO registration_progress (chat_id, step, name, surname)
	VALUES (?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, query, progress.ChatID, progress.Step, progress.Name, progress.Surname)
	if err != nil {
		return fmt.Errorf("failed to save registration progress: %w", err)
	}
	return nil
}

// ClearProgress drops the registration cursor for a chat. Idempotent.
func (s *UserStore) ClearProgress(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM registration_progress WHERE chat_id = ?;`, chatID)
	if err != nil {
		return fmt.Errorf("failed to clear registration progress: %w", err)
	}
	return nil
}
