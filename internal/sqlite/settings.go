package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// selectSettings reads the key/value rows; missing keys take defaults.
func selectSettings(ctx context.Context, db *sql.DB) (types.Settings, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return types.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return types.Settings{}, fmt.Errorf("scanning setting: %w", err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return types.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	return types.SettingsFromMap(m), nil
}

// upsertSettings writes every settings key inside tx.
func upsertSettings(ctx context.Context, tx *sql.Tx, s types.Settings) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("preparing settings upsert: %w", err)
	}
	defer stmt.Close()

	for k, v := range s.Map() {
		if _, err := stmt.ExecContext(ctx, k, v); err != nil {
			return fmt.Errorf("upserting setting %s: %w", k, err)
		}
	}
	return nil
}
