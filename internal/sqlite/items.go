package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/daybook/pkg/types"
)

// selectItems reads every row and decodes the payloads through types.Item,
// which revives the known date fields. Rows are ordered by position, the index
// the collection was written with, rather than by creation time, so the
// collection comes back exactly as the Key-Value backend returns it.
// created_at only breaks ties.
func selectItems(ctx context.Context, db *sql.DB) (types.ItemCollection, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, type, data FROM items ORDER BY position, created_at")
	if err != nil {
		return types.ItemCollection{}, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		var id, typ, data string
		if err := rows.Scan(&id, &typ, &data); err != nil {
			return types.ItemCollection{}, fmt.Errorf("scanning item: %w", err)
		}
		var it types.Item
		if err := json.Unmarshal([]byte(data), &it); err != nil {
			return types.ItemCollection{}, fmt.Errorf("item %s: %w: %v", id, types.ErrMalformedData, err)
		}
		it.ID = id
		it.Type = typ
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return types.ItemCollection{}, fmt.Errorf("select items: %w", err)
	}

	skip, err := selectMeta(ctx, db, metaSkipHistory)
	if err != nil {
		return types.ItemCollection{}, err
	}
	return types.ItemCollection{Items: items, SkipHistory: skip == "true"}, nil
}

// replaceItems deletes all rows and bulk-inserts items inside tx.
func replaceItems(ctx context.Context, tx *sql.Tx, items types.ItemCollection, now time.Time) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("deleting items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO items (id, type, data, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer stmt.Close()

	fallback := now.UTC().Format(time.RFC3339Nano)
	for i, it := range items.Items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encoding item %s: %w", it.ID, err)
		}
		created := timestamp(it, "createdAt", fallback)
		updated := timestamp(it, "updatedAt", created)
		if _, err := stmt.ExecContext(ctx, it.ID, it.Type, string(data), i, created, updated); err != nil {
			return fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}

	skip := "false"
	if items.SkipHistory {
		skip = "true"
	}
	return upsertMeta(ctx, tx, metaSkipHistory, skip)
}

// timestamp formats the revived date under field, or returns fallback.
func timestamp(it types.Item, field, fallback string) string {
	if t, ok := it.Time(field); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	if s, ok := it.Payload[field].(string); ok && s != "" {
		return s
	}
	return fallback
}

func selectMeta(ctx context.Context, db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading metadata %s: %w", key, err)
	}
	return value, nil
}

func upsertMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing metadata %s: %w", key, err)
	}
	return nil
}
