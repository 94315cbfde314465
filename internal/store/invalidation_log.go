// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// invalidation_log.go records cache invalidation events in the database for
// audit and debugging purposes. Each entry captures which fingerprint was
// invalidated, when, and why (persist/edit/delete).
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// InvalidationLogStore handles cache invalidation log operations.
type InvalidationLogStore struct {
	db *sql.DB
}

// NewInvalidationLogStore creates a new InvalidationLogStore.
func NewInvalidationLogStore(db *sql.DB) *InvalidationLogStore {
	return &InvalidationLogStore{db: db}
}

// Log records a cache invalidation event.
func (s *InvalidationLogStore) Log(fingerprint, reason string) {
	_, err := s.db.Exec(`
		INSERT INTO cache_invalidation_log (fingerprint, reason)
		VALUES ($1, $2)
	`, fingerprint, reason)
	if err != nil {
		// Log but don't fail — cache logging is best-effort.
		slog.Warn("failed to log cache invalidation",
			"fingerprint", fingerprint,
			"reason", reason,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged",
		"fingerprint", fingerprint,
		"reason", reason,
	)
}

// RecentEntries returns the most recent cache invalidation events for
// debugging. Limited to the specified count.
func (s *InvalidationLogStore) RecentEntries(limit int) ([]InvalidationLogEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, fingerprint, reason, created_at
		FROM cache_invalidation_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query invalidation log: %w", err)
	}
	defer rows.Close()

	var entries []InvalidationLogEntry
	for rows.Next() {
		var e InvalidationLogEntry
		if err := rows.Scan(&e.ID, &e.Fingerprint, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invalidation log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InvalidationLogEntry represents a single cache invalidation event.
type InvalidationLogEntry struct {
	ID          int64
	Fingerprint string
	Reason      string
	CreatedAt   string
}
