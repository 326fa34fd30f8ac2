// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/jeranaias/innerbook/internal/model"
	"github.com/jeranaias/innerbook/internal/session"
)

// Error variables for remote table failures.
var (
	// ErrNotFound indicates no row exists for the requested report.
	ErrNotFound = errors.New("report not found")

	// ErrUnavailable indicates the remote table could not serve a read.
	ErrUnavailable = errors.New("report content unavailable")
)

// Table is the remote report store consumed by the lifecycle manager
// and the reconciler.
type Table interface {
	// Upsert writes the row, replacing any existing row with the same
	// reportId. Identity is attached from sess when authenticated.
	Upsert(ctx context.Context, report model.Report, sess session.Session, authenticated bool) error

	// Detail fetches the normalized read shape for one report.
	// skipCache forces a fresh read, used right after an unlock.
	Detail(ctx context.Context, reportID string, skipCache bool) (Detail, error)

	// List returns the reports belonging to username, newest first.
	List(ctx context.Context, username string, skipCache bool) ([]Detail, error)
}

// Store is the gorm-backed implementation of Table over SQLite.
type Store struct {
	db *gorm.DB

	detail *detailCache
	list   *listCache

	verifier *Verifier
}

// Open opens (or creates) the report table at the given SQLite path.
func Open(path string, detailTTL, listTTL time.Duration) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("remote: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&ReportRow{}, &InviteCodeRow{}); err != nil {
		return nil, fmt.Errorf("remote: auto-migrate: %w", err)
	}

	s := &Store{
		db:     db,
		detail: newDetailCache(detailTTL),
		list:   newListCache(listTTL),
	}
	s.verifier = &Verifier{store: s}
	return s, nil
}

// Verifier returns the invite-code verifier bound to this store.
func (s *Store) Verifier() *Verifier {
	return s.verifier
}

// =============================================================================
// WRITES
// =============================================================================

// Upsert writes the report row, keyed by reportId. A redundant sync of
// an already-written report updates the existing row instead of
// inserting a duplicate. The lock and inviteCode columns are never
// touched here: unlocking belongs to the verifier alone.
func (s *Store) Upsert(ctx context.Context, report model.Report, sess session.Session, authenticated bool) error {
	row := RowFromReport(report)
	if authenticated {
		row.Username = sess.Username
		row.UserID = sess.UserID
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "sub_title", "content", "mode", "status",
			"messages_json", "username", "user_id", "schema_version", "updated_at",
		}),
	}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("remote: upsert %s: %w", report.ReportID, result.Error)
	}

	s.detail.invalidate(report.ReportID)
	s.list.invalidateAll()
	return nil
}

// unlock clears the lock flag and records the consumed invite code.
// Only the verifier calls this.
func (s *Store) unlock(ctx context.Context, reportID, code string) error {
	result := s.db.WithContext(ctx).Model(&ReportRow{}).
		Where("report_id = ?", reportID).
		Updates(map[string]interface{}{"lock": 0, "invite_code": code})
	if result.Error != nil {
		return fmt.Errorf("remote: unlock %s: %w", reportID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.detail.invalidate(reportID)
	s.list.invalidateAll()
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Detail implements Table. Reads are served from a short-TTL cache;
// skipCache forces a fresh row, used right after an unlock so the
// cleared lock is visible immediately.
func (s *Store) Detail(ctx context.Context, reportID string, skipCache bool) (Detail, error) {
	if !skipCache {
		if d, ok := s.detail.get(reportID); ok {
			return d, nil
		}
	}

	var row ReportRow
	err := s.db.WithContext(ctx).Where("report_id = ?", reportID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Detail{}, fmt.Errorf("%w: %s", ErrNotFound, reportID)
		}
		// Read failures propagate as a typed failure rather than
		// silently returning stale data.
		return Detail{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	d := detailFromRow(row)
	s.detail.put(reportID, d)
	return d, nil
}

// List implements Table, returning the user's reports newest first.
func (s *Store) List(ctx context.Context, username string, skipCache bool) ([]Detail, error) {
	if !skipCache {
		if ds, ok := s.list.get(username); ok {
			return ds, nil
		}
	}

	var rows []ReportRow
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	details := make([]Detail, 0, len(rows))
	for _, row := range rows {
		details = append(details, detailFromRow(row))
	}
	s.list.put(username, details)
	return details, nil
}
