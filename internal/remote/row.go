// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/innerbook/internal/model"
)

// SchemaVersion is the current report row schema version. Bump on any
// column change so stored rows remain identifiable.
const SchemaVersion = 1

// =============================================================================
// ROW DTO
// =============================================================================

// ReportRow is the wire/storage shape of a report. It is deliberately
// decoupled from model.Report: the table carries integer flags and
// serialized messages, and its schema is versioned independently of the
// internal entity.
type ReportRow struct {
	ID        uint   `gorm:"primaryKey"`
	ReportID  string `gorm:"uniqueIndex;size:64"`
	Title     string
	SubTitle  string
	Content   string
	Mode   string `gorm:"size:32;index"`
	Status int
	// Lock uses the wire encoding: 1 = locked, 0 = unlocked. A NULL
	// lock (a row written by an older or foreign client) reads as
	// locked; only an explicit 0 opens the gate.
	Lock       *int
	InviteCode string `gorm:"size:64"`

	// MessagesJSON is the serialized conversation transcript.
	MessagesJSON string

	// Identity fields, set only when the writer was authenticated at the
	// moment of the write.
	Username string `gorm:"size:64;index"`
	UserID   string `gorm:"size:64"`

	SchemaVersion int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName fixes the table name independent of gorm pluralization.
func (ReportRow) TableName() string {
	return "reports"
}

// InviteCodeRow stores a redeemable invite code. Only the bcrypt hash
// of the code is persisted.
type InviteCodeRow struct {
	ID       uint   `gorm:"primaryKey"`
	CodeHash string `gorm:"size:128"`

	// UsedBy records the report that consumed this code; empty while the
	// code is still redeemable.
	UsedBy string `gorm:"size:64;index"`

	CreatedAt time.Time
}

// TableName fixes the table name independent of gorm pluralization.
func (InviteCodeRow) TableName() string {
	return "invite_codes"
}

// =============================================================================
// MAPPING
// =============================================================================

// RowFromReport converts the internal entity into the versioned row
// shape. Identity fields are left empty; the caller attaches them only
// when authenticated.
func RowFromReport(r model.Report) ReportRow {
	lock := 0
	if r.Lock {
		lock = 1
	}

	messagesJSON := ""
	if len(r.Messages) > 0 {
		if data, err := json.Marshal(r.Messages); err == nil {
			messagesJSON = string(data)
		}
	}

	return ReportRow{
		ReportID:      r.ReportID,
		Title:         r.Title,
		SubTitle:      r.SubTitle,
		Content:       r.Content,
		Mode:          string(r.Mode),
		Status:        int(r.Status),
		Lock:          &lock,
		InviteCode:    r.InviteCode,
		MessagesJSON:  messagesJSON,
		SchemaVersion: SchemaVersion,
		CreatedAt:     r.CreatedAt,
	}
}

// Detail is the normalized read shape handed to callers, with the
// lock/status flags derived into booleans.
type Detail struct {
	ReportID    string
	Title       string
	SubTitle    string
	Content     string
	Mode        model.Mode
	Messages    []model.Message
	IsLocked    bool
	IsCompleted bool
	Username    string
	CreatedAt   time.Time
}

// detailFromRow converts a stored row into the normalized read shape.
func detailFromRow(row ReportRow) Detail {
	var messages []model.Message
	if row.MessagesJSON != "" {
		// Unreadable transcripts degrade to an empty history rather than
		// failing the whole read.
		_ = json.Unmarshal([]byte(row.MessagesJSON), &messages)
	}

	return Detail{
		ReportID:    row.ReportID,
		Title:       row.Title,
		SubTitle:    row.SubTitle,
		Content:     row.Content,
		Mode:        model.Mode(row.Mode),
		Messages:    messages,
		IsLocked:    row.Lock == nil || *row.Lock != 0,
		IsCompleted: row.Status == int(model.ReportCompleted),
		Username:    row.Username,
		CreatedAt:   row.CreatedAt,
	}
}
