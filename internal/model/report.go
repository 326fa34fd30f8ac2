// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// REPORT STATUS
// =============================================================================

// ReportStatus tracks the lifecycle state of a report.
//
// The numeric values match the remote table's status column and must not
// be renumbered.
type ReportStatus int

const (
	// ReportCompleted means the model has finished emitting the report.
	ReportCompleted ReportStatus = 1

	// ReportPending means the dialogue is still ongoing.
	ReportPending ReportStatus = 2
)

// String returns a human-readable status name.
func (s ReportStatus) String() string {
	switch s {
	case ReportCompleted:
		return "completed"
	case ReportPending:
		return "pending"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// =============================================================================
// REPORT TYPE
// =============================================================================

// Report is the generated document produced at the end of a questionnaire.
//
// ReportID is client-generated and is the join key between the local and
// remote representations; it is never regenerated after creation.
type Report struct {
	ReportID string `json:"reportId"`
	Title    string `json:"title"`
	SubTitle string `json:"subTitle"`
	Content  string `json:"content"`

	Messages []Message `json:"messages"`

	Mode   Mode         `json:"mode"`
	Status ReportStatus `json:"status"`

	// Lock gates visibility of Content until an invite code is redeemed.
	Lock       bool   `json:"lock"`
	InviteCode string `json:"inviteCode,omitempty"`

	// Synced is true once the report is mirrored to remote storage and
	// safe to evict locally.
	Synced bool `json:"synced"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewReportID generates a globally unique report identifier. The
// high-resolution timestamp keeps IDs roughly ordered; the random suffix
// prevents collisions across offline clients.
func NewReportID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("report_%d_%s", time.Now().UnixNano(), suffix)
}

// GenerateTitle builds the human label for a report from its mode and
// creation time, e.g. "发掘自己-2025-05-18 10:15".
func GenerateTitle(mode Mode, createdAt time.Time) string {
	return mode.Label() + "-" + createdAt.Format("2006-01-02 15:04")
}

// NewPendingReport creates a fresh pending report for the given mode.
func NewPendingReport(mode Mode) Report {
	now := time.Now()
	return Report{
		ReportID:  NewReportID(),
		Title:     GenerateTitle(mode, now),
		Mode:      mode,
		Status:    ReportPending,
		Lock:      true,
		CreatedAt: now,
	}
}

// IsCompleted reports whether the report reached the completed state.
func (r *Report) IsCompleted() bool {
	return r.Status == ReportCompleted
}

// IsPending reports whether the dialogue is still ongoing.
func (r *Report) IsPending() bool {
	return r.Status == ReportPending
}
