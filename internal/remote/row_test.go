// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/innerbook/internal/model"
)

func TestRowFromReportMapsLockWireValues(t *testing.T) {
	r := model.Report{
		ReportID:  "r_1",
		Title:     "发掘自己-2025-08-30 10:00",
		SubTitle:  "个人天赋使用说明书",
		Mode:      model.ModeDiscoverSelf,
		Status:    model.ReportCompleted,
		Lock:      true,
		CreatedAt: time.Now(),
	}

	row := RowFromReport(r)
	require.NotNil(t, row.Lock)
	assert.Equal(t, 1, *row.Lock, "locked reports use wire value 1")
	assert.Equal(t, int(model.ReportCompleted), row.Status)
	assert.Equal(t, SchemaVersion, row.SchemaVersion)

	r.Lock = false
	row = RowFromReport(r)
	require.NotNil(t, row.Lock)
	assert.Equal(t, 0, *row.Lock, "unlocked reports use wire value 0")
}

func TestRowCarriesTranscript(t *testing.T) {
	r := model.Report{
		ReportID: "r_2",
		Mode:     model.ModeDiscoverSelf,
		Status:   model.ReportCompleted,
		Messages: []model.Message{
			{ID: 1, Role: model.RoleUser, Content: "你好", Status: model.StatusSuccess},
			{ID: 2, Role: model.RoleAssistant, Content: "你好！", Status: model.StatusSuccess},
		},
	}

	row := RowFromReport(r)
	require.NotEmpty(t, row.MessagesJSON)

	detail := detailFromRow(row)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "你好", detail.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, detail.Messages[1].Role)
}

func TestDetailDerivesFlags(t *testing.T) {
	locked := 1
	row := ReportRow{
		ReportID: "r_3",
		Mode:     string(model.ModeUnderstandOthers),
		Status:   int(model.ReportCompleted),
		Lock:     &locked,
	}
	detail := detailFromRow(row)
	assert.True(t, detail.IsLocked)
	assert.True(t, detail.IsCompleted)
	assert.Equal(t, model.ModeUnderstandOthers, detail.Mode)
}

func TestDetailTreatsMissingLockAsLocked(t *testing.T) {
	row := ReportRow{
		ReportID: "r_3b",
		Status:   int(model.ReportCompleted),
	}
	assert.True(t, detailFromRow(row).IsLocked, "a row without a lock value stays behind the gate")

	unlocked := 0
	row.Lock = &unlocked
	assert.False(t, detailFromRow(row).IsLocked, "only an explicit 0 opens the gate")
}

func TestDetailToleratesCorruptTranscript(t *testing.T) {
	row := ReportRow{
		ReportID:     "r_4",
		Status:       int(model.ReportCompleted),
		MessagesJSON: "{not json",
	}
	detail := detailFromRow(row)
	assert.Empty(t, detail.Messages, "unreadable transcripts degrade to empty history")
	assert.True(t, detail.IsCompleted, "the rest of the row still reads")
}
