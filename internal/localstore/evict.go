// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package localstore

import (
	"sort"

	"github.com/jeranaias/innerbook/internal/model"
)

// Evict applies the local capacity rules to a report collection and
// returns the surviving entries:
//
//   - at most MaxCompleted completed reports, most recent by creation
//     time;
//   - at most one pending report per mode, most recent by creation time.
//
// Entries of different modes or different status classes never compete
// for the same slot. The relative order of survivors is preserved.
func Evict(reports []model.Report) []model.Report {
	// Completed reports, newest first.
	var completed []model.Report
	for _, r := range reports {
		if r.IsCompleted() {
			completed = append(completed, r)
		}
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].CreatedAt.After(completed[j].CreatedAt)
	})

	keepCompleted := make(map[string]bool)
	for i, r := range completed {
		if i >= MaxCompleted {
			break
		}
		keepCompleted[r.ReportID] = true
	}

	// Newest pending per mode.
	newestPending := make(map[model.Mode]model.Report)
	for _, r := range reports {
		if !r.IsPending() {
			continue
		}
		cur, ok := newestPending[r.Mode]
		if !ok || r.CreatedAt.After(cur.CreatedAt) {
			newestPending[r.Mode] = r
		}
	}

	out := reports[:0]
	for _, r := range reports {
		switch {
		case r.IsCompleted():
			if keepCompleted[r.ReportID] {
				out = append(out, r)
			}
		case r.IsPending():
			if newestPending[r.Mode].ReportID == r.ReportID {
				out = append(out, r)
			}
		default:
			out = append(out, r)
		}
	}
	return out
}
