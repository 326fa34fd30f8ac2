// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package remote

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// VerifyResult carries the outcome of an invite-code submission back
// to the unlock dialog.
type VerifyResult struct {
	Success bool
	Message string
}

// Verifier redeems invite codes against the store. It is the only
// unlock authority: a successful verification is the sole path that
// clears a report's lock.
type Verifier struct {
	store *Store
}

// SeedCode registers a new redeemable invite code.
// SECURITY: Only the bcrypt hash is persisted; the plaintext code never
// touches the database.
func (v *Verifier) SeedCode(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("invite code must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("remote: hash invite code: %w", err)
	}

	row := InviteCodeRow{CodeHash: string(hash)}
	if err := v.store.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("remote: seed invite code: %w", err)
	}
	return nil
}

// Verify redeems the submitted code for the given report. On success
// the report's lock is cleared server-side and the code is marked
// consumed. An invalid code mutates nothing.
func (v *Verifier) Verify(ctx context.Context, reportID, code string) (VerifyResult, error) {
	if reportID == "" {
		return VerifyResult{}, fmt.Errorf("report id must not be empty")
	}
	if code == "" {
		return VerifyResult{Success: false, Message: "邀请码不能为空"}, nil
	}

	var rows []InviteCodeRow
	err := v.store.db.WithContext(ctx).Where("used_by = ?", "").Find(&rows).Error
	if err != nil {
		return VerifyResult{}, fmt.Errorf("remote: load invite codes: %w", err)
	}

	for _, row := range rows {
		if bcrypt.CompareHashAndPassword([]byte(row.CodeHash), []byte(code)) != nil {
			continue
		}

		// Consume the code before clearing the lock so a crash between
		// the two never leaves a reusable code on an unlocked report.
		result := v.store.db.WithContext(ctx).Model(&InviteCodeRow{}).
			Where("id = ? AND used_by = ?", row.ID, "").
			Update("used_by", reportID)
		if result.Error != nil {
			return VerifyResult{}, fmt.Errorf("remote: consume invite code: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Raced with another redemption of the same code.
			continue
		}

		if err := v.store.unlock(ctx, reportID, code); err != nil {
			return VerifyResult{}, err
		}
		return VerifyResult{Success: true, Message: "解锁成功"}, nil
	}

	return VerifyResult{Success: false, Message: "邀请码无效"}, nil
}
