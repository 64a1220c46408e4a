// This file implements the Deactivation Engine (spec §4.7), grounded on
// original_source/timecamp_sync_users.py::_handle_deactivations. It runs
// strictly after the User Reconciler (spec §5) so that a user matched by
// secondary email there is never deactivated here.
package reconcile

import (
	"context"
	"strings"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/target"
)

// DeactivateMissing disables every target user not already processed by the
// User Reconciler when neither its primary email nor its own additional_email
// setting is in the active set built from doc (the emails and real emails of
// active TargetUsers).
func DeactivateMissing(ctx context.Context, c *client.Client, doc target.Document, processed map[int]struct{}, cfg *config.Profile, log logr.Logger, dryRun bool) error {
	if cfg.DisableUserDeactivation {
		return nil
	}

	existing, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}

	ids := make([]int, 0, len(existing))
	for _, u := range existing {
		ids = append(ids, u.UserID)
	}
	bulk, err := c.FetchBulkSettings(ctx, ids)
	if err != nil {
		return err
	}

	activeEmails := map[string]struct{}{}
	for _, tu := range doc {
		if tu.Status == target.StatusActive {
			activeEmails[tu.Email] = struct{}{}
			if tu.RealEmail != "" {
				activeEmails[tu.RealEmail] = struct{}{}
			}
		}
	}

	for _, u := range existing {
		if _, done := processed[u.UserID]; done {
			continue
		}
		if _, ignored := cfg.IgnoredUserIDs[u.UserID]; ignored {
			continue
		}
		if cfg.DisableManualUserUpdates && bulk.AddedManually[u.UserID] == "1" {
			continue
		}
		if bulk.DisabledUser[u.UserID] == "1" {
			continue
		}

		_, activeByPrimary := activeEmails[strings.ToLower(u.Email)]
		additional := bulk.AdditionalEmail[u.UserID]
		_, activeByAdditional := activeEmails[strings.ToLower(additional)]
		if activeByPrimary || activeByAdditional {
			continue
		}

		if dryRun {
			log.Info("[DRY RUN] Would deactivate user", "user_id", u.UserID, "email", u.Email)
			continue
		}

		log.Info("deactivating user", "user_id", u.UserID, "email", u.Email)
		if err := c.UpdateUserSetting(ctx, u.UserID, settingDisabledUser, "1"); err != nil {
			log.Error(err, "failed to deactivate user", "user_id", u.UserID)
			continue
		}

		if cfg.DisabledUsersGroupID != 0 {
			gid := cfg.DisabledUsersGroupID
			if err := c.UpdateUser(ctx, u.UserID, client.UpdateUserFields{GroupID: &gid}); err != nil {
				log.Error(err, "failed to move deactivated user", "user_id", u.UserID)
			}
		}
	}

	return nil
}
