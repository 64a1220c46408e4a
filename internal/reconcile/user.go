// This file implements the User Reconciler (spec §4.6), grounded on
// original_source/timecamp_sync_users.py::_sync_users/_update_existing_user/
// _create_new_user/_finalize_new_users.
package reconcile

import (
	"context"
	"strings"

	"github.com/go-logr/logr"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/target"
)

const (
	settingAdditionalEmail = "additional_email"
	settingExternalID      = "external_id"
	settingAddedManually   = "added_manually"
	settingDisabledUser    = "disabled_user"
)

var roleToID = map[target.Role]int{
	target.RoleAdministrator: 1,
	target.RoleSupervisor:    2,
	target.RoleUser:          3,
	target.RoleGuest:         5,
}

// UserResult is the outcome of the User Reconciler: the set of target
// user_ids it touched (matched or newly created), consumed by the
// Deactivation Engine to avoid double-processing.
type UserResult struct {
	ProcessedUserIDs map[int]struct{}
}

// ReconcileUsers matches every TargetUser against the bulk-prefetched target
// state, diffs per field, and mutates the minimal set.
func ReconcileUsers(ctx context.Context, c *client.Client, doc target.Document, pathToID map[string]int, cfg *config.Profile, log logr.Logger, dryRun bool) (*UserResult, error) {
	existing, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(existing))
	for _, u := range existing {
		ids = append(ids, u.UserID)
	}
	bulk, err := c.FetchBulkSettings(ctx, ids)
	if err != nil {
		return nil, err
	}

	roles, err := c.GetUserRoles(ctx)
	if err != nil {
		return nil, err
	}

	byEmail := map[string]*client.User{}
	byAdditionalEmail := map[string]*client.User{}
	for i := range existing {
		u := &existing[i]
		byEmail[strings.ToLower(u.Email)] = u
		if alt, ok := bulk.AdditionalEmail[u.UserID]; ok && alt != "" {
			byAdditionalEmail[strings.ToLower(alt)] = u
		}
	}

	processed := map[int]struct{}{}
	var newlyCreated []target.User

	for _, tu := range doc {
		existingUser := byEmail[tu.Email]
		if existingUser == nil {
			existingUser = byAdditionalEmail[tu.Email]
		}

		if existingUser == nil {
			if tu.Status != target.StatusActive {
				continue
			}
			if cfg.DisableNewUsers {
				continue
			}
			created, err := createUser(ctx, c, tu, pathToID, log, dryRun)
			if err != nil {
				log.Error(err, "failed to create user", "email", tu.Email)
				continue
			}
			if created != nil {
				processed[created.UserID] = struct{}{}
			}
			newlyCreated = append(newlyCreated, tu)
			continue
		}

		if tu.Status != target.StatusActive {
			// Leave this user unprocessed so the Deactivation Engine picks
			// it up: its email won't be in the active set it builds, and
			// skipping here (rather than marking processed) is what lets
			// that engine apply the ignored/manual/already-disabled rules
			// uniformly for both absent and inactive source users.
			continue
		}

		if _, ignored := cfg.IgnoredUserIDs[existingUser.UserID]; ignored {
			processed[existingUser.UserID] = struct{}{}
			continue
		}
		if cfg.DisableManualUserUpdates && bulk.AddedManually[existingUser.UserID] == "1" {
			processed[existingUser.UserID] = struct{}{}
			continue
		}

		if err := updateExistingUser(ctx, c, tu, existingUser, bulk, roles, pathToID, cfg, log, dryRun); err != nil {
			log.Error(err, "failed to update user", "user_id", existingUser.UserID, "email", tu.Email)
		}
		processed[existingUser.UserID] = struct{}{}
	}

	if len(newlyCreated) > 0 && !dryRun {
		if err := finalizeNewUsers(ctx, c, newlyCreated, cfg, log); err != nil {
			log.Error(err, "failed to finalize newly created users")
		}
	}

	return &UserResult{ProcessedUserIDs: processed}, nil
}

func createUser(ctx context.Context, c *client.Client, tu target.User, pathToID map[string]int, log logr.Logger, dryRun bool) (*client.User, error) {
	groupID, ok := pathToID[tu.GroupsBreadcrumb]
	if !ok {
		groupID = pathToID[""]
	}

	if dryRun {
		log.Info("[DRY RUN] Would create user", "email", tu.Email, "group_id", groupID)
		return nil, nil
	}

	log.Info("creating user", "email", tu.Email, "group_id", groupID)
	return c.AddUser(ctx, tu.Email, tu.UserName, groupID)
}

func updateExistingUser(ctx context.Context, c *client.Client, tu target.User, existingUser *client.User, bulk *client.BulkSettings, roles map[int][]client.RolePick, pathToID map[string]int, cfg *config.Profile, log logr.Logger, dryRun bool) error {
	mutated := false
	fields := client.UpdateUserFields{}

	if existingUser.DisplayName != tu.UserName {
		name := tu.UserName
		fields.DisplayName = &name
		mutated = true
	}

	desiredGroupID, hasGroup := pathToID[tu.GroupsBreadcrumb]
	if !hasGroup {
		desiredGroupID = pathToID[""]
	}
	if !cfg.DisableGroupUpdates && desiredGroupID != existingUser.GroupID {
		gid := desiredGroupID
		fields.GroupID = &gid
		mutated = true
	}

	if !cfg.DisableRoleUpdates {
		desiredRoleID := roleToID[tu.Role]
		currentRoleID := currentRoleIn(roles[existingUser.UserID], existingUser.GroupID)
		if currentRoleID != desiredRoleID {
			rid := desiredRoleID
			fields.RoleID = &rid
			mutated = true
		}
	}

	if mutated {
		if dryRun {
			log.Info("[DRY RUN] Would update user", "user_id", existingUser.UserID, "email", tu.Email)
		} else if err := c.UpdateUser(ctx, existingUser.UserID, fields); err != nil {
			return err
		}
	}

	// tu.Status is always active here: ReconcileUsers skips inactive matches
	// before calling this function, leaving them to the Deactivation Engine.
	if bulk.DisabledUser[existingUser.UserID] == "1" {
		if err := applySetting(ctx, c, existingUser.UserID, settingDisabledUser, "0", log, dryRun); err != nil {
			return err
		}
		mutated = true
	}

	if !cfg.DisableAdditionalEmailSync && tu.RealEmail != "" && tu.RealEmail != tu.Email {
		current := bulk.AdditionalEmail[existingUser.UserID]
		if current != tu.RealEmail {
			if err := applySetting(ctx, c, existingUser.UserID, settingAdditionalEmail, tu.RealEmail, log, dryRun); err != nil {
				return err
			}
			mutated = true
		}
	}

	if !cfg.DisableExternalIDSync && tu.ExternalID != "" {
		current := bulk.ExternalID[existingUser.UserID]
		if current != tu.ExternalID {
			if err := applySetting(ctx, c, existingUser.UserID, settingExternalID, tu.ExternalID, log, dryRun); err != nil {
				return err
			}
			mutated = true
		}
	}

	if mutated && bulk.AddedManually[existingUser.UserID] != "0" {
		if err := applySetting(ctx, c, existingUser.UserID, settingAddedManually, "0", log, dryRun); err != nil {
			return err
		}
	}

	return nil
}

func currentRoleIn(picks []client.RolePick, groupID int) int {
	for _, p := range picks {
		if p.GroupID == groupID {
			return p.RoleID
		}
	}
	return roleToID[target.RoleUser]
}

func applySetting(ctx context.Context, c *client.Client, userID int, name, value string, log logr.Logger, dryRun bool) error {
	if dryRun {
		log.Info("[DRY RUN] Would set user setting", "user_id", userID, "name", name, "value", value)
		return nil
	}
	log.Info("setting user setting", "user_id", userID, "name", name, "value", value)
	return c.UpdateUserSetting(ctx, userID, name, value)
}

func finalizeNewUsers(ctx context.Context, c *client.Client, created []target.User, cfg *config.Profile, log logr.Logger) error {
	existing, err := c.ListUsers(ctx)
	if err != nil {
		return err
	}
	byEmail := map[string]*client.User{}
	for i := range existing {
		byEmail[strings.ToLower(existing[i].Email)] = &existing[i]
	}

	for _, tu := range created {
		u, ok := byEmail[tu.Email]
		if !ok {
			log.Info("could not locate newly created user during finalisation", "email", tu.Email)
			continue
		}

		if tu.Role != target.RoleUser {
			rid := roleToID[tu.Role]
			if err := c.UpdateUser(ctx, u.UserID, client.UpdateUserFields{RoleID: &rid}); err != nil {
				log.Error(err, "failed to set role on new user", "user_id", u.UserID)
			}
		}
		if tu.RealEmail != "" && tu.RealEmail != tu.Email {
			if err := c.SetAdditionalEmail(ctx, u.UserID, tu.RealEmail); err != nil {
				log.Error(err, "failed to set additional_email on new user", "user_id", u.UserID)
			}
		}
		if tu.ExternalID != "" && !cfg.DisableExternalIDSync {
			if err := c.UpdateUserSetting(ctx, u.UserID, settingExternalID, tu.ExternalID); err != nil {
				log.Error(err, "failed to set external_id on new user", "user_id", u.UserID)
			}
		}
		if err := c.UpdateUserSetting(ctx, u.UserID, settingAddedManually, "0"); err != nil {
			log.Error(err, "failed to clear added_manually on new user", "user_id", u.UserID)
		}
	}
	return nil
}
