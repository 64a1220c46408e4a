// This file implements the `sync-users` subcommand: Stage B, driving the
// Group Reconciler, User Reconciler and Deactivation Engine in the order
// spec §5 mandates.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/reconcile"
	"github.com/telekom/people-sync/internal/target"
)

var syncUsersCmd = &cobra.Command{
	Use:   "sync-users",
	Short: "Reconcile the target account's groups and users against the Target Document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := blobStore(ctx)
		if err != nil {
			return fmt.Errorf("initialising blob store: %w", err)
		}

		raw, err := store.LoadJSON(ctx, targetBlobName)
		if err != nil {
			return fmt.Errorf("loading target document: %w", err)
		}
		doc, err := target.Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("parsing target document: %w", err)
		}
		log.Info("loaded target document", "users", len(doc))

		c, err := client.New(client.Config{Domain: cfg.Domain, APIKey: cfg.APIKey, SSLVerify: cfg.SSLVerify})
		if err != nil {
			return fmt.Errorf("initialising target client: %w", err)
		}
		c.SetLogger(log)

		pathToID, err := reconcile.ReconcileGroups(ctx, c, doc, cfg, log, dryRun)
		if err != nil {
			return fmt.Errorf("reconciling groups: %w", err)
		}

		result, err := reconcile.ReconcileUsers(ctx, c, doc, pathToID, cfg, log, dryRun)
		if err != nil {
			return fmt.Errorf("reconciling users: %w", err)
		}

		if err := reconcile.DeactivateMissing(ctx, c, doc, result.ProcessedUserIDs, cfg, log, dryRun); err != nil {
			return fmt.Errorf("deactivating missing users: %w", err)
		}

		log.Info("sync-users complete")
		return nil
	},
}
