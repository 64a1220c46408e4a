// This file implements the `remove-empty-groups` subcommand: the optional
// Empty-Group Sweeper (spec §4.8).
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/people-sync/internal/client"
	"github.com/telekom/people-sync/internal/reconcile"
)

var removeEmptyGroupsCmd = &cobra.Command{
	Use:   "remove-empty-groups",
	Short: "Delete leaf groups under root_group_id with no active users and no children",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, err := client.New(client.Config{Domain: cfg.Domain, APIKey: cfg.APIKey, SSLVerify: cfg.SSLVerify})
		if err != nil {
			return fmt.Errorf("initialising target client: %w", err)
		}
		c.SetLogger(log)

		if err := reconcile.SweepEmptyGroups(ctx, c, cfg, log, dryRun); err != nil {
			return fmt.Errorf("sweeping empty groups: %w", err)
		}
		log.Info("remove-empty-groups complete")
		return nil
	},
}
