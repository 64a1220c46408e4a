// This file implements the `prepare` subcommand: Stage A, the Organisation
// Modeller, grounded on
// original_source/prepare_timecamp_json_from_fetch.py::main.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/people-sync/internal/orgmodel"
	"github.com/telekom/people-sync/internal/roster"
	"github.com/telekom/people-sync/internal/target"
	"github.com/telekom/people-sync/internal/transform"
)

var (
	rosterBlobName = "roster.json"
	targetBlobName = "timecamp_users.json"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the canonical Target Document from a raw roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := blobStore(ctx)
		if err != nil {
			return fmt.Errorf("initialising blob store: %w", err)
		}

		raw, err := store.LoadJSON(ctx, rosterBlobName)
		if err != nil {
			return fmt.Errorf("loading roster: %w", err)
		}

		r, err := roster.Load(raw)
		if err != nil {
			return fmt.Errorf("parsing roster: %w", err)
		}
		log.Info("loaded roster", "users", len(r.Users))

		if cfg.Transform != nil {
			objs := make([]map[string]any, len(r.Users))
			for i, u := range r.Users {
				objs[i] = userToMap(u)
			}
			transformed := transform.Apply(cfg.Transform, objs, func(msg string) { log.Info(msg) })
			for i, obj := range transformed {
				r.Users[i] = mapToUser(obj, r.Users[i])
			}
		}

		doc, err := orgmodel.Build(r, cfg, log)
		if err != nil {
			return fmt.Errorf("building target document: %w", err)
		}
		log.Info("built target document", "users", len(doc))

		out, err := target.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshalling target document: %w", err)
		}

		if dryRun {
			log.Info("[DRY RUN] Would save target document", "name", targetBlobName, "bytes", len(out))
			return nil
		}

		if err := store.SaveJSON(ctx, targetBlobName, out); err != nil {
			return fmt.Errorf("saving target document: %w", err)
		}
		log.Info("saved target document", "name", targetBlobName)
		return nil
	},
}
