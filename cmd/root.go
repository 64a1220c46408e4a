// Package cmd holds the cobra CLI surface, grounded on the teacher's
// cmd/root.go (rootCmd, PersistentPreRun logger bootstrap, PersistentFlags
// for --dry-run/--debug).
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/telekom/people-sync/internal/blob"
	"github.com/telekom/people-sync/internal/config"
	"github.com/telekom/people-sync/internal/logging"
	"github.com/telekom/people-sync/internal/system"
)

var (
	dryRun    bool
	debug     bool
	noFileLog bool

	log logr.Logger
	cfg *config.Profile
)

var rootCmd = &cobra.Command{
	Use:   "people-sync",
	Short: "Reconciles an external people directory into a time-tracking target account",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(logging.Options{Debug: debug, NoFileLog: noFileLog})
		log.Info(system.PrettyInfo())

		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded
		log.Info("loaded configuration", "profile", cfg.String(), "dry_run", dryRun)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compute and log intended mutations without issuing them")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "raise console log verbosity")
	rootCmd.PersistentFlags().BoolVar(&noFileLog, "no-file-log", false, "disable the rotating file log sink")

	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(syncUsersCmd)
	rootCmd.AddCommand(removeEmptyGroupsCmd)
	rootCmd.AddCommand(displayTreeCmd)
}

// Execute runs the CLI; it is the single entrypoint called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func blobStore(ctx context.Context) (blob.Store, error) {
	useS3 := os.Getenv("USE_S3_STORAGE") == "true" || os.Getenv("USE_S3_STORAGE") == "1"
	sel := blob.Selection{
		UseS3:    useS3,
		LocalDir: envOrDefault("LOCAL_STORAGE_DIR", "data"),
		S3: blob.S3Config{
			Endpoint:        os.Getenv("S3_ENDPOINT_URL"),
			Region:          os.Getenv("S3_REGION"),
			Bucket:          os.Getenv("S3_BUCKET_NAME"),
			PathPrefix:      os.Getenv("S3_PATH_PREFIX"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			ForcePathStyle:  os.Getenv("S3_FORCE_PATH_STYLE") != "false",
		},
	}
	return blob.New(ctx, sel)
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
