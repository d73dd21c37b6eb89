package main

import (
	"context"
	"fmt"

	"github.com/celerix-dev/certify-one/internal/config"
	"github.com/celerix-dev/certify-one/internal/engine"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "migrate --from <backend> --to <backend>",
		Short: "Copy every slot from one storage backend to another",
		Long: `Copy every slot from one storage backend to another. Both backends take their
locations from the storage section of the config (data_dir, sqlite_path,
redis_addr). Sealed slots are copied as ciphertext.

Example:
  certify-stored migrate --from file --to sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from == to {
				return errors.Errorf("source and destination are both %q", from)
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			n, err := migrate(cmd.Context(), cfg.Storage, from, to)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrated %d slots from %s to %s\n", n, from, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", config.BackendFile, "source backend: file|sqlite|redis")
	cmd.Flags().StringVar(&to, "to", config.BackendSQLite, "destination backend: file|sqlite|redis")
	return cmd
}

func migrate(ctx context.Context, storage config.StorageConfig, from, to string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	srcCfg, dstCfg := storage, storage
	srcCfg.Backend, dstCfg.Backend = from, to

	src, err := engine.OpenSlots(ctx, srcCfg)
	if err != nil {
		return 0, errors.Wrapf(err, "open source %s", from)
	}
	defer src.Close()

	dst, err := engine.OpenSlots(ctx, dstCfg)
	if err != nil {
		return 0, errors.Wrapf(err, "open destination %s", to)
	}
	defer dst.Close()

	return engine.MigrateSlots(ctx, src, dst)
}
