package main

import (
	"clustering-api/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending address cache migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := repository.NewPool(ctx, cfg.DBSource)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

func init() { rootCmd.AddCommand(migrateCmd) }
