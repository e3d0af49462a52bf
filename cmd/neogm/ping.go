package neogm

import (
	"fmt"

	"github.com/spf13/cobra"

	ogm "github.com/groc-prog/neo4j-ogm-sub000"
	"github.com/groc-prog/neo4j-ogm-sub000/pkg/config"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify connectivity to the configured backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		client := ogm.New(cfg)
		ctx := cmd.Context()
		if err := client.Connect(ctx); err != nil {
			return err
		}
		defer client.Close(ctx)

		fmt.Printf("connected to %s (%s)\n", cfg.Database.URI, cfg.Database.Provider)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
