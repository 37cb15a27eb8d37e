package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/itish2003/assistant/config"
	"github.com/itish2003/assistant/logging"
)

func ingestCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Replace the persisted index with the content of one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.assistant.Ingest(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d chunks, generation %d)\n", res.Message, res.Chunks, res.Generation)
			return nil
		},
	}
}
