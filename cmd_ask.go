package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itish2003/assistant/config"
	"github.com/itish2003/assistant/logging"
	"github.com/itish2003/assistant/models"
)

func askCMD() *cobra.Command {
	var session string
	ask := &cobra.Command{
		Use:   "ask <query>",
		Short: "Answer one query and print the response as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			// The persisted index is the only way a one-shot process can see a document.
			cfg.Index.LoadOnStart = true
			logging.Setup(cfg.Log)

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.assistant.Ask(cmd.Context(), models.Query{
				Text:       strings.Join(args, " "),
				SessionID:  session,
				ReceivedAt: time.Now(),
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	ask.Flags().StringVar(&session, "session", "", "conversation session id")
	return ask
}
