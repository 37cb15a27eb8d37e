package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Intent-routing assistant over chat, web search and uploaded documents",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config and .)")

	root.AddCommand(serveCMD(), ingestCMD(), askCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

var cfgPath string
