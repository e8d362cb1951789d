package main

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultAddr = "http://localhost:8000"

type options struct {
	addr    string
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "tina-cli",
		Short:         "Terminal client for the Tina insurance assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	addr := os.Getenv("TINA_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", addr, "base URL of the Tina API (env TINA_ADDR)")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print raw JSON responses")

	root.AddCommand(
		newChatCmd(opts),
		newRecommendCmd(opts),
		newHealthCmd(opts),
	)
	return root
}
