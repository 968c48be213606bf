package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "index <book-id> <config-id>",
		Short: "Run one index pipeline in the foreground and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, *cfgPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.indexing.Run(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("index %s/%s: %w", args[0], args[1], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
