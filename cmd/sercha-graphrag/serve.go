package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	var inline bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API; index runs are queued for workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, *cfgPath, !inline)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.newServer(nil).Start(ctx)
		},
	}
	cmd.Flags().BoolVar(&inline, "inline", false, "run index jobs inside the API process instead of queueing them")
	return cmd
}

func newWorkerCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Process queued index runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			w := a.newWorker()
			w.Start(ctx)
			<-ctx.Done()
			a.logger.Info("stopping worker")
			w.Stop()
			return nil
		},
	}
}

func newAllCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the HTTP API and a worker in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := newApp(ctx, *cfgPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			w := a.newWorker()
			g, ctx := errgroup.WithContext(ctx)
			w.Start(ctx)
			g.Go(func() error {
				<-ctx.Done()
				w.Stop()
				return nil
			})
			g.Go(func() error {
				return a.newServer(w).Start(ctx)
			})
			return g.Wait()
		},
	}
}
