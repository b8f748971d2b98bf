package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

const preloadFlag = "preload"

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Keep assets hot reloaded until interrupted",
		Long: `Watches a directory (the base path by default) and evicts every cached asset
whose file changes. Preloaded identifiers are loaded again right away.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			cfg.Watch.Enabled = true
			if len(args) == 1 {
				cfg.Watch.Dir = args[0]
			}

			e, err := startEngine(cfg)
			if err != nil {
				return err
			}
			defer e.Shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// callbacks run on job workers and the watcher goroutine
			out := &syncWriter{w: cmd.OutOrStdout()}
			reload := func(src string) {
				err := e.LoadAsync(ctx, src,
					func(v any) { fmt.Fprintf(out, "loaded\t%s\t%s\n", src, describe(v)) },
					func(err error) { fmt.Fprintf(out, "failed\t%s\t%s\n", src, err) },
				)
				if err != nil && ctx.Err() == nil {
					core.LogError("failed to queue '%s': %s", src, err)
				}
			}

			preload, _ := cmd.Flags().GetStringSlice(preloadFlag)
			e.Watcher().OnChange(func(src string, op fsnotify.Op) {
				fmt.Fprintf(out, "changed\t%s\t%s\n", src, op)
				reload(src)
			})
			for _, src := range preload {
				reload(src)
			}

			<-ctx.Done()
			if cmd.Context().Err() == nil {
				core.LogInfo("interrupted, shutting down")
			}
			return nil
		},
	}
	cmd.Flags().StringSlice(preloadFlag, nil, `Identifiers to load on start, they are reloaded whenever their file changes.`)
	return cmd
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
