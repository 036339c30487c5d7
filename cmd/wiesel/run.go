package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/scriptbridge/internal/injector"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenes headless",
		Long: `Run loads the given scene files and runs the frame loop at the configured
tick rate until interrupted or until --duration elapses.

When a listen address is configured, a websocket endpoint accepts input
events and pushes telemetry.

Examples:
  wiesel run --scene garage.yaml
  wiesel run --scene garage.yaml --listen :8088
  wiesel run --scene garage.yaml --duration 30s --report --profile cpu`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scenes, _ := cmd.Flags().GetStringSlice("scene")
			duration, _ := cmd.Flags().GetDuration("duration")
			profileMode, _ := cmd.Flags().GetString("profile")
			withReport, _ := cmd.Flags().GetBool("report")

			stopProfile, err := startProfile(profileMode)
			if err != nil {
				return err
			}
			defer stopProfile()

			app, cleanup, err := injector.InitializeApp(config)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, path := range scenes {
				if _, err := app.Engine.LoadSceneFile(path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			report := &Report{
				Duration: duration,
				TickRate: config.Loop.TickRate,
			}
			runtime.ReadMemStats(&report.MemStatsStart)
			start := time.Now()

			if err := serve(ctx, app); err != nil {
				return err
			}

			report.TotalTime = time.Since(start)
			report.Telemetry = app.Engine.Telemetry()
			runtime.ReadMemStats(&report.MemStatsEnd)
			app.Logger.Info("stopped",
				zap.Uint64("frames", report.Telemetry.Frame),
				zap.Int64("faults", report.Telemetry.TotalFaults))

			if withReport {
				return report.Generate(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("scene", nil, "Scene file to load (repeatable)")
	cmd.Flags().Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().String("listen", "", "Websocket listen address, overrides the config")
	cmd.Flags().Int("tick-rate", 0, "Frames per second, overrides the config")
	cmd.Flags().Int("max-faults", 0, "Consecutive faults before a script is detached, overrides the config")
	cmd.Flags().String("profile", "", "Write a cpu or mem profile to the working directory")
	cmd.Flags().Bool("report", false, "Print a run report on exit")

	return cmd
}

// serve runs the frame loop and, if configured, the remote endpoint until
// ctx is done or one of them fails.
func serve(ctx context.Context, app *injector.App) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Engine.Run(ctx)
	})
	if addr := app.Config.Remote.Listen; addr != "" {
		g.Go(func() error {
			return app.Remote.ListenAndServe(ctx, addr)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func startProfile(mode string) (func(), error) {
	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
		return p.Stop, nil
	case "mem":
		p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
		return p.Stop, nil
	}
	return nil, fmt.Errorf("unknown profile mode %q (valid: cpu, mem)", mode)
}
