// homereel: a random home movie channel. Point it at a folder of videos
// and it plays a shuffled stream of random clips from them, endlessly.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"homereel/internal/backend/vlc"
	"homereel/internal/config"
	"homereel/internal/events"
	"homereel/internal/library"
	"homereel/internal/logging"
	"homereel/internal/scheduler"
	"homereel/internal/status"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "homereel",
		Short: "homereel — shuffled random-clip playback of a local video folder",
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd starts the channel: scan the library, bring up the player
// backend, and keep the scheduler fed until a signal arrives.
func runCmd() *cobra.Command {
	var (
		configPath string
		folder     string
		minSec     int
		maxSec     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if folder != "" {
				cfg.LibraryRoot = folder
			}
			if minSec > 0 {
				cfg.Segment.MinSeconds = minSec
			}
			if maxSec > 0 {
				cfg.Segment.MaxSeconds = maxSec
			}
			if cfg.LibraryRoot == "" {
				return fmt.Errorf("no library folder configured: set library_root or pass --folder")
			}

			logger, closeLogs, err := logging.Setup(cfg.Log.Level, cfg.Log.Dir)
			if err != nil {
				return err
			}
			defer closeLogs()

			logger.Info().Str("version", version).Str("built", buildTime).Msg("homereel starting")

			files, err := library.Scan(cfg.LibraryRoot)
			if err != nil {
				return err
			}
			logger.Info().Int("files", len(files)).Str("folder", cfg.LibraryRoot).Msg("library scanned")

			engine, err := vlc.New(logger, vlc.Options{
				Fullscreen: cfg.Fullscreen(),
				Volume:     cfg.Player.Volume,
				Mute:       cfg.Player.Mute,
			})
			if err != nil {
				return fmt.Errorf("player init: %w", err)
			}
			defer engine.Release()

			bus := events.NewBus()
			sched := scheduler.New(engine, bus, logger, scheduler.Options{})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("scheduler stopped")
				}
			}()

			sched.ConfigureSession(files, cfg.Segment.MinSeconds, cfg.Segment.MaxSeconds, cfg.Loop())
			sched.Start()

			go logChannelEvents(logger, bus)

			// Reconfigure when files appear or disappear under the library root.
			watcher, err := library.NewWatcher(cfg.LibraryRoot, logger, func(files []string) {
				logger.Info().Int("files", len(files)).Msg("library changed, reshuffling")
				sched.ConfigureSession(files, cfg.Segment.MinSeconds, cfg.Segment.MaxSeconds, cfg.Loop())
				sched.Start()
			})
			if err != nil {
				logger.Warn().Err(err).Msg("library watcher unavailable")
			} else {
				go func() {
					if err := watcher.Start(); err != nil {
						logger.Warn().Err(err).Msg("library watcher stopped")
					}
				}()
				defer watcher.Stop()
			}

			var statusSrv *status.Server
			if cfg.Status.Bind != "" {
				statusSrv = status.NewServer(logger, cfg.Status.Bind, sched)
				go statusSrv.Watch(bus.Subscribe(events.TypePlaybackError))
				go func() {
					if err := statusSrv.Start(); err != nil {
						logger.Warn().Err(err).Msg("status server stopped")
					}
				}()
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			logger.Info().Str("signal", sig.String()).Msg("shutting down")

			sched.Stop()
			if statusSrv != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer shutdownCancel()
				_ = statusSrv.Shutdown(shutdownCtx)
			}
			cancel()

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a config.toml (default: ~/.config/homereel/config.toml)")
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Video folder to play from (overrides library_root)")
	cmd.Flags().IntVar(&minSec, "min-seconds", 0, "Minimum clip length in seconds (overrides config)")
	cmd.Flags().IntVar(&maxSec, "max-seconds", 0, "Maximum clip length in seconds (overrides config)")

	return cmd
}

// scanCmd lists what the channel would play, without starting playback.
func scanCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List video files found under a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			if folder == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				folder = cfg.LibraryRoot
			}
			if folder == "" {
				return fmt.Errorf("no folder given: pass --folder or set library_root")
			}

			files, err := library.Scan(folder)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f)
			}
			fmt.Printf("%d video file(s)\n", len(files))
			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Folder to scan")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("homereel %s\nBuilt: %s\n", version, buildTime)
		},
	}
}

// logChannelEvents mirrors scheduler notifications into the log.
func logChannelEvents(logger zerolog.Logger, bus *events.Bus) {
	started := bus.Subscribe(events.TypeSegmentStarted)
	errored := bus.Subscribe(events.TypePlaybackError)
	empty := bus.Subscribe(events.TypeQueueEmpty)

	for {
		select {
		case ev, ok := <-started:
			if !ok {
				return
			}
			if info, ok := ev.Payload.(scheduler.SegmentInfo); ok {
				logger.Info().
					Str("file", info.Path).
					Dur("start", info.Start).
					Dur("length", info.Duration).
					Int("index", info.PlaylistIndex).
					Int("total", info.PlaylistTotal).
					Msg("segment started")
			}
		case ev, ok := <-errored:
			if !ok {
				return
			}
			msg, _ := ev.Payload.(string)
			logger.Warn().Str("reason", msg).Msg("playback error, skipping")
		case _, ok := <-empty:
			if !ok {
				return
			}
			logger.Info().Msg("queue exhausted")
		}
	}
}
