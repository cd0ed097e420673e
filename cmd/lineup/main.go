// Package main is the entry point for the lineup CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/lineup/internal/config"
	"github.com/flemzord/lineup/internal/engine"
	"github.com/flemzord/lineup/internal/history"
	_ "github.com/flemzord/lineup/internal/kinds" // built-in step kind registration
	"github.com/flemzord/lineup/internal/manifest"
	"github.com/flemzord/lineup/internal/registry"
	"github.com/flemzord/lineup/internal/schedule"
	"github.com/flemzord/lineup/internal/server"
	"github.com/flemzord/lineup/internal/watch"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lineup",
		Short:         "A constraint-based ordering engine for pipeline manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), resolveCmd(), checkCmd(), serveCmd(), historyCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and registered step kinds",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("lineup %s (commit: %s, built: %s)\n", version, commit, date)
			kinds := registry.All()
			if len(kinds) == 0 {
				fmt.Println("\nNo registered step kinds.")
				return
			}
			fmt.Println("\nRegistered step kinds:")
			for _, k := range kinds {
				fmt.Printf("  %-20s group=%g\n", k.Name, k.Group)
			}
		},
	}
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <manifest>",
		Short: "Resolve a manifest and print the ordered plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := manifest.Validate(m); err != nil {
				return err
			}

			eng := engine.New(stderrLogger(slog.LevelWarn))
			plan, err := eng.Resolve(m)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(plan.Steps)
			}

			fmt.Printf("Resolved %d steps in %s (fingerprint %.12s)\n",
				len(plan.Steps), plan.Duration, plan.Fingerprint())
			for i, step := range plan.Steps {
				fmt.Printf("  %2d. %-20s group=%g\n", i+1, step.Name, step.Group)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the plan as JSON")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <manifest>",
		Short: "Validate a manifest without resolving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			if err := manifest.Validate(m); err != nil {
				return err
			}
			fmt.Printf("Manifest OK (%d steps)\n", len(m.Steps))
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolved plan over HTTP and watch the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logger := stderrLogger(cfg.Level())
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	eng := engine.New(logger)

	var store history.Store
	if cfg.History.Enabled() {
		s, db, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		store = s
	}

	srv := server.New(server.Config{
		Listen:    cfg.Listen,
		AuthToken: cfg.Auth.Token,
	}, eng, store, logger)

	resolveManifest := func(source string) {
		m, err := manifest.Load(cfg.Manifest)
		if err == nil {
			err = manifest.Validate(m)
		}
		if err != nil {
			logger.Error("manifest rejected, keeping previous plan", "error", err)
			return
		}
		plan, err := eng.Resolve(m)
		if err != nil {
			logger.Error("resolve failed, keeping previous plan", "error", err)
			return
		}
		if store != nil {
			if _, err := store.Record(source, plan); err != nil {
				logger.Warn("record resolution", "error", err)
			}
		}
		srv.SetPlan(plan)
		logger.Info("plan updated",
			"steps", len(plan.Steps),
			"fingerprint", fmt.Sprintf("%.12s", plan.Fingerprint()),
			"duration", plan.Duration)
	}

	// The initial resolve must succeed; later ones fall back to the
	// last good plan.
	m, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return err
	}
	if err := manifest.Validate(m); err != nil {
		return err
	}
	plan, err := eng.Resolve(m)
	if err != nil {
		return err
	}
	if store != nil {
		if _, err := store.Record("startup", plan); err != nil {
			logger.Warn("record resolution", "error", err)
		}
	}
	srv.SetPlan(plan)

	if err := srv.Start(); err != nil {
		return err
	}

	pollInterval, err := cfg.Watch.PollDuration()
	if err != nil {
		return err
	}
	watcher := watch.NewWatcher(watch.Config{
		Path:         cfg.Manifest,
		PollInterval: pollInterval,
	})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watcher.Start(ctx)
	go func() {
		for range watcher.Events() {
			logger.Info("manifest changed", "path", cfg.Manifest)
			resolveManifest("watch")
		}
	}()

	var sched *schedule.Scheduler
	if store != nil {
		retention, err := cfg.History.RetentionDuration()
		if err != nil {
			return err
		}
		sched = schedule.NewScheduler(logger)
		job := schedule.NewPruneJob(store, retention, cfg.History.PruneSchedule, logger)
		if err := sched.RegisterJob(job); err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	logger.Info("lineup started", "listen", cfg.Listen, "manifest", cfg.Manifest)
	<-ctx.Done()
	logger.Info("shutting down")

	watcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logger.Warn("scheduler stop", "error", err)
		}
	}
	return srv.Stop(shutdownCtx)
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent resolutions from the history store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if !cfg.History.Enabled() {
				return fmt.Errorf("history is not configured in %s", cfgPath)
			}

			store, db, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			records, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No resolutions recorded.")
				return nil
			}
			for _, rec := range records {
				fmt.Printf("%s  %-8s %3d steps  %.12s\n",
					rec.CreatedAt.Format("2006-01-02 15:04:05"),
					rec.Source, rec.StepCount, rec.Fingerprint)
			}
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().Int("limit", 20, "Maximum number of records to print")
	return cmd
}

func stderrLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// resolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/lineup/lineup.yaml → ./lineup.yaml
func resolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "lineup", "lineup.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "lineup", "lineup.yaml"))
	}

	candidates = append(candidates, "lineup.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
