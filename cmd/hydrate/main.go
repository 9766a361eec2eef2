package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/hydrate/internal/config"
	"github.com/sandeepkv93/hydrate/internal/notify"
	"github.com/sandeepkv93/hydrate/internal/update"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	dataDir    string
	driver     string
	logLevel   string
}

// config loads the layered configuration and applies flag overrides last.
func (o *rootOptions) config() (config.Config, error) {
	cfg, err := config.Load(o.configPath, config.WithDataDir(o.dataDir))
	if err != nil {
		return config.Config{}, err
	}
	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, cfg.Validate()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hydrate",
		Short:         "Track daily water intake against a hydration target",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <data dir>/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "sqlite driver: sqlite3|sqlite")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level")

	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newDaemonCmd(opts))
	root.AddCommand(newProfileCmd(opts))
	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newTodayCmd(opts))
	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newReminderCmd(opts))
	root.AddCommand(newPresetCmd(opts))
	root.AddCommand(newExportCmd(opts))
	return root
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the hydrate terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
}

func runTUI(ctx context.Context, opts *rootOptions) error {
	return withApp(ctx, opts, func(a *app) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		a.sched.Start()
		if a.cfg.MetricsAddr != "" {
			go func() {
				if err := a.metrics.Serve(ctx, a.cfg.MetricsAddr, a.log); err != nil {
					a.log.Error("metrics server stopped", "error", err)
				}
			}()
		}

		m := update.NewModel(a.store,
			update.WithContext(ctx),
			update.WithReminders(a.sched.C()),
			update.WithNotifier(a.notifier, a.cfg.Notifications),
			update.WithMetrics(a.metrics),
			update.WithLogger(a.log.Named("ui")),
			update.WithStatsDays(a.cfg.StatsDays),
		)
		program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case failure := <-a.persistErrs:
					program.Send(update.PersistErrorMsg{Key: failure.key, Err: failure.err})
				}
			}
		}()

		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
}

func newDaemonCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Deliver reminders without the UI and serve metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				return runDaemon(cmd.Context(), a)
			})
		},
	}
}

func runDaemon(ctx context.Context, a *app) error {
	if a.cfg.Notifications == notify.ModeOff {
		a.log.Warn("notifications are off, reminders will only be logged")
	}
	a.sched.Start()
	if a.cfg.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.MetricsAddr, a.log); err != nil {
				a.log.Error("metrics server stopped", "error", err)
			}
		}()
	}
	a.log.Info("daemon started", "schedules", len(a.sched.Active()), "armed", a.sched.Pending(), "reminders", a.store.ReminderSummary())

	for {
		select {
		case <-ctx.Done():
			a.log.Info("daemon stopping")
			return nil
		case failure := <-a.persistErrs:
			a.log.Error("persist failed", "key", failure.key, "error", failure.err)
		case ev, ok := <-a.sched.C():
			if !ok {
				return nil
			}
			a.metrics.ObserveReminderFired(string(ev.Kind))
			body := ev.Message
			if p := a.store.TodayProgress(); p.TargetMl > 0 {
				body = fmt.Sprintf("%s (%d/%d ml)", body, p.TotalMl, p.TargetMl)
			}
			if err := a.notifier.Send(ctx, notify.Notification{Title: "Hydrate", Body: body}); err != nil {
				a.log.Warn("reminder delivery failed", "id", ev.ID, "error", err)
				continue
			}
			a.log.Info("reminder delivered", "id", ev.ID, "kind", string(ev.Kind))
		}
	}
}
