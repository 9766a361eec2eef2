package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/hydrate/internal/commands"
	"github.com/sandeepkv93/hydrate/internal/model"
	"github.com/sandeepkv93/hydrate/internal/store"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	profile := &cobra.Command{Use: "profile", Short: "Body profile and daily target"}

	var weight, height float64
	set := &cobra.Command{
		Use:   "set --weight <kg> [--height <cm>]",
		Short: "Set weight and height; the daily target follows from weight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if !cmd.Flags().Changed("height") {
					if current, ok := a.store.Profile(); ok {
						height = current.HeightCm
					}
				}
				p, err := a.store.SetProfile(height, weight)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "daily target: %d ml\n", p.DailyTargetMl)
				return nil
			})
		},
	}
	set.Flags().Float64Var(&weight, "weight", 0, "weight in kg")
	set.Flags().Float64Var(&height, "height", 0, "height in cm")
	_ = set.MarkFlagRequired("weight")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				p, ok := a.store.Profile()
				if !ok {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no profile set")
					return nil
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "weight: %.1f kg\nheight: %.0f cm\ndaily target: %d ml\n", p.WeightKg, p.HeightCm, p.DailyTargetMl)
				if saved, err := a.kv.UpdatedAt(cmd.Context(), store.KeyProfile); err == nil {
					_, _ = fmt.Fprintf(out, "saved: %s\n", saved.Local().Format("2006-01-02 15:04"))
				}
				return nil
			})
		},
	}

	profile.AddCommand(set, show)
	return profile
}

func newLogCmd(opts *rootOptions) *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Intake log commands"}

	var presetID string
	add := &cobra.Command{
		Use:   "add <amount> [beverage] | --preset <id>",
		Short: "Log a drink",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				beverage, amount, err := resolveIntake(a.store, presetID, args)
				if err != nil {
					return err
				}
				before := a.store.TodayProgress()
				entry, err := a.store.AddLog(beverage, amount)
				if err != nil {
					return err
				}
				after := a.store.TodayProgress()
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "logged %s: %d ml %s\n", entry.ID, entry.AmountMl, entry.Beverage)
				printProgress(out, after)
				if !before.Reached && after.Reached {
					_, _ = fmt.Fprintln(out, "goal reached!")
				}
				return nil
			})
		},
	}
	add.Flags().StringVar(&presetID, "preset", "", "preset or beverage id")

	rm := &cobra.Command{
		Use:   "rm <id|last>",
		Short: "Remove a logged drink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				id := args[0]
				if strings.EqualFold(id, "last") {
					logs := a.store.Logs()
					if len(logs) == 0 {
						return fmt.Errorf("no logs to remove")
					}
					id = logs[len(logs)-1].ID
				}
				if !a.store.RemoveLog(id) {
					return fmt.Errorf("no log with id %q", args[0])
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
				return nil
			})
		},
	}

	var date string
	list := &cobra.Command{
		Use:   "list [--date YYYY-MM-DD]",
		Short: "List drinks for a day (default today)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if date != "" {
				if _, err := model.ParseDayKey(date); err != nil {
					return err
				}
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				day := date
				if day == "" {
					day = model.DayKey(time.Now())
				}
				logs := a.store.LogsByDate(day)
				if len(logs) == 0 {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no logs on %s\n", day)
					return nil
				}
				for _, entry := range logs {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d ml\n", entry.ID, entry.CreatedAt.Local().Format("15:04"), entry.Beverage, entry.AmountMl)
				}
				printProgress(cmd.OutOrStdout(), a.store.Progress(day))
				return nil
			})
		},
	}
	list.Flags().StringVar(&date, "date", "", "day key")

	logCmd.AddCommand(add, rm, list)
	return logCmd
}

// resolveIntake turns CLI input into a beverage and amount. A preset may
// name a built-in or custom preset or a beverage at its default amount.
func resolveIntake(st *store.Store, presetID string, args []string) (string, int, error) {
	if presetID == "" && len(args) == 1 {
		if _, err := commands.ParseAmount(args[0]); err != nil {
			presetID = args[0]
			args = nil
		}
	}
	if presetID != "" {
		if len(args) > 0 {
			return "", 0, fmt.Errorf("use either an amount or --preset")
		}
		if option, ok := st.PresetByID(presetID); ok {
			return option.Beverage, option.AmountMl, nil
		}
		for _, b := range model.Beverages {
			if b.ID == presetID {
				return b.Name, b.DefaultAmount, nil
			}
		}
		return "", 0, fmt.Errorf("unknown preset %q", presetID)
	}
	if len(args) == 0 {
		return "", 0, fmt.Errorf("amount or --preset is required")
	}
	amount, err := commands.ParseAmount(args[0])
	if err != nil {
		return "", 0, err
	}
	return strings.Join(args[1:], " "), amount, nil
}

func printProgress(out io.Writer, p store.Progress) {
	if p.TargetMl <= 0 {
		_, _ = fmt.Fprintf(out, "%s: %d ml (no target set)\n", p.DayKey, p.TotalMl)
		return
	}
	_, _ = fmt.Fprintf(out, "%s: %d/%d ml (%d%%), %d ml to go\n", p.DayKey, p.TotalMl, p.TargetMl, p.Percent, p.RemainingMl())
}

func newTodayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				printProgress(cmd.OutOrStdout(), a.store.TodayProgress())
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var days int
	stats := &cobra.Command{
		Use:   "stats [--days N]",
		Short: "Show recent daily totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				n := days
				if n <= 0 {
					n = a.cfg.StatsDays
				}
				target := 0
				if p, ok := a.store.Profile(); ok {
					target = p.DailyTargetMl
				}
				for _, total := range a.store.RecentTotals(n) {
					mark := ""
					if target > 0 && total.TotalMl >= target {
						mark = "\tgoal"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d ml%s\n", total.DayKey, total.TotalMl, mark)
				}
				return nil
			})
		},
	}
	stats.Flags().IntVar(&days, "days", 0, "number of days (default from config)")
	return stats
}

func newReminderCmd(opts *rootOptions) *cobra.Command {
	reminder := &cobra.Command{Use: "reminder", Short: "Reminder commands"}

	add := &cobra.Command{
		Use:   "add <HH:MM>",
		Short: "Add a daily reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, err := model.ParseClock(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				r, err := a.store.AddDailyReminder(cmd.Context(), hour, minute)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reminder %s at %s\n", r.ID, r.Label())
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <HH:MM|id>",
		Short: "Remove daily reminders by time or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				hour, minute, clockErr := model.ParseClock(args[0])
				removed := 0
				for _, r := range a.store.Reminders() {
					match := r.ID == args[0] || (clockErr == nil && r.Hour == hour && r.Minute == minute)
					if match && a.store.RemoveReminder(cmd.Context(), r.ID) {
						removed++
					}
				}
				if removed == 0 {
					return fmt.Errorf("no reminder matches %q", args[0])
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d reminder(s)\n", removed)
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "mode: %s (%s)\n", a.store.ReminderMode(), a.store.ReminderSummary())
				for _, r := range model.SortReminders(a.store.Reminders()) {
					_, _ = fmt.Fprintf(out, "%s\t%s\n", r.ID, r.Label())
				}
				return nil
			})
		},
	}

	interval := &cobra.Command{
		Use:   "interval <minutes>",
		Short: "Remind every N minutes (60, 90, 120 or 180 suggested)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.Parse("interval " + args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if parsed.Interval.Off {
					a.store.StopIntervalReminder(cmd.Context())
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "interval reminder stopped")
					return nil
				}
				started, err := a.store.StartIntervalReminder(cmd.Context(), parsed.Interval.Minutes)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reminding every %d min\n", started.Minutes)
				return nil
			})
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the interval reminder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if !a.store.StopIntervalReminder(cmd.Context()) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no interval reminder running")
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "interval reminder stopped")
				return nil
			})
		},
	}

	mode := &cobra.Command{
		Use:   "mode <off|time|interval>",
		Short: "Switch reminder mode, clearing reminders the mode excludes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := model.ParseReminderMode(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.store.SetReminderMode(cmd.Context(), m); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "reminders: %s\n", a.store.ReminderSummary())
				return nil
			})
		},
	}

	reminder.AddCommand(add, rm, list, interval, stop, mode)
	return reminder
}

func newPresetCmd(opts *rootOptions) *cobra.Command {
	preset := &cobra.Command{Use: "preset", Short: "Quick-add presets"}

	var icon string
	add := &cobra.Command{
		Use:   "add <label> <amount>",
		Short: "Add a custom preset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := commands.ParseAmount(args[len(args)-1])
			if err != nil {
				return err
			}
			label := strings.Join(args[:len(args)-1], " ")
			return withApp(cmd.Context(), opts, func(a *app) error {
				p, err := a.store.AddPreset(label, amount, icon)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "preset %s: %s %d ml\n", p.ID, p.Label, p.AmountMl)
				return nil
			})
		},
	}
	add.Flags().StringVar(&icon, "icon", "", "icon name (default cup)")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a custom preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if !a.store.RemovePreset(args[0]) {
					return fmt.Errorf("no custom preset %q", args[0])
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List built-in and custom presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				for _, p := range a.store.Presets() {
					kind := "builtin"
					if p.Custom {
						kind = "custom"
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d ml\t%s\n", p.ID, p.Label, p.AmountMl, kind)
				}
				return nil
			})
		},
	}

	preset.AddCommand(add, rm, list)
	return preset
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, outPath string
	export := &cobra.Command{
		Use:   "export [--format json|yaml] [--out file]",
		Short: "Export all stored data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q", format)
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				var out io.Writer = cmd.OutOrStdout()
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}
				return writeSnapshot(out, format, a.store.Snapshot())
			})
		},
	}
	export.Flags().StringVar(&format, "format", "json", "output format: json|yaml")
	export.Flags().StringVar(&outPath, "out", "", "write to file instead of stdout")
	return export
}

func writeSnapshot(out io.Writer, format string, snap store.Snapshot) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
