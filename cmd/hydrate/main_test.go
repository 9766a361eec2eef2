package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/hydrate/internal/storage"
	"github.com/sandeepkv93/hydrate/internal/store"
)

func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--data-dir", dataDir, "--driver", storage.DriverPureGo}, args...))
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HYDRATE_NOTIFICATIONS", "inapp")
	t.Setenv("HYDRATE_DATA_DIR", dir)
	return dir
}

func TestCLIProfileLogAndToday(t *testing.T) {
	dir := setupCLI(t)

	out, err := runCLI(t, dir, "profile", "set", "--weight", "70", "--height", "180")
	if err != nil {
		t.Fatalf("profile set: %v", err)
	}
	if !strings.Contains(out, "daily target: 2100 ml") {
		t.Fatalf("unexpected profile output: %q", out)
	}

	if _, err := runCLI(t, dir, "log", "add", "0.5l"); err != nil {
		t.Fatalf("log add: %v", err)
	}
	if _, err := runCLI(t, dir, "log", "add", "coffee"); err != nil {
		t.Fatalf("log add beverage: %v", err)
	}
	out, err = runCLI(t, dir, "today")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !strings.Contains(out, "650/2100 ml") {
		t.Fatalf("expected persisted total in %q", out)
	}

	out, err = runCLI(t, dir, "profile", "show")
	if err != nil {
		t.Fatalf("profile show: %v", err)
	}
	if !strings.Contains(out, "height: 180 cm") {
		t.Fatalf("expected height kept, got %q", out)
	}
	if !strings.Contains(out, "saved: ") {
		t.Fatalf("expected profile save time, got %q", out)
	}

	if _, err := runCLI(t, dir, "log", "rm", "last"); err != nil {
		t.Fatalf("log rm: %v", err)
	}
	out, _ = runCLI(t, dir, "today")
	if !strings.Contains(out, "500/2100 ml") {
		t.Fatalf("expected coffee removed, got %q", out)
	}
}

func TestCLIRemindersSurviveRestart(t *testing.T) {
	dir := setupCLI(t)

	if _, err := runCLI(t, dir, "reminder", "add", "8:00"); err != nil {
		t.Fatalf("reminder add: %v", err)
	}
	if _, err := runCLI(t, dir, "reminder", "add", "13:30"); err != nil {
		t.Fatalf("reminder add: %v", err)
	}
	out, err := runCLI(t, dir, "reminder", "list")
	if err != nil {
		t.Fatalf("reminder list: %v", err)
	}
	if !strings.Contains(out, "mode: time (daily 08:00 / 13:30)") {
		t.Fatalf("unexpected reminder list %q", out)
	}

	if _, err := runCLI(t, dir, "reminder", "interval", "90"); err != nil {
		t.Fatalf("reminder interval: %v", err)
	}
	if _, err := runCLI(t, dir, "reminder", "mode", "interval"); err != nil {
		t.Fatalf("reminder mode: %v", err)
	}
	out, _ = runCLI(t, dir, "reminder", "list")
	if !strings.Contains(out, "mode: interval (every 90 min)") {
		t.Fatalf("expected interval mode, got %q", out)
	}

	if _, err := runCLI(t, dir, "reminder", "rm", "8:00"); err == nil {
		t.Fatalf("expected removing a cleared reminder to fail")
	}
}

func TestCLIRejectsInvalidInput(t *testing.T) {
	dir := setupCLI(t)

	if _, err := runCLI(t, dir, "log", "add", "-5"); err == nil {
		t.Fatalf("expected negative amount to fail")
	}
	if _, err := runCLI(t, dir, "log", "add", "nosuch"); err == nil || !strings.Contains(err.Error(), "unknown preset") {
		t.Fatalf("expected unknown preset error, got %v", err)
	}
	if _, err := runCLI(t, dir, "reminder", "add", "25:00"); err == nil {
		t.Fatalf("expected invalid clock to fail")
	}
	if _, err := runCLI(t, dir, "export", "--format", "xml"); err == nil {
		t.Fatalf("expected unsupported format to fail")
	}
}

func TestCLIExportFormats(t *testing.T) {
	dir := setupCLI(t)
	if _, err := runCLI(t, dir, "preset", "add", "Big", "glass", "400ml"); err != nil {
		t.Fatalf("preset add: %v", err)
	}
	if _, err := runCLI(t, dir, "log", "add", "250", "tea"); err != nil {
		t.Fatalf("log add: %v", err)
	}

	out, err := runCLI(t, dir, "export")
	if err != nil {
		t.Fatalf("export json: %v", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode json export: %v\n%s", err, out)
	}
	if len(snap.Logs) != 1 || snap.Logs[0].Beverage != "tea" || snap.Logs[0].AmountMl != 250 {
		t.Fatalf("unexpected logs: %+v", snap.Logs)
	}
	if len(snap.Presets) != 1 || snap.Presets[0].Label != "Big glass" {
		t.Fatalf("unexpected presets: %+v", snap.Presets)
	}

	out, err = runCLI(t, dir, "export", "--format", "yaml")
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode yaml export: %v", err)
	}
	if _, ok := doc["logs"]; !ok {
		t.Fatalf("expected logs key in yaml export: %s", out)
	}
}

func TestResolveIntake(t *testing.T) {
	st := store.New(storage.NewMemoryKV(), nil)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	cases := []struct {
		name     string
		preset   string
		args     []string
		beverage string
		amount   int
		wantErr  bool
	}{
		{name: "amount", args: []string{"300"}, amount: 300},
		{name: "amount with drink", args: []string{"1.5l", "sparkling", "water"}, beverage: "sparkling water", amount: 1500},
		{name: "builtin preset arg", args: []string{"bottle500"}, beverage: "water", amount: 500},
		{name: "beverage flag", preset: "soda", beverage: "soda", amount: 250},
		{name: "both", preset: "cup200", args: []string{"100"}, wantErr: true},
		{name: "nothing", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			beverage, amount, err := resolveIntake(st, tc.preset, tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if beverage != tc.beverage || amount != tc.amount {
				t.Fatalf("got %q %d, want %q %d", beverage, amount, tc.beverage, tc.amount)
			}
		})
	}
}
