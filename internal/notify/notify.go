// Package notify delivers reminders to the desktop and reports whether
// delivery is possible, which doubles as the reminder permission check.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

var ErrUnsupportedPlatform = errors.New("notify: desktop notifications unsupported on this platform")

type Notification struct {
	Title string
	Body  string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
	Available(ctx context.Context) (bool, error)
}

// Mode selects how reminders reach the user.
type Mode string

const (
	// ModeDesktop uses notify-send or osascript.
	ModeDesktop Mode = "desktop"
	// ModeInApp only surfaces reminders inside the running UI.
	ModeInApp Mode = "inapp"
	// ModeOff denies reminder permission entirely.
	ModeOff Mode = "off"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModeDesktop, ModeInApp, ModeOff:
		return true
	default:
		return false
	}
}

func New(mode Mode) (Notifier, error) {
	switch mode {
	case ModeDesktop:
		return NewExec(), nil
	case ModeInApp:
		return Noop{}, nil
	case ModeOff:
		return Denied{}, nil
	default:
		return nil, fmt.Errorf("notify: unknown mode %q", mode)
	}
}

// Noop grants permission and drops every notification.
type Noop struct{}

func (Noop) Send(context.Context, Notification) error { return nil }

func (Noop) Available(context.Context) (bool, error) { return true, nil }

type Denied struct{}

func (Denied) Send(context.Context, Notification) error { return nil }

func (Denied) Available(context.Context) (bool, error) { return false, nil }

type Exec struct {
	goos     string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewExec() *Exec {
	return &Exec{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (e *Exec) tool() (string, error) {
	switch e.goos {
	case "linux", "freebsd", "openbsd":
		return "notify-send", nil
	case "darwin":
		return "osascript", nil
	default:
		return "", ErrUnsupportedPlatform
	}
}

func (e *Exec) Available(context.Context) (bool, error) {
	tool, err := e.tool()
	if err != nil {
		return false, nil
	}
	if _, err := e.lookPath(tool); err != nil {
		return false, nil
	}
	return true, nil
}

func (e *Exec) Send(ctx context.Context, n Notification) error {
	tool, err := e.tool()
	if err != nil {
		return err
	}
	if tool == "osascript" {
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return e.run(ctx, tool, "-e", script)
	}
	return e.run(ctx, tool, "--app-name=hydrate", n.Title, n.Body)
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
