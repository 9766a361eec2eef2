package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sandeepkv93/hydrate/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeRemove   Type = "rm"
	TypeWeight   Type = "weight"
	TypeRemind   Type = "remind"
	TypeInterval Type = "interval"
	TypeMode     Type = "mode"
	TypePreset   Type = "preset"
	TypeShow     Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs carries either an explicit amount or a preset id.
type AddArgs struct {
	AmountMl int
	Beverage string
	PresetID string
}

// RemoveArgs targets a log id, or the most recent log when Last is set.
type RemoveArgs struct {
	ID   string
	Last bool
}

type WeightArgs struct {
	WeightKg float64
	HeightCm float64
}

type RemindArgs struct {
	Remove bool
	Hour   int
	Minute int
}

// IntervalArgs with Off set stops the interval reminder.
type IntervalArgs struct {
	Minutes int
	Off     bool
}

type ModeArgs struct {
	Mode model.ReminderMode
}

type PresetArgs struct {
	Label    string
	AmountMl int
	Remove   string
}

type ShowArgs struct {
	Subject string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Remove   *RemoveArgs
	Weight   *WeightArgs
	Remind   *RemindArgs
	Interval *IntervalArgs
	Mode     *ModeArgs
	Preset   *PresetArgs
	Show     *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeRemove:
		return parseRemove(input, args)
	case TypeWeight:
		return parseWeight(input, args)
	case TypeRemind:
		return parseRemind(input, args)
	case TypeInterval:
		return parseInterval(input, args)
	case TypeMode:
		return parseMode(input, args)
	case TypePreset:
		return parsePreset(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("add requires an amount or a preset")
	}
	amount, err := ParseAmount(args[0])
	if err != nil {
		if len(args) > 1 {
			return Command{}, err
		}
		return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{PresetID: args[0]}}, nil
	}
	beverage := strings.TrimSpace(strings.Join(args[1:], " "))
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{AmountMl: amount, Beverage: beverage}}, nil
}

func parseRemove(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("rm requires a log id or \"last\"")
	}
	if strings.EqualFold(args[0], "last") {
		return Command{Type: TypeRemove, Raw: raw, Remove: &RemoveArgs{Last: true}}, nil
	}
	return Command{Type: TypeRemove, Raw: raw, Remove: &RemoveArgs{ID: args[0]}}, nil
}

func parseWeight(raw string, args []string) (Command, error) {
	if len(args) == 0 || len(args) > 2 {
		return Command{}, invalid("weight requires kg and optional height in cm")
	}
	weight, err := parsePositiveFloat(strings.TrimSuffix(strings.ToLower(args[0]), "kg"))
	if err != nil {
		return Command{}, invalid("invalid weight %q", args[0])
	}
	out := &WeightArgs{WeightKg: weight}
	if len(args) == 2 {
		height, err := parsePositiveFloat(strings.TrimSuffix(strings.ToLower(args[1]), "cm"))
		if err != nil {
			return Command{}, invalid("invalid height %q", args[1])
		}
		out.HeightCm = height
	}
	return Command{Type: TypeWeight, Raw: raw, Weight: out}, nil
}

func parseRemind(raw string, args []string) (Command, error) {
	remove := false
	if len(args) == 2 && strings.EqualFold(args[0], "rm") {
		remove = true
		args = args[1:]
	}
	if len(args) != 1 {
		return Command{}, invalid("remind requires HH:MM")
	}
	hour, minute, err := model.ParseClock(args[0])
	if err != nil {
		return Command{}, invalid("invalid time %q", args[0])
	}
	return Command{Type: TypeRemind, Raw: raw, Remind: &RemindArgs{Remove: remove, Hour: hour, Minute: minute}}, nil
}

func parseInterval(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("interval requires minutes or \"off\"")
	}
	if strings.EqualFold(args[0], "off") {
		return Command{Type: TypeInterval, Raw: raw, Interval: &IntervalArgs{Off: true}}, nil
	}
	minutes, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(args[0]), "m"))
	if err != nil || minutes <= 0 {
		return Command{}, invalid("invalid interval %q", args[0])
	}
	return Command{Type: TypeInterval, Raw: raw, Interval: &IntervalArgs{Minutes: minutes}}, nil
}

func parseMode(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, invalid("mode requires off, time or interval")
	}
	mode, err := model.ParseReminderMode(args[0])
	if err != nil {
		return Command{}, invalid("invalid mode %q", args[0])
	}
	return Command{Type: TypeMode, Raw: raw, Mode: &ModeArgs{Mode: mode}}, nil
}

// parsePreset accepts "<label words> <amount>" or "rm <id>".
func parsePreset(raw string, args []string) (Command, error) {
	if len(args) == 2 && strings.EqualFold(args[0], "rm") {
		return Command{Type: TypePreset, Raw: raw, Preset: &PresetArgs{Remove: args[1]}}, nil
	}
	if len(args) < 2 {
		return Command{}, invalid("preset requires a label and an amount")
	}
	amount, err := ParseAmount(args[len(args)-1])
	if err != nil {
		return Command{}, err
	}
	label := strings.Join(args[:len(args)-1], " ")
	return Command{Type: TypePreset, Raw: raw, Preset: &PresetArgs{Label: label, AmountMl: amount}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("show requires a subject")
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: strings.ToLower(args[0])}}, nil
}

// ParseAmount reads millilitres from "250", "250ml", "0.5l" or "1.5L".
func ParseAmount(raw string) (int, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	scale := 1.0
	switch {
	case strings.HasSuffix(value, "ml"):
		value = strings.TrimSuffix(value, "ml")
	case strings.HasSuffix(value, "l"):
		value = strings.TrimSuffix(value, "l")
		scale = 1000
	}
	f, err := parsePositiveFloat(value)
	if err != nil {
		return 0, invalid("invalid amount %q", raw)
	}
	ml := int(math.Round(f * scale))
	if ml <= 0 {
		return 0, invalid("invalid amount %q", raw)
	}
	return ml, nil
}

func parsePositiveFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not positive: %v", f)
	}
	return f, nil
}
