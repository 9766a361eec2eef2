package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Remove   func(RemoveArgs) (Result, error)
	Weight   func(WeightArgs) (Result, error)
	Remind   func(RemindArgs) (Result, error)
	Interval func(IntervalArgs) (Result, error)
	Mode     func(ModeArgs) (Result, error)
	Preset   func(PresetArgs) (Result, error)
	Show     func(ShowArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeRemove:
		if handlers.Remove == nil {
			return Result{}, missing("rm")
		}
		return handlers.Remove(*cmd.Remove)
	case TypeWeight:
		if handlers.Weight == nil {
			return Result{}, missing("weight")
		}
		return handlers.Weight(*cmd.Weight)
	case TypeRemind:
		if handlers.Remind == nil {
			return Result{}, missing("remind")
		}
		return handlers.Remind(*cmd.Remind)
	case TypeInterval:
		if handlers.Interval == nil {
			return Result{}, missing("interval")
		}
		return handlers.Interval(*cmd.Interval)
	case TypeMode:
		if handlers.Mode == nil {
			return Result{}, missing("mode")
		}
		return handlers.Mode(*cmd.Mode)
	case TypePreset:
		if handlers.Preset == nil {
			return Result{}, missing("preset")
		}
		return handlers.Preset(*cmd.Preset)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
