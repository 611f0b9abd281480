package command

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrUnknownCommand is returned for command names that do not exist.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidArgument is returned when a command's arguments are malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Action is a resolved runtime command.
type Action interface {
	action()
}

type (
	// Quit tears the session down and exits.
	Quit struct{}
	// SetPoll overrides the poll interval; Auto clears the override.
	SetPoll struct {
		Interval time.Duration
		Auto     bool
	}
	// SetAggregationLimit sets the Count top-N limit.
	SetAggregationLimit struct{ N int }
	// SelectField chooses the rendered field by name, or by Index when
	// Name is empty.
	SelectField struct {
		Name  string
		Index int
	}
	// SwapChannel flips the rendered channel.
	SwapChannel struct{}
	// ToggleHighlight flips match emphasis.
	ToggleHighlight struct{}
	// SetParser activates the named pattern; Off deactivates parsing.
	SetParser struct {
		Name string
		Off  bool
	}
	// ToggleAnalytics switches between the field and analytics views.
	ToggleAnalytics struct{}
	// SaveSession stores the current sources under Name.
	SaveSession struct{ Name string }
	// Restart stops all sources and returns to the startup screen.
	Restart struct{}
	// History shows the history tape, or disables recording when Off.
	History struct{ Off bool }
)

func (Quit) action()                {}
func (SetPoll) action()             {}
func (SetAggregationLimit) action() {}
func (SelectField) action()         {}
func (SwapChannel) action()         {}
func (ToggleHighlight) action()     {}
func (SetParser) action()           {}
func (ToggleAnalytics) action()     {}
func (SaveSession) action()         {}
func (Restart) action()             {}
func (History) action()             {}

// Resolve validates cmd and converts it to an Action.
func Resolve(cmd Command) (Action, error) {
	switch cmd.Name {
	case "q", "quit", "exit":
		return Quit{}, nil
	case "poll":
		return resolvePoll(cmd)
	case "agg":
		n, err := positiveArg(cmd, "agg N")
		if err != nil {
			return nil, err
		}
		return SetAggregationLimit{N: n}, nil
	case "field":
		if cmd.Remainder == "" {
			return nil, usage(cmd, "field NAME|INDEX")
		}
		if i, err := strconv.Atoi(cmd.Remainder); err == nil {
			if i < 0 {
				return nil, usage(cmd, "field NAME|INDEX")
			}
			return SelectField{Index: i}, nil
		}
		return SelectField{Name: cmd.Remainder, Index: -1}, nil
	case "swap":
		return SwapChannel{}, nil
	case "highlight", "hl":
		return ToggleHighlight{}, nil
	case "parser", "p":
		switch cmd.Remainder {
		case "":
			return nil, usage(cmd, "parser NAME|off")
		case "off":
			return SetParser{Off: true}, nil
		default:
			return SetParser{Name: cmd.Remainder}, nil
		}
	case "analytics", "a":
		return ToggleAnalytics{}, nil
	case "save":
		if cmd.Remainder == "" {
			return nil, usage(cmd, "save NAME")
		}
		return SaveSession{Name: cmd.Remainder}, nil
	case "restart", "r":
		return Restart{}, nil
	case "history":
		switch cmd.Remainder {
		case "":
			return History{}, nil
		case "off":
			return History{Off: true}, nil
		default:
			return nil, usage(cmd, "history [off]")
		}
	case "":
		return nil, fmt.Errorf("%w: empty command", ErrUnknownCommand)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
}

func resolvePoll(cmd Command) (Action, error) {
	if len(cmd.Args) == 0 || cmd.Args[0] == "auto" {
		return SetPoll{Auto: true}, nil
	}
	ms, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil || ms <= 0 {
		return nil, usage(cmd, "poll MILLISECONDS|auto")
	}
	d := time.Duration(ms * float64(time.Millisecond))
	if d <= 0 {
		return nil, usage(cmd, "poll MILLISECONDS|auto")
	}
	return SetPoll{Interval: d}, nil
}

func positiveArg(cmd Command, form string) (int, error) {
	if len(cmd.Args) != 1 {
		return 0, usage(cmd, form)
	}
	n, err := strconv.Atoi(cmd.Args[0])
	if err != nil || n < 1 {
		return 0, usage(cmd, form)
	}
	return n, nil
}

func usage(cmd Command, form string) error {
	return fmt.Errorf("%w: %q (usage: :%s)", ErrInvalidArgument, cmd.Raw, form)
}

// ParseAction parses and resolves input in one step. ok is false when input
// is not a colon command.
func ParseAction(input string) (act Action, ok bool, err error) {
	cmd, ok := Parse(input)
	if !ok {
		return nil, false, nil
	}
	act, err = Resolve(cmd)
	return act, true, err
}
