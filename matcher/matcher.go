package matcher

import (
	"context"

	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

// Match applies sequenced commands to the engine and outputs a result per
// command. Commands must arrive in order starting after sequence last;
// already applied sequences are reported as old and gaps are an error.
// The snap function is called after every applied command.
func Match(ctx context.Context, e *Engine, last int64,
	input <-chan Command, output chan<- CommandResult,
	snap func(seq int64, e *Engine)) error {

	for {
		var cmd Command
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd = <-input:
		}

		if cmd.Sequence <= last {
			// Ignore old commands
			output <- CommandResult{
				Type:    TypeCommandOld,
				Command: cmd,
			}
			continue
		} else if cmd.Sequence > last+1 {
			return errors.New("out of order command",
				j.MKV{"expect": last + 1, "got": cmd.Sequence})
		}

		output <- apply(e, cmd)

		last = cmd.Sequence

		if snap != nil {
			snap(last, e)
		}
	}
}

func apply(e *Engine, cmd Command) CommandResult {
	switch cmd.Type {
	case CommandSubmit:
		res, err := e.Submit(cmd.Request)
		if err != nil {
			return CommandResult{Type: TypeRejected, Command: cmd, Err: err}
		}
		return CommandResult{Type: resultType(res), Command: cmd, Result: res}

	case CommandReset:
		e.Reset()
		return CommandResult{Type: TypeReset, Command: cmd}

	default:
		return CommandResult{Type: TypeCommandUnknown, Command: cmd}
	}
}
