package engine

import (
	"context"
	"sync"
)

// CommandFunc is a registered command callback. Bound positional values
// arrive in declared order, with variadic tail values appended.
type CommandFunc func(ctx context.Context, args ...any) (any, error)

// Arg describes one declared command argument. Two names are reserved:
// "scope" receives the current scope and "mode" receives the accumulated
// short-flag bit mask.
type Arg struct {
	Name     string
	Required bool
	Variadic bool
	Default  any
}

// Command is a registered command with its argument schema and flag table.
type Command struct {
	Name     string
	Callback CommandFunc
	// Flags maps a single-character key to its bit weight, OR-combined into
	// the mode argument.
	Flags map[string]int64
	Args  []Arg
}

// compiledCommand carries the name→position index built at registration.
type compiledCommand struct {
	*Command
	index      map[string]int
	variadicAt int // -1 when absent
	modeAt     int // -1 when absent
}

func compileCommand(cmd *Command) (*compiledCommand, error) {
	cc := &compiledCommand{
		Command:    cmd,
		index:      make(map[string]int, len(cmd.Args)),
		variadicAt: -1,
		modeAt:     -1,
	}
	for i, arg := range cmd.Args {
		cc.index[arg.Name] = i
		if arg.Name == "mode" {
			cc.modeAt = i
		}
		if arg.Variadic {
			if cc.variadicAt >= 0 {
				return nil, newFault(FaultWrongArgumentPosition, map[string]any{
					"command":  cmd.Name,
					"argument": arg.Name,
					"reason":   "at most one variadic argument",
				})
			}
			if i != len(cmd.Args)-1 {
				return nil, newFault(FaultWrongArgumentPosition, map[string]any{
					"command":  cmd.Name,
					"argument": arg.Name,
					"reason":   "variadic argument must be last",
				})
			}
			cc.variadicAt = i
		}
	}
	return cc, nil
}

// commandSet stores compiled commands by name. It is populated at
// configuration time and read-only during evaluation.
type commandSet struct {
	mu     sync.RWMutex
	byName map[string]*compiledCommand
}

func newCommandSet() *commandSet {
	return &commandSet{byName: make(map[string]*compiledCommand)}
}

func (cs *commandSet) register(cmd *Command) error {
	cc, err := compileCommand(cmd)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.byName[cmd.Name] = cc
	return nil
}

func (cs *commandSet) lookup(name string) (*compiledCommand, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	cc, ok := cs.byName[name]
	return cc, ok
}

// IsCommand reports whether name is a registered command.
func (e *Engine) IsCommand(name string) bool {
	_, ok := e.commands.lookup(name)
	return ok
}
