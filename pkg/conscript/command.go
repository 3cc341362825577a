package conscript

import (
	"strings"
)

// Action runs a matched command.
type Action func(call *Call) error

// Command is a registered command: its name, the modes it is valid in
// (empty means every mode), its accepted overloads and its action.
// Commands are immutable once registered.
type Command struct {
	Name      string
	Modes     []int
	Overloads []*Signature
	Action    Action
}

// ValidIn reports whether the command may be dispatched in mode.
func (c *Command) ValidIn(mode int) bool {
	if len(c.Modes) == 0 {
		return true
	}
	for _, m := range c.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Signatures returns the canonical form of every overload, prefixed with
// the command name.
func (c *Command) Signatures() []string {
	out := make([]string, len(c.Overloads))
	for i, sig := range c.Overloads {
		if len(sig.Params) == 0 {
			out[i] = c.Name
		} else {
			out[i] = c.Name + " " + sig.String()
		}
	}
	return out
}

// Registry holds commands in registration order.
type Registry struct {
	commands []*Command
}

// Add appends a command. Earlier registrations win ties during resolution.
func (r *Registry) Add(cmd *Command) {
	r.commands = append(r.commands, cmd)
}

// Commands returns every registered command in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Resolve finds the first command, in registration order, that is valid
// in mode, is called name and has an overload matching args. The first
// matching overload of that command is bound. When nothing matches,
// candidates lists the commands valid in mode whose name matched.
func (r *Registry) Resolve(name string, args *Param, mode int) (cmd *Command, bound *Param, candidates []*Command) {
	for _, c := range r.commands {
		if !c.ValidIn(mode) {
			continue
		}
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		for _, sig := range c.Overloads {
			if b, ok := sig.Bind(args); ok {
				return c, b, nil
			}
		}
		candidates = append(candidates, c)
	}
	return nil, nil, candidates
}
