// Package protocol implements the human-readable command line spoken
// over the host link. It is thin glue: each command maps onto the
// byte-level API of the core engines.
package protocol

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/shlex"
)

// Handler executes one command and returns the response line
type Handler func(args []string) (string, error)

// Command is a registered command with its usage string
type Command struct {
	Name    string
	Usage   string
	Handler Handler
}

// ErrUnknownCommand is returned for command words with no registration
var ErrUnknownCommand = errors.New("unknown command")

// Registry maps command words to handlers
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command. Names are case-insensitive; registering an
// existing name replaces it.
func (r *Registry) Register(name, usage string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.ToUpper(name)
	r.commands[name] = &Command{Name: name, Usage: usage, Handler: handler}
}

// Lookup retrieves a command by name
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToUpper(name)]
	return cmd, ok
}

// Dispatch tokenizes line and runs the matching handler. Empty lines
// and comment lines starting with '#' return an empty response.
func (r *Registry) Dispatch(line string) (string, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil
	}
	cmd, ok := r.Lookup(fields[0])
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	return cmd.Handler(fields[1:])
}

// Usage returns one line per registered command, sorted by name
func (r *Registry) Usage() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(r.commands[name].Usage)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
