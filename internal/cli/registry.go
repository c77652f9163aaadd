package cli

import (
	"fmt"
	"os"
	"sort"
)

// Command is a named subcommand of the management CLI
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// Registry dispatches CLI invocations to registered commands
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Run dispatches args[0] to the matching command
func (r *Registry) Run(args []string) error {
	if len(args) < 1 {
		r.printUsage()
		return fmt.Errorf("command required")
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		r.printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}

	return cmd.Run(args[1:])
}

func (r *Registry) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: simportal-cli <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", name, r.commands[name].Description())
	}
}
