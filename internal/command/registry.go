package command

import (
	"sort"
	"sync"
)

type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register wraps cmd in mws, outermost last, and stores it under its name.
func (r *Registry) Register(cmd Command, mws ...Middleware) {
	wrapped := ApplyMiddlewares(cmd, mws...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = wrapped
}

func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns every command sorted by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}
