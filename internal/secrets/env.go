package secrets

import (
	"os"
	"sync"
)

// Environment is the variable store secrets are read from and exported to.
// Implementations must be safe for concurrent use.
type Environment interface {
	// Lookup returns the value of name and whether it is set to a non-empty value.
	Lookup(name string) (string, bool)
	// Set assigns name. Exporting to the process environment happens here.
	Set(name, value string) error
}

// OSEnvironment is backed by the process environment.
type OSEnvironment struct{}

// NewOSEnvironment returns an Environment over os.Getenv/os.Setenv.
func NewOSEnvironment() *OSEnvironment { return &OSEnvironment{} }

func (OSEnvironment) Lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (OSEnvironment) Set(name, value string) error {
	return os.Setenv(name, value)
}

// MapEnvironment is an in-memory Environment, used for tests and dry runs.
type MapEnvironment struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMapEnvironment copies vars into a new MapEnvironment.
func NewMapEnvironment(vars map[string]string) *MapEnvironment {
	m := &MapEnvironment{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *MapEnvironment) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (m *MapEnvironment) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[name] = value
	return nil
}
