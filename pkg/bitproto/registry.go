package bitproto

import "sync"

// Registry holds named, reusable field layouts so one protocol definition
// can be composed into another by name instead of by copy-pasting its
// FieldInit slice. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string][]FieldInit
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]FieldInit)}
}

// DefaultRegistry is the package-level registry used by the package-level
// Register/Lookup/MustRegister helpers.
var DefaultRegistry = NewRegistry()

// Register records fields under name in the default registry. See
// (*Registry).Register.
func Register(name string, fields []FieldInit) error {
	return DefaultRegistry.Register(name, fields)
}

// Lookup retrieves fields by name from the default registry. See
// (*Registry).Lookup.
func Lookup(name string) ([]FieldInit, bool) {
	return DefaultRegistry.Lookup(name)
}

// MustRegister is like Register but panics on error.
func MustRegister(name string, fields []FieldInit) {
	if err := Register(name, fields); err != nil {
		panic(err)
	}
}

// Register records fields under name, so later callers can retrieve them
// with Lookup or compose them into a new Protocol via New + AppendProtocol.
// It returns a *RegistrationError if name is empty, fields is empty, or
// name is already registered.
func (r *Registry) Register(name string, fields []FieldInit) error {
	if name == "" {
		return NewRegistrationError(name, "name must not be empty", nil)
	}
	if len(fields) == 0 {
		return NewRegistrationError(name, "fields must not be empty", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return NewRegistrationError(name, "already registered", ErrDuplicateProtocol)
	}

	cp := make([]FieldInit, len(fields))
	copy(cp, fields)
	r.byName[name] = cp
	return nil
}

// Lookup returns a copy of the fields registered under name.
func (r *Registry) Lookup(name string) ([]FieldInit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	cp := make([]FieldInit, len(fields))
	copy(cp, fields)
	return cp, true
}

// New builds a fresh *Protocol from the fields registered under name.
func (r *Registry) New(name string) (*Protocol, error) {
	fields, ok := r.Lookup(name)
	if !ok {
		return nil, NewRegistrationError(name, "not registered", ErrUnregisteredProtocol)
	}
	p, rc := NewWithFields(fields)
	if !rc.Ok() {
		return nil, NewRegistrationError(name, "registered fields rejected by AppendProtocol: "+rc.String(), nil)
	}
	return p, nil
}

// Names returns every name currently registered, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// Size returns the number of registered names.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Clear removes all registrations. Primarily useful for tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string][]FieldInit)
}
