package registry

import (
	"fmt"
	"sync"
)

// Location identifies where a definition lives.
type Location int

const (
	// LocationRecords holds data-record definitions, one per table or view.
	LocationRecords Location = iota
	// LocationInfrastructure holds supporting definitions such as services.
	LocationInfrastructure
)

// searchOrder is the order EnsureLoadable and Resolve consult locations in.
var searchOrder = []Location{LocationRecords, LocationInfrastructure}

// String returns the location's name.
func (l Location) String() string {
	switch l {
	case LocationRecords:
		return "records"
	case LocationInfrastructure:
		return "infrastructure"
	default:
		return fmt.Sprintf("location(%d)", int(l))
	}
}

// Definition describes a type that can be instantiated by name.
type Definition struct {
	Name     string
	Location Location
	// New returns a fresh zero-configured instance.
	New func() any
}

// Registry maps type names to definitions and caches singleton instances.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	locations map[Location]map[string]Definition
	loaded    map[string]Definition
	instances map[string]any
}

// New creates an empty registry.
func New() *Registry {
	locations := make(map[Location]map[string]Definition, len(searchOrder))
	for _, loc := range searchOrder {
		locations[loc] = make(map[string]Definition)
	}

	return &Registry{
		locations: locations,
		loaded:    make(map[string]Definition),
		instances: make(map[string]any),
	}
}

// Register adds def to its location.
// Returns ErrDuplicateDefinition if the location already has a definition
// with the same name.
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.New == nil {
		return fmt.Errorf("%w: name and constructor are required", ErrInvalidDefinition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	defs, ok := r.locations[def.Location]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, def.Location)
	}
	if _, exists := defs[def.Name]; exists {
		return fmt.Errorf("%w: %s in %s", ErrDuplicateDefinition, def.Name, def.Location)
	}

	defs[def.Name] = def
	return nil
}

// MustRegister is like Register but panics on error. Intended for
// package-level wiring where a failure is a programming mistake.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			// ALLOW-PANIC: registration errors are static wiring bugs
			panic(err)
		}
	}
}

// EnsureLoadable reports whether any location holds a definition for name.
// Locations are searched in order and the first match wins. When load is
// true the matching definition is also made available for instantiation;
// loading an already loaded definition is a no-op.
//
// A false result is not an error in itself. Callers that go on to
// instantiate name get ErrUnknownType from Resolve.
func (r *Registry) EnsureLoadable(name string, load bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.ensureLoadable(name, load)
	return ok
}

func (r *Registry) ensureLoadable(name string, load bool) (Definition, bool) {
	if def, ok := r.loaded[name]; ok {
		return def, true
	}

	for _, loc := range searchOrder {
		def, ok := r.locations[loc][name]
		if !ok {
			continue
		}
		if load {
			r.loaded[name] = def
		}
		return def, true
	}

	return Definition{}, false
}

// Resolve returns an instance of the named type.
//
// With singleton set, the cached instance is returned if there is one;
// otherwise a new instance is constructed, cached and returned. Without it
// a fresh instance is constructed every time and the cache is left alone.
func (r *Registry) Resolve(name string, singleton bool) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if singleton {
		if inst, ok := r.instances[name]; ok {
			return inst, nil
		}
	}

	def, ok := r.ensureLoadable(name, true)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}

	inst := def.New()
	if singleton {
		r.instances[name] = inst
	}
	return inst, nil
}

// Override replaces (or sets) the cached singleton for name. The name does
// not need a registered definition.
func (r *Registry) Override(name string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances[name] = instance
}
