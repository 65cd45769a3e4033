// Package tunable provides a live-tunable parameter store. Controllers
// register named parameters with defaults, then poll them once per tick:
// HasChanged reports (and consumes) whether the value moved since the
// last poll, so a gain is only pushed to hardware when someone actually
// retuned it.
package tunable

import "sync"

// Store holds named float64 parameters. A dashboard or test mutates them
// via Set; the control loop polls via the returned handles.
type Store struct {
	mu    sync.Mutex
	vals  map[string]float64
	dirty map[string]bool
}

// NewStore returns an empty parameter store.
func NewStore() *Store {
	return &Store{
		vals:  make(map[string]float64),
		dirty: make(map[string]bool),
	}
}

// Set updates a parameter, marking it changed if the value differs.
func (s *Store) Set(name string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.vals[name]; !ok || old != v {
		s.vals[name] = v
		s.dirty[name] = true
	}
}

// Float64 registers a parameter with a default value and returns its
// handle. Registering an existing name keeps the stored value.
func (s *Store) Float64(name string, def float64) *Float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vals[name]; !ok {
		s.vals[name] = def
	}
	return &Float64{store: s, name: name}
}

// Float64 is a handle to a single tunable parameter.
type Float64 struct {
	store *Store
	name  string
}

// Get returns the current value.
func (f *Float64) Get() float64 {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.vals[f.name]
}

// HasChanged reports whether the value changed since the last call, and
// clears the flag.
func (f *Float64) HasChanged() bool {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	changed := f.store.dirty[f.name]
	f.store.dirty[f.name] = false
	return changed
}

// Gains is a PIDF gain set.
type Gains struct {
	P, I, D, F float64
}

// PIDF is a handle to a four-parameter gain group, stored as
// prefix.{p,i,d,f}.
type PIDF struct {
	p, i, d, f *Float64
}

// PIDF registers a gain group with defaults and returns its handle.
func (s *Store) PIDF(prefix string, def Gains) *PIDF {
	return &PIDF{
		p: s.Float64(prefix+".p", def.P),
		i: s.Float64(prefix+".i", def.I),
		d: s.Float64(prefix+".d", def.D),
		f: s.Float64(prefix+".f", def.F),
	}
}

// Get returns the current gain set.
func (g *PIDF) Get() Gains {
	return Gains{P: g.p.Get(), I: g.i.Get(), D: g.d.Get(), F: g.f.Get()}
}

// HasChanged reports whether any gain changed since the last call,
// clearing all four flags.
func (g *PIDF) HasChanged() bool {
	// Poll all four so one tick consumes the whole group.
	p := g.p.HasChanged()
	i := g.i.HasChanged()
	d := g.d.HasChanged()
	f := g.f.HasChanged()
	return p || i || d || f
}
