// Package domain implements fixture resolution, scope-aware caching and
// test execution scheduling.
package domain

import (
	"fmt"
	"log/slog"

	m "rig.dev/pkg/rig/internal/model"
)

// Registry is the fixture definition table. Definitions are keyed by
// (declaring directory, name) and resolved by walking ancestor directories,
// nearest definition first.
type Registry struct {
	byDir map[m.Path]map[string]*m.FixtureDefinition
	errs  []m.RunError

	// StrictDuplicates turns a same-directory duplicate definition into a
	// structural error instead of a shadowed, unreachable entry.
	StrictDuplicates bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byDir: make(map[m.Path]map[string]*m.FixtureDefinition),
	}
}

// Register validates and stores one fixture definition.
//
// An unrecognized scope string invalidates only this definition: the error
// is recorded once at the definition site and the name stays unresolvable,
// so each use site later reports fixture-not-found.
//
// When two definitions of the same name share a directory, the first
// registered wins and the second is unreachable.
func (r *Registry) Register(def *m.FixtureDefinition) {
	scope, ok := m.ParseScope(def.RawScope)
	if !ok {
		slog.Warn("invalid fixture scope", "fixture", def.Name, "file", def.File, "scope", def.RawScope)
		r.errs = append(r.errs, m.RunError{
			Kind:     m.ErrInvalidFixture,
			Location: def.Location(),
			Detail:   fmt.Sprintf("unrecognized scope %q (expected function, module, package or session)", def.RawScope),
		})

		return
	}

	def.Scope = scope

	dirDefs, found := r.byDir[def.Dir]
	if !found {
		dirDefs = make(map[string]*m.FixtureDefinition)
		r.byDir[def.Dir] = dirDefs
	}

	if first, exists := dirDefs[def.Name]; exists {
		slog.Warn("duplicate fixture definition", "fixture", def.Name, "dir", def.Dir, "first", first.File, "second", def.File)

		if r.StrictDuplicates {
			r.errs = append(r.errs, m.RunError{
				Kind:     m.ErrInvalidFixture,
				Location: def.Location(),
				Detail:   fmt.Sprintf("duplicate definition of %q in %s; first registered definition (%s) wins", def.Name, def.Dir, first.File),
			})
		}

		return
	}

	dirDefs[def.Name] = def
	slog.Debug("registered fixture", "fixture", def.Name, "dir", def.Dir, "scope", def.Scope)
}

// Resolve finds the definition that name refers to from the requesting
// location, ascending ancestor directories and returning the nearest match.
// Definitions are visible only at or below their declaring directory, so
// sibling subtrees never see each other's same-named fixtures.
func (r *Registry) Resolve(name string, from m.Location) (*m.FixtureDefinition, bool) {
	dir := from.Dir()

	for {
		if def, ok := r.byDir[dir][name]; ok {
			return def, true
		}

		parent := dir.Dir()
		if parent == dir {
			return nil, false
		}

		dir = parent
	}
}

// Errors returns the structural errors collected during registration.
func (r *Registry) Errors() []m.RunError {
	return r.errs
}
