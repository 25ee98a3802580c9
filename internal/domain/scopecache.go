package domain

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	m "rig.dev/pkg/rig/internal/model"
)

// ScopeContext carries the caller's current scope nesting, from which each
// fixture's concrete scope key is derived: function scope keys by invocation
// identity, module scope by the test file, package scope by the fixture's
// declaring directory and session scope by a single run-wide key.
type ScopeContext struct {
	Invocation string
	Module     m.Path
}

type instanceKey struct {
	def *m.FixtureDefinition
	key string
}

type scopeID struct {
	level m.Scope
	key   string
}

// fixtureInstance is one realized fixture value for a (definition, key)
// pair. A failed setup is cached too, so every consumer of the same scope
// instance observes the identical error and the body runs at most once.
type fixtureInstance struct {
	def      *m.FixtureDefinition
	value    any
	err      error
	teardown m.Teardown
}

// ScopeCache owns live fixture instances and their pending teardowns.
//
// Within one package subtree execution is sequential, so function, module
// and package keys are never contended. Session instances are shared across
// workers and guarded so the setup body runs exactly once.
type ScopeCache struct {
	mu        sync.Mutex
	instances map[instanceKey]*fixtureInstance
	stacks    map[scopeID][]*fixtureInstance
	session   singleflight.Group
}

// NewScopeCache creates an empty ScopeCache.
func NewScopeCache() *ScopeCache {
	return &ScopeCache{
		instances: make(map[instanceKey]*fixtureInstance),
		stacks:    make(map[scopeID][]*fixtureInstance),
	}
}

func scopeKeyFor(def *m.FixtureDefinition, sctx ScopeContext) string {
	switch def.Scope {
	case m.ScopeFunction:
		return sctx.Invocation
	case m.ScopeModule:
		return string(sctx.Module)
	case m.ScopePackage:
		return string(def.Dir)
	case m.ScopeSession:
		return ""
	}

	return sctx.Invocation
}

// Acquire returns the live value for the entry's definition in the caller's
// scope context, running the setup half of the body on first use. Reuse
// within the same scope instance never re-runs setup; this is the diamond
// guarantee: sibling dependents observe the identical instance.
func (c *ScopeCache) Acquire(entry PlanEntry, sctx ScopeContext) (any, error) {
	def := entry.Def
	key := scopeKeyFor(def, sctx)

	if def.Scope == m.ScopeSession || def.Scope == m.ScopePackage {
		// Session fixtures, and package fixtures declared at an ancestor
		// directory shared by parallel subtrees, can be first-acquired by
		// two workers at once. First acquisition is mutually exclusive;
		// later readers get the published instance without contention.
		inst, _, _ := c.session.Do(def.Location().String()+"|"+key, func() (any, error) {
			return c.acquireLocked(entry, sctx, key), nil
		})

		cached := inst.(*fixtureInstance)

		return cached.value, cached.err
	}

	cached := c.acquireLocked(entry, sctx, key)

	return cached.value, cached.err
}

func (c *ScopeCache) acquireLocked(entry PlanEntry, sctx ScopeContext, key string) *fixtureInstance {
	def := entry.Def
	ik := instanceKey{def: def, key: key}

	c.mu.Lock()
	if inst, ok := c.instances[ik]; ok {
		c.mu.Unlock()
		return inst
	}
	c.mu.Unlock()

	inst := c.setup(entry, sctx)

	c.mu.Lock()
	c.instances[ik] = inst

	if inst.teardown != nil {
		id := scopeID{level: def.Scope, key: key}
		c.stacks[id] = append(c.stacks[id], inst)
	}
	c.mu.Unlock()

	return inst
}

// setup runs the setup half of the body with the dependency values already
// live in the cache. Plan order guarantees dependencies were acquired first.
func (c *ScopeCache) setup(entry PlanEntry, sctx ScopeContext) *fixtureInstance {
	def := entry.Def
	deps := make(m.Args, len(entry.Deps))

	for _, depDef := range entry.Deps {
		depValue, ok := c.Value(depDef, sctx)
		if !ok {
			return &fixtureInstance{
				def: def,
				err: fmt.Errorf("fixture %s: dependency %s is not live", def.Name, depDef.Name),
			}
		}

		deps[depDef.Name] = depValue
	}

	value, teardown, err := runSetup(def, deps)
	if err != nil {
		slog.Error("fixture setup failed", "fixture", def.Name, "file", def.File, "error", err)
		return &fixtureInstance{def: def, err: err}
	}

	slog.Debug("fixture acquired", "fixture", def.Name, "scope", def.Scope)

	return &fixtureInstance{def: def, value: value, teardown: teardown}
}

func runSetup(def *m.FixtureDefinition, deps m.Args) (value any, teardown m.Teardown, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			teardown = nil
			err = fmt.Errorf("fixture %s setup panicked: %v", def.Name, r)
		}
	}()

	value, teardown, err = def.Body(deps)
	if err != nil {
		return nil, nil, fmt.Errorf("fixture %s setup: %w", def.Name, err)
	}

	return value, teardown, nil
}

// Value returns the cached value for a definition in the caller's scope
// context without running setup.
func (c *ScopeCache) Value(def *m.FixtureDefinition, sctx ScopeContext) (any, bool) {
	ik := instanceKey{def: def, key: scopeKeyFor(def, sctx)}

	c.mu.Lock()
	inst, ok := c.instances[ik]
	c.mu.Unlock()

	if !ok || inst.err != nil {
		return nil, false
	}

	return inst.value, true
}

// CloseScope tears down every instance keyed to the given scope instance,
// in strict reverse order of acquisition, and evicts the instances. A
// failing teardown is reported and does not prevent the remaining
// teardowns at the same scope close.
func (c *ScopeCache) CloseScope(level m.Scope, key string) []m.RunError {
	id := scopeID{level: level, key: key}

	c.mu.Lock()
	stack := c.stacks[id]
	delete(c.stacks, id)

	for ik, inst := range c.instances {
		if inst.def.Scope == level && ik.key == key {
			delete(c.instances, ik)
		}
	}
	c.mu.Unlock()

	var errs []m.RunError

	for i := len(stack) - 1; i >= 0; i-- {
		inst := stack[i]

		if err := runTeardown(inst); err != nil {
			slog.Error("fixture teardown failed", "fixture", inst.def.Name, "file", inst.def.File, "error", err)
			errs = append(errs, m.RunError{
				Kind:     m.ErrFixtureInitialization,
				Location: inst.def.Location(),
				Detail:   fmt.Sprintf("teardown: %v", err),
			})
		}
	}

	return errs
}

func runTeardown(inst *fixtureInstance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return inst.teardown()
}
