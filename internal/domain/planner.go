package domain

import (
	"fmt"
	"strings"

	m "rig.dev/pkg/rig/internal/model"
)

// PlanEntry is one fixture acquisition step. Deps holds the resolved
// definitions for the fixture's own dependency names, in declaration order;
// each of them precedes this entry in the plan.
type PlanEntry struct {
	Def  *m.FixtureDefinition
	Deps []*m.FixtureDefinition
}

// Plan is the ordered acquisition plan for one test invocation. Entries are
// topologically ordered (dependencies first) and deduplicated, so a diamond
// dependency appears exactly once. Args maps each fixture-satisfied test
// parameter to its resolved definition.
type Plan struct {
	Entries []PlanEntry
	Args    map[string]*m.FixtureDefinition
}

// Planner expands a test invocation's declared parameter names into a Plan.
type Planner struct {
	registry *Registry
}

// NewPlanner creates a Planner over the given registry.
func NewPlanner(registry *Registry) *Planner {
	return &Planner{registry: registry}
}

// BuildPlan resolves every declared parameter of the invocation that is not
// satisfied by parametrization data. All independently failing names are
// collected before returning, so a test missing two fixtures reports both.
// A non-empty error slice means the invocation cannot run.
func (p *Planner) BuildPlan(inv *m.TestInvocation) (*Plan, []m.RunError) {
	b := &planBuilder{
		registry: p.registry,
		plan: &Plan{
			Args: make(map[string]*m.FixtureDefinition),
		},
		planned: make(map[*m.FixtureDefinition]bool),
		failed:  make(map[*m.FixtureDefinition]bool),
		testLoc: inv.Location(),
	}

	for _, param := range inv.Item.Params {
		if _, supplied := inv.ParamValues[param]; supplied {
			continue
		}

		def, ok := b.resolve(param, inv.Item.Location, nil)
		if ok {
			b.plan.Args[param] = def
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}

	return b.plan, nil
}

// planBuilder accumulates one plan, keeping the in-progress resolution stack
// for cycle detection and per-definition planned/failed state so shared
// dependencies resolve once.
type planBuilder struct {
	registry *Registry
	plan     *Plan
	planned  map[*m.FixtureDefinition]bool
	failed   map[*m.FixtureDefinition]bool
	errs     []m.RunError
	testLoc  m.Location
}

func (b *planBuilder) resolve(name string, from m.Location, stack []*m.FixtureDefinition) (*m.FixtureDefinition, bool) {
	def, found := b.registry.Resolve(name, from)
	if !found {
		b.errs = append(b.errs, m.RunError{
			Kind:     m.ErrFixtureNotFound,
			Location: b.testLoc,
			Detail:   fmt.Sprintf("fixture %q requested by %s is not visible from %s", name, from, from.Dir()),
		})

		return nil, false
	}

	for i, onStack := range stack {
		if onStack == def {
			b.errs = append(b.errs, m.RunError{
				Kind:     m.ErrCyclicDependency,
				Location: b.testLoc,
				Detail:   fmt.Sprintf("cyclic fixture dependency: %s", formatCycle(stack[i:], def)),
			})

			return nil, false
		}
	}

	if b.planned[def] {
		return def, true
	}

	if b.failed[def] {
		return def, false
	}

	resolved := true
	deps := make([]*m.FixtureDefinition, 0, len(def.Dependencies))

	for _, depName := range def.Dependencies {
		depDef, ok := b.resolve(depName, def.Location(), append(stack, def))
		if !ok {
			resolved = false
			continue
		}

		// A broader-scoped fixture must not capture a narrower-scoped one:
		// the captured instance would outlive its own scope.
		if depDef.Scope.NarrowerThan(def.Scope) {
			b.errs = append(b.errs, m.RunError{
				Kind:     m.ErrInvalidFixture,
				Location: def.Location(),
				Detail: fmt.Sprintf("%s-scoped fixture %q depends on %s-scoped fixture %q",
					def.Scope, def.Name, depDef.Scope, depDef.Name),
			})

			resolved = false

			continue
		}

		deps = append(deps, depDef)
	}

	if !resolved {
		b.failed[def] = true
		return def, false
	}

	b.plan.Entries = append(b.plan.Entries, PlanEntry{Def: def, Deps: deps})
	b.planned[def] = true

	return def, true
}

func formatCycle(stack []*m.FixtureDefinition, closing *m.FixtureDefinition) string {
	names := make([]string, 0, len(stack)+1)
	for _, def := range stack {
		names = append(names, def.Name)
	}

	names = append(names, closing.Name)

	return strings.Join(names, " -> ")
}
