package domain

import (
	"sync"

	m "rig.dev/pkg/rig/internal/model"
)

// recorder collects setup/teardown/test events in execution order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.all() {
		if e == event {
			n++
		}
	}

	return n
}

// fixtureDef builds a scripted fixture that records its lifecycle into rec.
// The fixture value is its own name.
func fixtureDef(rec *recorder, name string, file m.Path, scope string, deps ...string) *m.FixtureDefinition {
	return &m.FixtureDefinition{
		Name:         name,
		File:         file,
		Dir:          file.Dir(),
		RawScope:     scope,
		Dependencies: deps,
		IsGenerator:  true,
		Body: func(_ m.Args) (any, m.Teardown, error) {
			rec.add("setup " + name)

			return name, func() error {
				rec.add("teardown " + name)
				return nil
			}, nil
		},
	}
}

// testItem builds a scripted test that records its run into rec and passes.
func testItem(rec *recorder, name string, file m.Path, params ...string) *m.TestItem {
	return &m.TestItem{
		Location: m.Location{File: file, Name: name},
		Params:   params,
		Body: func(_ m.Args) error {
			rec.add("test " + name)
			return nil
		},
	}
}

func singleInvocation(item *m.TestItem) *m.TestInvocation {
	return Expand(item)[0]
}
