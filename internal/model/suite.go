// Package model defines the data structures for fixture resolution and test execution.
package model

import "path"

// Path represents a slash-separated path inside a test suite.
type Path string

// Dir returns the directory portion of the path.
func (p Path) Dir() Path {
	return Path(path.Dir(string(p)))
}

// Scope is the cache lifetime level of a fixture.
type Scope string

const (
	// ScopeFunction caches a fixture per test invocation.
	ScopeFunction Scope = "function"
	// ScopeModule caches a fixture per test file.
	ScopeModule Scope = "module"
	// ScopePackage caches a fixture per declaring directory subtree.
	ScopePackage Scope = "package"
	// ScopeSession caches a fixture once for the whole run.
	ScopeSession Scope = "session"
)

// rank orders scopes from narrowest lifetime to broadest.
func (s Scope) rank() int {
	switch s {
	case ScopeFunction:
		return 0
	case ScopeModule:
		return 1
	case ScopePackage:
		return 2
	case ScopeSession:
		return 3
	}

	return 0
}

// NarrowerThan reports whether s has a shorter lifetime than other. A fixture
// may only depend on fixtures of equal or broader scope.
func (s Scope) NarrowerThan(other Scope) bool {
	return s.rank() < other.rank()
}

// ParseScope maps a declared scope string to a Scope.
// The second return value is false for unrecognized values.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "function":
		return ScopeFunction, true
	case "module":
		return ScopeModule, true
	case "package":
		return ScopePackage, true
	case "session":
		return ScopeSession, true
	}

	return "", false
}

// Location identifies a named symbol (test or fixture) inside a suite file.
type Location struct {
	File Path
	Name string
}

func (l Location) String() string {
	return string(l.File) + "::" + l.Name
}

// Dir returns the directory containing the location's file.
func (l Location) Dir() Path {
	return l.File.Dir()
}

// Args is the merged parameter/fixture value mapping passed to a body.
type Args map[string]any

// Teardown is the second half of a generator-style fixture body.
// It is invoked exactly once when the owning scope instance closes.
type Teardown func() error

// FixtureBody runs the setup half of a fixture. Generator-style bodies
// return a non-nil Teardown alongside the value.
type FixtureBody func(deps Args) (any, Teardown, error)

// TestBody runs one test invocation with its resolved arguments.
// Returning an *AssertionError marks the invocation failed; any other
// error (or panic) marks it errored.
type TestBody func(args Args) error

// FixtureDefinition is an immutable fixture declaration.
// Its identity is (declaring directory, name): two definitions sharing a
// name but declared in different directories are independent entities.
type FixtureDefinition struct {
	Name         string
	File         Path
	Dir          Path
	Scope        Scope
	RawScope     string
	Dependencies []string
	IsGenerator  bool
	Body         FixtureBody
}

// Location returns the definition site.
func (d *FixtureDefinition) Location() Location {
	return Location{File: d.File, Name: d.Name}
}

// ParametrizeSpec contributes a set of named argument tuples to a test.
// Multiple specs on one test compose by Cartesian product.
type ParametrizeSpec struct {
	Names []string
	Rows  [][]any
}

// TestItem is one declared test function as produced by discovery.
type TestItem struct {
	Location    Location
	Params      []string
	Parametrize []ParametrizeSpec
	SkipReason  string
	Body        TestBody
}

// TestInvocation is one concrete run of a test body. Parametrization
// expands a TestItem into one invocation per value combination; each
// invocation owns its own function-scope namespace.
type TestInvocation struct {
	Item        *TestItem
	ID          string
	ParamValues Args
}

// Location returns the invocation site, using the expanded invocation ID.
func (inv *TestInvocation) Location() Location {
	return Location{File: inv.Item.Location.File, Name: inv.ID}
}

// Suite is the discovery collaborator's output: ordered fixture
// definitions and ordered test items.
type Suite struct {
	Root     Path
	Fixtures []*FixtureDefinition
	Tests    []*TestItem
}
