package model

// Status represents the outcome of a single test invocation.
type Status int

const (
	// Passed indicates the test body completed without error.
	Passed Status = iota
	// Failed indicates an assertion failure in the test body.
	Failed
	// Errored indicates a non-assertion error during fixture setup or the test body.
	Errored
	// Skipped indicates the invocation was skipped before acquiring fixtures.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Errored:
		return "errored"
	case Skipped:
		return "skipped"
	}

	return "unknown"
}

// Outcome is the per-invocation record exposed to the reporting collaborator.
type Outcome struct {
	Location Location
	Name     string
	Status   Status
	Message  string
}

// ErrorKind classifies structural errors surfaced by the run.
type ErrorKind string

const (
	// ErrFixtureNotFound means a requested name resolves to nothing visible.
	ErrFixtureNotFound ErrorKind = "fixture-not-found"
	// ErrInvalidFixture means a definition is broken at its declaration site.
	ErrInvalidFixture ErrorKind = "invalid-fixture"
	// ErrCyclicDependency means fixture resolution revisited a name on its own stack.
	ErrCyclicDependency ErrorKind = "cyclic-dependency"
	// ErrFixtureInitialization means a setup or teardown body raised.
	ErrFixtureInitialization ErrorKind = "fixture-initialization-error"
)

// RunError is a structural error attached to a location rather than to a
// single invocation outcome.
type RunError struct {
	Kind     ErrorKind
	Location Location
	Detail   string
}

func (e RunError) Error() string {
	return string(e.Kind) + " at " + e.Location.String() + ": " + e.Detail
}

// Summary holds the aggregate counts for a run.
type Summary struct {
	Passed  int
	Failed  int
	Errored int
	Skipped int
}

// Total returns the number of recorded invocations.
func (s Summary) Total() int {
	return s.Passed + s.Failed + s.Errored + s.Skipped
}

// RunResult is the full result of one run: per-invocation outcomes, the
// structural error list, and aggregate counts.
type RunResult struct {
	Outcomes []Outcome
	Errors   []RunError
	Summary  Summary
}

// Success reports whether the run had zero failed or errored outcomes and
// zero structural errors. Skips do not affect success.
func (r *RunResult) Success() bool {
	return r.Summary.Failed == 0 && r.Summary.Errored == 0 && len(r.Errors) == 0
}

// ExitCode maps Success to the process exit code.
func (r *RunResult) ExitCode() int {
	if r.Success() {
		return 0
	}

	return 1
}
