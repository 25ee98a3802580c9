package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	m "rig.dev/pkg/rig/internal/model"
)

// RunState is the coordinator's lifecycle state.
type RunState int

const (
	// Collecting means fixtures are being registered and tests expanded.
	Collecting RunState = iota
	// Running means invocations are executing.
	Running
	// Closing means the session scope is being torn down.
	Closing
	// Done means the run finished and the result is final.
	Done
)

// Listener receives per-invocation progress events.
type Listener interface {
	TestStarted(inv *m.TestInvocation)
	TestFinished(outcome m.Outcome)
}

// Coordinator walks the collected test tree in an order that respects scope
// nesting and drives resolution, invocation and scope closing.
type Coordinator struct {
	listener         Listener
	strictDuplicates bool
	state            RunState
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithListener wires a progress listener into the coordinator.
func WithListener(l Listener) CoordinatorOption {
	return func(c *Coordinator) {
		c.listener = l
	}
}

// WithStrictDuplicates turns same-directory duplicate fixture definitions
// into structural errors instead of shadowed entries.
func WithStrictDuplicates() CoordinatorOption {
	return func(c *Coordinator) {
		c.strictDuplicates = true
	}
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{}
	for _, option := range options {
		option(c)
	}

	return c
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() RunState {
	return c.state
}

// Run executes the suite and returns the aggregated result.
//
// Invocations are grouped into a package tree so that scope closes fire in
// nested order: function after each invocation, module after the last
// invocation of a file, package after the last invocation under a directory
// subtree, session once at the very end. With threads > 1, disjoint
// top-level package subtrees run in parallel; within one subtree execution
// stays strictly sequential.
func (c *Coordinator) Run(ctx context.Context, suite *m.Suite, threads int) (*m.RunResult, error) {
	c.state = Collecting

	registry := NewRegistry()
	registry.StrictDuplicates = c.strictDuplicates

	for _, def := range suite.Fixtures {
		registry.Register(def)
	}

	root := buildPackageTree(suite.Tests)

	result := &m.RunResult{}
	result.Errors = append(result.Errors, registry.Errors()...)

	exec := &executor{
		planner:  NewPlanner(registry),
		cache:    NewScopeCache(),
		listener: c.listener,
	}

	c.state = Running

	runErr := c.runTree(ctx, exec, root, result, threads)

	c.state = Closing
	result.Errors = append(result.Errors, exec.cache.CloseScope(m.ScopeSession, "")...)

	for _, outcome := range result.Outcomes {
		switch outcome.Status {
		case m.Passed:
			result.Summary.Passed++
		case m.Failed:
			result.Summary.Failed++
		case m.Errored:
			result.Summary.Errored++
		case m.Skipped:
			result.Summary.Skipped++
		}
	}

	c.state = Done
	slog.Info("run finished",
		"passed", result.Summary.Passed,
		"failed", result.Summary.Failed,
		"errored", result.Summary.Errored,
		"skipped", result.Summary.Skipped,
		"errors", len(result.Errors),
	)

	return result, runErr
}

func (c *Coordinator) runTree(ctx context.Context, exec *executor, root *packageNode, result *m.RunResult, threads int) error {
	// Descend single-child chains to the first branching directory; that is
	// where disjoint subtrees start. A suite rooted under one directory still
	// partitions at its first real branch.
	path := []*packageNode{root}
	fork := root

	for len(fork.children) == 1 {
		fork = fork.children[0]
		path = append(path, fork)
	}

	if threads <= 1 || len(fork.children) < 2 {
		col := &collector{}
		exec.runPackage(ctx, root, col)
		result.Outcomes = append(result.Outcomes, col.outcomes...)
		result.Errors = append(result.Errors, col.errors...)

		return ctx.Err()
	}

	// Modules along the chain run first on the coordinating goroutine; then
	// each subtree under the fork gets its own worker. Module and package
	// fixtures are not shared across subtrees, so only the session scope
	// crosses workers.
	pathCol := &collector{}
	for _, node := range path {
		for _, mod := range node.modules {
			exec.runModule(ctx, mod, pathCol)
		}
	}

	cols := make([]*collector, len(fork.children))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(threads)

	for i, child := range fork.children {
		cols[i] = &collector{}

		group.Go(func() error {
			exec.runPackage(groupCtx, child, cols[i])
			return groupCtx.Err()
		})
	}

	runErr := group.Wait()

	result.Outcomes = append(result.Outcomes, pathCol.outcomes...)
	result.Errors = append(result.Errors, pathCol.errors...)

	for _, col := range cols {
		result.Outcomes = append(result.Outcomes, col.outcomes...)
		result.Errors = append(result.Errors, col.errors...)
	}

	// Close the chain's package scopes deepest first, after their subtrees.
	for i := len(path) - 1; i >= 0; i-- {
		result.Errors = append(result.Errors, exec.cache.CloseScope(m.ScopePackage, string(path[i].dir))...)
	}

	return runErr
}

// collector accumulates outcomes and errors for one worker's subtree so that
// parallel runs still report results in deterministic tree order.
type collector struct {
	outcomes []m.Outcome
	errors   []m.RunError
}

type moduleGroup struct {
	file        m.Path
	invocations []*m.TestInvocation
}

type packageNode struct {
	dir      m.Path
	modules  []*moduleGroup
	children []*packageNode
}

// buildPackageTree groups expanded invocations by file and nests files into
// their directory chain, preserving discovery order throughout.
func buildPackageTree(items []*m.TestItem) *packageNode {
	root := &packageNode{dir: "."}
	nodes := map[m.Path]*packageNode{".": root}
	modules := map[m.Path]*moduleGroup{}

	nodeFor := func(dir m.Path) *packageNode {
		if node, ok := nodes[dir]; ok {
			return node
		}

		chain := []m.Path{dir}
		for {
			parent := dir.Dir()
			if parent == dir {
				break
			}

			dir = parent
			if _, ok := nodes[dir]; ok {
				break
			}

			chain = append(chain, dir)
		}

		for i := len(chain) - 1; i >= 0; i-- {
			node := &packageNode{dir: chain[i]}

			// An absolute path chain ends at its own root ("/"), which is
			// not pre-seeded; hang it off the tree root.
			parent, ok := nodes[chain[i].Dir()]
			if !ok {
				parent = root
			}

			parent.children = append(parent.children, node)
			nodes[chain[i]] = node
		}

		return nodes[chain[0]]
	}

	for _, item := range items {
		file := item.Location.File

		mod, ok := modules[file]
		if !ok {
			mod = &moduleGroup{file: file}
			modules[file] = mod

			node := nodeFor(file.Dir())
			node.modules = append(node.modules, mod)
		}

		mod.invocations = append(mod.invocations, Expand(item)...)
	}

	return root
}

// executor runs one subtree's invocations against the shared scope cache.
type executor struct {
	planner  *Planner
	cache    *ScopeCache
	listener Listener
}

func (e *executor) runPackage(ctx context.Context, node *packageNode, col *collector) {
	for _, mod := range node.modules {
		e.runModule(ctx, mod, col)
	}

	for _, child := range node.children {
		e.runPackage(ctx, child, col)
	}

	col.errors = append(col.errors, e.cache.CloseScope(m.ScopePackage, string(node.dir))...)
}

func (e *executor) runModule(ctx context.Context, mod *moduleGroup, col *collector) {
	for _, inv := range mod.invocations {
		if ctx.Err() != nil {
			break
		}

		e.runInvocation(inv, mod.file, col)
	}

	col.errors = append(col.errors, e.cache.CloseScope(m.ScopeModule, string(mod.file))...)
}

func (e *executor) runInvocation(inv *m.TestInvocation, file m.Path, col *collector) {
	if e.listener != nil {
		e.listener.TestStarted(inv)
	}

	outcome := m.Outcome{Location: inv.Location(), Name: inv.ID}

	switch {
	case inv.Item.SkipReason != "":
		outcome.Status = m.Skipped
		outcome.Message = inv.Item.SkipReason
	default:
		outcome = e.execute(inv, file, col)
	}

	col.outcomes = append(col.outcomes, outcome)

	sctx := ScopeContext{Invocation: inv.Location().String(), Module: file}
	col.errors = append(col.errors, e.cache.CloseScope(m.ScopeFunction, sctx.Invocation)...)

	if e.listener != nil {
		e.listener.TestFinished(outcome)
	}
}

func (e *executor) execute(inv *m.TestInvocation, file m.Path, col *collector) m.Outcome {
	outcome := m.Outcome{Location: inv.Location(), Name: inv.ID}

	plan, planErrs := e.planner.BuildPlan(inv)
	if len(planErrs) > 0 {
		col.errors = append(col.errors, planErrs...)
		outcome.Status = m.Errored
		outcome.Message = joinErrorDetails(planErrs)

		return outcome
	}

	sctx := ScopeContext{Invocation: inv.Location().String(), Module: file}

	for _, entry := range plan.Entries {
		if _, err := e.cache.Acquire(entry, sctx); err != nil {
			outcome.Status = m.Errored
			outcome.Message = err.Error()

			return outcome
		}
	}

	args := make(m.Args, len(inv.ParamValues)+len(plan.Args))
	for name, value := range inv.ParamValues {
		args[name] = value
	}

	for name, def := range plan.Args {
		value, ok := e.cache.Value(def, sctx)
		if !ok {
			outcome.Status = m.Errored
			outcome.Message = fmt.Sprintf("fixture %s is not live after acquisition", def.Name)

			return outcome
		}

		args[name] = value
	}

	err := runBody(inv.Item.Body, args)

	var assertion *m.AssertionError

	switch {
	case err == nil:
		outcome.Status = m.Passed
	case errors.As(err, &assertion):
		outcome.Status = m.Failed
		outcome.Message = assertion.Msg
	default:
		outcome.Status = m.Errored
		outcome.Message = err.Error()
	}

	return outcome
}

func runBody(body m.TestBody, args m.Args) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return body(args)
}

func joinErrorDetails(errs []m.RunError) string {
	details := make([]string, 0, len(errs))
	for _, e := range errs {
		details = append(details, string(e.Kind)+": "+e.Detail)
	}

	return strings.Join(details, "; ")
}
