package engine

import (
	"bytes"
	"sync"

	"go.trai.ch/zerr"

	"go.trai.ch/forge/internal/core/ports"
)

// ErrCycleDetected is returned by Build when evaluating the requested
// key closed a dependency cycle.
var ErrCycleDetected = zerr.New("cycle detected while building")

type ruleState uint8

const (
	// ruleIncomplete: not yet demanded in this build; may hold a prior
	// result from the database or an earlier build.
	ruleIncomplete ruleState = iota
	// ruleScanning: prior dependencies are being checked for changes.
	ruleScanning
	// ruleInProgress: the rule's task is running.
	ruleInProgress
	// ruleComplete: computed or revalidated in some build; current for
	// this build iff result.computedAt equals the build iteration.
	ruleComplete
)

// ruleResult is the in-memory record of a rule's last outcome.
type ruleResult struct {
	value      ValueType
	builtAt    uint64
	computedAt uint64
	deps       []KeyType
}

// waiter is a task waiting for a rule's value.
type waiter struct {
	ti      *taskInfo
	inputID uint
	// discard marks ordering-only edges (TaskMustFollow): the value is
	// not delivered.
	discard bool
}

// scanState tracks an in-flight validity scan over prior dependencies.
type scanState struct {
	deps []KeyType
	next int
}

type ruleInfo struct {
	rule       Rule
	state      ruleState
	result     ruleResult
	haveResult bool

	scan        *scanState
	waiters     []waiter
	scanWaiters []*ruleInfo
	// pendingDeps are the rules this rule currently waits on, either as
	// scan dependencies or task inputs. They form the edges walked by
	// cycle detection.
	pendingDeps []*ruleInfo
}

type taskInfo struct {
	task       Task
	ri         *ruleInfo
	started    bool
	waitCount  int
	deps       []KeyType
	discovered []KeyType
}

type completion struct {
	task        Task
	value       ValueType
	forceChange bool
}

// BuildEngine evaluates a rule-defined dependency graph on demand,
// computing each key at most once per build and reusing cached results
// when their validity scans pass.
//
// The engine is single-threaded: all bookkeeping happens on the
// goroutine that called Build. TaskIsComplete is the one entry point
// safe to call from execution queue workers; completions are funneled
// back onto the build goroutine.
type BuildEngine struct {
	delegate Delegate

	rules     map[KeyType]*ruleInfo
	taskInfos map[Task]*taskInfo
	ready     []*taskInfo

	currentIteration uint64
	cycleFound       bool

	db    ports.BuildDB
	trace *Trace

	mu       sync.Mutex
	finished []completion
	wake     chan struct{}

	dbErr error
}

// New creates a build engine using the given delegate.
func New(delegate Delegate) *BuildEngine {
	return &BuildEngine{
		delegate:  delegate,
		rules:     make(map[KeyType]*ruleInfo),
		taskInfos: make(map[Task]*taskInfo),
		wake:      make(chan struct{}, 1),
	}
}

// AttachDB binds a persistence backend. Prior results are restored
// lazily as keys are demanded; the backend has already verified its
// schema version on open.
func (e *BuildEngine) AttachDB(db ports.BuildDB) error {
	iteration, err := db.GetCurrentIteration()
	if err != nil {
		return zerr.Wrap(err, "unable to attach build database")
	}
	e.db = db
	e.currentIteration = iteration
	return nil
}

// EnableTracing opens a trace sink at path. Tracing is additive and
// never affects build semantics.
func (e *BuildEngine) EnableTracing(path string) error {
	t, err := NewTrace(path)
	if err != nil {
		return err
	}
	e.trace = t
	return nil
}

// Build computes and returns the value for key, driving the graph as
// needed. Concurrent invocations are not supported; sequential builds
// on one engine share the in-memory result table.
func (e *BuildEngine) Build(key KeyType) (ValueType, error) {
	e.currentIteration++
	e.cycleFound = false

	e.trace.buildStarted(e.currentIteration)

	root := e.getRuleInfo(key)
	e.demandRule(root, nil)

	for !e.cycleFound && !e.isComplete(root) {
		if len(e.ready) > 0 {
			ti := e.ready[0]
			e.ready = e.ready[1:]
			e.runTask(ti)
			continue
		}
		if e.drainFinished() {
			continue
		}
		// Nothing ready and nothing finished: external jobs are still in
		// flight. Block until a worker reports a completion.
		<-e.wake
	}

	e.trace.buildEnded(e.currentIteration)

	if e.cycleFound {
		return nil, ErrCycleDetected
	}
	if e.dbErr != nil {
		return nil, e.dbErr
	}
	if e.db != nil {
		if err := e.db.SetCurrentIteration(e.currentIteration); err != nil {
			return nil, zerr.Wrap(err, "unable to record build iteration")
		}
	}
	return root.result.value, nil
}

// Close flushes and closes the trace sink, if any.
func (e *BuildEngine) Close() error {
	return e.trace.close()
}

func (e *BuildEngine) isComplete(ri *ruleInfo) bool {
	return ri.state == ruleComplete && ri.result.computedAt == e.currentIteration
}

// getRuleInfo resolves key to its rule info, looking the rule up via
// the delegate (at most once per key) and restoring any persisted
// result on first touch.
func (e *BuildEngine) getRuleInfo(key KeyType) *ruleInfo {
	if ri, ok := e.rules[key]; ok {
		return ri
	}

	e.trace.ruleLookup(key)
	ri := &ruleInfo{rule: e.delegate.LookupRule(key)}

	if e.db != nil {
		prior, err := e.db.LookupRuleResult([]byte(key))
		if err != nil {
			e.recordDBError(err)
		} else if prior != nil {
			ri.result = ruleResult{
				value:      prior.Value,
				builtAt:    prior.BuiltAt,
				computedAt: prior.ComputedAt,
				deps:       decodeDeps(prior.Dependencies),
			}
			ri.haveResult = true
		}
	}

	e.rules[key] = ri
	return ri
}

func decodeDeps(deps [][]byte) []KeyType {
	if len(deps) == 0 {
		return nil
	}
	out := make([]KeyType, len(deps))
	for i, d := range deps {
		out[i] = KeyType(d)
	}
	return out
}

// demandRule brings ri toward completion, registering w (when non-nil)
// to receive the value. Returns true if the value was delivered
// synchronously.
func (e *BuildEngine) demandRule(ri *ruleInfo, w *waiter) bool {
	e.normalizeState(ri)

	switch ri.state {
	case ruleComplete:
		if w != nil {
			e.deliver(ri, *w)
		}
		return true

	case ruleScanning, ruleInProgress:
		if w != nil {
			if e.checkForCycle(w.ti.ri, ri) {
				return false
			}
			ri.waiters = append(ri.waiters, *w)
			w.ti.ri.pendingDeps = append(w.ti.ri.pendingDeps, ri)
		}
		return false

	default: // ruleIncomplete
		e.startProcessing(ri)
		if e.isComplete(ri) {
			if w != nil {
				e.deliver(ri, *w)
			}
			return true
		}
		if w != nil {
			if e.checkForCycle(w.ti.ri, ri) {
				return false
			}
			ri.waiters = append(ri.waiters, *w)
			w.ti.ri.pendingDeps = append(w.ti.ri.pendingDeps, ri)
		}
		return false
	}
}

// normalizeState downgrades results computed in earlier builds so they
// are rescanned in this one.
func (e *BuildEngine) normalizeState(ri *ruleInfo) {
	if ri.state == ruleComplete && ri.result.computedAt != e.currentIteration {
		ri.state = ruleIncomplete
	}
}

// startProcessing decides whether ri's prior value can be scanned for
// reuse or whether its task must run.
func (e *BuildEngine) startProcessing(ri *ruleInfo) {
	if !ri.haveResult || ri.rule.IsValid == nil || !ri.rule.IsValid(ri.result.value) {
		e.startRuleTask(ri)
		return
	}

	// The value itself validates; now every previously recorded input
	// must be brought up to date without having changed.
	ri.state = ruleScanning
	ri.scan = &scanState{deps: ri.result.deps}
	e.continueScan(ri)
}

// continueScan advances ri's validity scan, pausing when a dependency
// is still being computed and aborting to a task run when one changed.
func (e *BuildEngine) continueScan(ri *ruleInfo) {
	scan := ri.scan
	for scan.next < len(scan.deps) {
		depKey := scan.deps[scan.next]
		scan.next++
		dri := e.getRuleInfo(depKey)

		if e.demandForScan(ri, dri) {
			if dri.result.builtAt > ri.result.computedAt {
				// Input changed in this run; the prior value is stale.
				ri.scan = nil
				e.trace.ruleInvalidated(ri.rule.Key, dri.rule.Key)
				e.startRuleTask(ri)
				return
			}
			continue
		}
		// Paused: dri completion will resume the scan.
		return
	}

	// All recorded inputs are current and unchanged; reuse.
	ri.scan = nil
	ri.result.computedAt = e.currentIteration
	e.markComplete(ri)
	e.trace.ruleReused(ri.rule.Key)
}

// demandForScan demands dri on behalf of ri's scan. Returns true when
// dri is complete for this build.
func (e *BuildEngine) demandForScan(ri, dri *ruleInfo) bool {
	e.normalizeState(dri)

	switch dri.state {
	case ruleComplete:
		return true
	case ruleIncomplete:
		e.startProcessing(dri)
		if e.isComplete(dri) {
			return true
		}
	}

	if e.checkForCycle(ri, dri) {
		return false
	}
	dri.scanWaiters = append(dri.scanWaiters, ri)
	ri.pendingDeps = append(ri.pendingDeps, dri)
	return false
}

// startRuleTask registers ri's task and queues it for starting.
func (e *BuildEngine) startRuleTask(ri *ruleInfo) {
	ri.state = ruleInProgress
	task := ri.rule.CreateTask(e)
	ti := &taskInfo{task: task, ri: ri}
	e.taskInfos[task] = ti
	e.ready = append(e.ready, ti)
	e.trace.taskStarted(ri.rule.Key)
}

// runTask issues the task's start callbacks and, if no inputs were
// requested, its inputsAvailable.
func (e *BuildEngine) runTask(ti *taskInfo) {
	ti.task.Start(e)
	if ti.ri.haveResult {
		ti.task.ProvidePriorValue(e, ti.ri.result.value)
	}
	ti.started = true
	if ti.waitCount == 0 {
		ti.task.InputsAvailable(e)
	}
}

// TaskNeedsInput records a synchronous dependency of task on key. The
// input's value is delivered via ProvideValue correlated by inputID.
func (e *BuildEngine) TaskNeedsInput(task Task, key KeyType, inputID uint) {
	ti := e.taskInfos[task]
	ti.deps = append(ti.deps, key)
	ti.waitCount++
	e.trace.inputRequest(ti.ri.rule.Key, key)

	dri := e.getRuleInfo(key)
	e.demandRule(dri, &waiter{ti: ti, inputID: inputID})
}

// TaskMustFollow records an ordering-only edge: task will not receive
// inputsAvailable until key has been computed, but the value is not
// delivered.
func (e *BuildEngine) TaskMustFollow(task Task, key KeyType) {
	ti := e.taskInfos[task]
	ti.deps = append(ti.deps, key)
	ti.waitCount++
	e.trace.inputRequest(ti.ri.rule.Key, key)

	dri := e.getRuleInfo(key)
	e.demandRule(dri, &waiter{ti: ti, discard: true})
}

// TaskDiscoveredDependency records a dependency declared after
// execution. The task does not wait on it; once the task completes the
// engine brings it up to date in this build, and it participates in
// future validity scans.
func (e *BuildEngine) TaskDiscoveredDependency(task Task, key KeyType) {
	ti := e.taskInfos[task]
	ti.discovered = append(ti.discovered, key)
	e.trace.discoveredDependency(ti.ri.rule.Key, key)
}

// TaskIsComplete reports the task's computed value. Safe to call from
// any goroutine; when forceChange is set, dependents treat the value
// as changed even if its bytes match the prior value.
func (e *BuildEngine) TaskIsComplete(task Task, value ValueType, forceChange bool) {
	e.mu.Lock()
	e.finished = append(e.finished, completion{task: task, value: value, forceChange: forceChange})
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *BuildEngine) drainFinished() bool {
	e.mu.Lock()
	batch := e.finished
	e.finished = nil
	e.mu.Unlock()

	for _, c := range batch {
		e.processCompletion(c)
	}
	return len(batch) > 0
}

func (e *BuildEngine) processCompletion(c completion) {
	ti := e.taskInfos[c.task]
	ri := ti.ri

	valueChanged := c.forceChange || !ri.haveResult || !bytes.Equal(ri.result.value, c.value)

	ri.result.value = c.value
	ri.result.computedAt = e.currentIteration
	if valueChanged {
		ri.result.builtAt = e.currentIteration
	}
	ri.result.deps = append(append([]KeyType(nil), ti.deps...), ti.discovered...)
	ri.haveResult = true

	delete(e.taskInfos, c.task)
	e.trace.taskComplete(ri.rule.Key, valueChanged)
	e.markComplete(ri)

	// Discovered dependencies are not waited on; demand them now so they
	// carry a result from this build and a later validity scan does not
	// see them as newly built.
	for _, key := range ti.discovered {
		e.demandRule(e.getRuleInfo(key), nil)
	}
}

// markComplete finalizes ri for this build, persists the result, and
// releases tasks and scans waiting on it.
func (e *BuildEngine) markComplete(ri *ruleInfo) {
	ri.state = ruleComplete
	e.persist(ri)

	waiters := ri.waiters
	ri.waiters = nil
	for _, w := range waiters {
		removePendingDep(w.ti.ri, ri)
		e.deliver(ri, w)
	}

	scanWaiters := ri.scanWaiters
	ri.scanWaiters = nil
	for _, sri := range scanWaiters {
		removePendingDep(sri, ri)
		if ri.result.builtAt > sri.result.computedAt {
			sri.scan = nil
			e.trace.ruleInvalidated(sri.rule.Key, ri.rule.Key)
			e.startRuleTask(sri)
		} else {
			e.continueScan(sri)
		}
	}
}

func (e *BuildEngine) deliver(ri *ruleInfo, w waiter) {
	if !w.discard {
		w.ti.task.ProvideValue(e, w.inputID, ri.result.value)
	}
	w.ti.waitCount--
	if w.ti.started && w.ti.waitCount == 0 {
		w.ti.task.InputsAvailable(e)
	}
}

func (e *BuildEngine) persist(ri *ruleInfo) {
	if e.db == nil {
		return
	}
	deps := make([][]byte, len(ri.result.deps))
	for i, d := range ri.result.deps {
		deps[i] = []byte(d)
	}
	err := e.db.SetRuleResult([]byte(ri.rule.Key), ports.RuleResult{
		Value:        ri.result.value,
		BuiltAt:      ri.result.builtAt,
		ComputedAt:   ri.result.computedAt,
		Dependencies: deps,
	})
	if err != nil {
		e.recordDBError(err)
	}
}

func (e *BuildEngine) recordDBError(err error) {
	if e.dbErr == nil {
		e.dbErr = zerr.Wrap(err, "build database failure")
	}
}

func removePendingDep(ri, dep *ruleInfo) {
	for i, d := range ri.pendingDeps {
		if d == dep {
			ri.pendingDeps = append(ri.pendingDeps[:i], ri.pendingDeps[i+1:]...)
			return
		}
	}
}

// checkForCycle reports whether making `from` wait on `to` would close
// a cycle through rules already awaiting inputs. On detection the
// delegate is notified with the rule path and the build is aborted.
func (e *BuildEngine) checkForCycle(from, to *ruleInfo) bool {
	if from == nil {
		return false
	}

	path := e.findPath(to, from, map[*ruleInfo]bool{})
	if path == nil {
		return false
	}

	cycle := make([]Rule, 0, len(path)+1)
	for _, ri := range path {
		cycle = append(cycle, ri.rule)
	}
	cycle = append(cycle, to.rule)

	e.trace.cycleDetected(cycle)
	e.delegate.CycleDetected(cycle)
	e.cycleFound = true
	return true
}

// findPath returns the pending-dependency path from start to goal
// inclusive, or nil.
func (e *BuildEngine) findPath(start, goal *ruleInfo, seen map[*ruleInfo]bool) []*ruleInfo {
	if seen[start] {
		return nil
	}
	seen[start] = true

	if start == goal {
		return []*ruleInfo{start}
	}
	for _, next := range start.pendingDeps {
		if sub := e.findPath(next, goal, seen); sub != nil {
			return append([]*ruleInfo{start}, sub...)
		}
	}
	return nil
}
