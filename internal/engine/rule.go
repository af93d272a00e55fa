// Package engine implements the generic incremental build engine: a
// demand-driven evaluator over a graph of keyed rules with persistent
// result caching.
package engine

// KeyType is an opaque binary key identifying a rule.
type KeyType string

// ValueType is the serialized result of computing a rule.
type ValueType []byte

// Rule describes how to compute the value for a key, and whether a
// previously computed value may be reused.
type Rule struct {
	// Key identifies the rule.
	Key KeyType

	// CreateTask constructs the task which computes the rule's value.
	CreateTask func(e *BuildEngine) Task

	// IsValid reports whether the given prior value may be reused
	// without re-running the task. A nil IsValid means the prior value
	// is never reusable.
	IsValid func(value ValueType) bool
}

// Delegate is the interface the engine's client provides to resolve
// keys and observe cycles.
type Delegate interface {
	// LookupRule returns the rule to compute key. It is called at most
	// once per key per engine; the result is memoized. The delegate must
	// always return a usable rule.
	LookupRule(key KeyType) Rule

	// CycleDetected is invoked when a dependency request would close a
	// cycle. The slice holds the rules on the cycle path, from the first
	// repeated rule to the rule whose request closed the cycle, with the
	// repeated rule appended again at the end.
	CycleDetected(cycle []Rule)
}

// Task is the in-flight activity registered by a rule. All callbacks
// run on the engine goroutine.
type Task interface {
	// Start is called once, before any input values are provided. Input
	// requests issued here establish the task's dependencies.
	Start(e *BuildEngine)

	// ProvidePriorValue supplies the previously computed value for the
	// task's rule, when one exists.
	ProvidePriorValue(e *BuildEngine, value ValueType)

	// ProvideValue supplies the value for a requested input. Calls
	// arrive in completion order, not declaration order; inputID is the
	// correlator passed to TaskNeedsInput.
	ProvideValue(e *BuildEngine, inputID uint, value ValueType)

	// InputsAvailable is called once all requested inputs have been
	// provided. The task must eventually call TaskIsComplete, possibly
	// from an execution queue worker.
	InputsAvailable(e *BuildEngine)
}
