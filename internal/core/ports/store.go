package ports

// RuleResult is the persisted outcome of one engine rule.
type RuleResult struct {
	// Value is the serialized build value.
	Value []byte

	// BuiltAt is the build iteration in which Value last changed.
	BuiltAt uint64

	// ComputedAt is the build iteration in which the rule was last
	// computed or revalidated.
	ComputedAt uint64

	// Dependencies are the keys the rule depended on, in request order.
	Dependencies [][]byte
}

// BuildDB is the persistence backend the engine checkpoints results
// through between runs.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildDB interface {
	// GetCurrentIteration returns the iteration recorded by the last
	// completed build, or zero for a fresh database.
	GetCurrentIteration() (uint64, error)

	// SetCurrentIteration records the iteration of the current build.
	SetCurrentIteration(iteration uint64) error

	// LookupRuleResult returns the persisted result for key, or nil if
	// none is stored.
	LookupRuleResult(key []byte) (*RuleResult, error)

	// SetRuleResult stores the result for key.
	SetRuleResult(key []byte, result RuleResult) error

	// Close releases the backend.
	Close() error
}
