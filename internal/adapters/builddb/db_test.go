package builddb_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/adapters/builddb"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

func TestOpenFreshDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")

	db, err := builddb.Open(path, 1)
	require.NoError(t, err)
	defer db.Close()

	iteration, err := db.GetCurrentIteration()
	require.NoError(t, err)
	assert.Zero(t, iteration)

	result, err := db.LookupRuleResult([]byte("Nnothing"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRuleResultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")

	db, err := builddb.Open(path, 1)
	require.NoError(t, err)

	stored := ports.RuleResult{
		Value:        []byte{0x05, 0x01, 0x02},
		BuiltAt:      3,
		ComputedAt:   7,
		Dependencies: [][]byte{[]byte("Nin"), []byte("Cc1")},
	}
	require.NoError(t, db.SetRuleResult([]byte("Nout"), stored))
	require.NoError(t, db.SetCurrentIteration(7))
	require.NoError(t, db.Close())

	// Reopen and read back.
	db, err = builddb.Open(path, 1)
	require.NoError(t, err)
	defer db.Close()

	iteration, err := db.GetCurrentIteration()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), iteration)

	result, err := db.LookupRuleResult([]byte("Nout"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, stored, *result)
}

func TestRuleResultOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")

	db, err := builddb.Open(path, 1)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SetRuleResult([]byte("k"), ports.RuleResult{Value: []byte("v1"), BuiltAt: 1, ComputedAt: 1}))
	require.NoError(t, db.SetRuleResult([]byte("k"), ports.RuleResult{Value: []byte("v2"), BuiltAt: 2, ComputedAt: 2}))

	result, err := db.LookupRuleResult([]byte("k"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []byte("v2"), result.Value)
	assert.Equal(t, uint64(2), result.BuiltAt)
}

func TestSchemaVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")

	db, err := builddb.Open(path, 1)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = builddb.Open(path, 2)
	require.ErrorIs(t, err, domain.ErrSchemaVersionMismatch)
}

func TestEmptyDependencyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")

	db, err := builddb.Open(path, 1)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.SetRuleResult([]byte("k"), ports.RuleResult{Value: []byte("v")}))

	result, err := db.LookupRuleResult([]byte("k"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Dependencies)
}
