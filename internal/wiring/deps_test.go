package wiring_test

import (
	"context"
	"testing"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/app"
	_ "go.trai.ch/forge/internal/wiring"
)

// TestGraftResolution ensures the registered node graph resolves into
// usable application components.
func TestGraftResolution(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}

// graft.AssertDepsValid infers dependency IDs from the package name of
// the interface used in Dep[T]. Every node here resolves interfaces
// from the shared ports package, which the static analysis cannot tell
// apart, so the check is skipped.
func TestGraftDependencies(t *testing.T) {
	t.Skip("graft static dependency validation cannot distinguish nodes sharing the ports package")
	graft.AssertDepsValid(t, "../../internal")
}
