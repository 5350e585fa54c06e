package setup

import (
	"testing"

	"go.uber.org/fx"
)

func TestDependencyGraph(t *testing.T) {
	if err := fx.ValidateApp(Options()); err != nil {
		t.Fatalf("dependency graph is incomplete: %v", err)
	}
}
