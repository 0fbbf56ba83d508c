package fx

import (
	"testing"

	"arzmania-cards/internal/server"

	"go.uber.org/fx"
)

func TestModuleGraph(t *testing.T) {
	if err := fx.ValidateApp(Module, fx.Invoke(func(*server.CardServer) {})); err != nil {
		t.Fatalf("fx.ValidateApp() error = %v", err)
	}
}
