package rule

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mewdb/mew/pkg/registry"
)

// TestEngineRunRespectsChainDepthAndIsNoopOnEmptyRegistry exercises §4.6's
// safety-limit invariants against an empty Registry: with no rules and
// nothing triggered, every round's candidate set is empty, so Run never
// touches its mutation.Context/pattern.Clock arguments and its outcome
// depends only on Limits.MaxChainDepth.
func TestEngineRunRespectsChainDepthAndIsNoopOnEmptyRegistry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("zero actions, and ErrMaxChainDepth iff MaxChainDepth<=0", prop.ForAll(
		func(maxChainDepth, maxActions int) bool {
			reg := registry.New()
			e := NewEngine(reg, Limits{MaxChainDepth: maxChainDepth, MaxActions: maxActions})

			actions, err := e.Run(nil, nil, nil)
			if actions != 0 {
				return false
			}
			if maxChainDepth <= 0 {
				return errors.Is(err, ErrMaxChainDepth)
			}
			return err == nil
		},
		gen.IntRange(-5, 20),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestEngineRunRespectsBudget checks that an already-elapsed Budget trips
// ErrBudget before MaxChainDepth would otherwise allow another round,
// again against an empty Registry so no pattern compilation is needed.
func TestEngineRunRespectsBudget(t *testing.T) {
	reg := registry.New()
	e := NewEngine(reg, Limits{MaxChainDepth: 100, Budget: time.Nanosecond})

	time.Sleep(time.Millisecond)

	actions, err := e.Run(nil, nil, nil)
	if actions != 0 {
		t.Fatalf("expected 0 actions, got %d", actions)
	}
	if !errors.Is(err, ErrBudget) {
		t.Fatalf("expected ErrBudget, got %v", err)
	}
}
