package tutor

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// FlowName is the registered name of the tutor Flow in Genkit.
const FlowName = "vidya/tutor"

// Flow is the type alias for the tutor's Genkit Flow.
// Exported for use in the api package with genkit.Handler().
type Flow = core.Flow[Input, Output, struct{}]

// Package-level singleton: genkit.DefineFlow panics when the same name is
// registered twice, so sync.Once guards it.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the tutor Flow singleton, initializing it on first call.
// Subsequent calls return the existing Flow (parameters are ignored).
func NewFlow(g *genkit.Genkit, agent *Agent) *Flow {
	flowOnce.Do(func() {
		flow = agent.DefineFlow(g)
	})
	return flow
}

// ResetFlowForTesting resets the Flow singleton so tests can initialize
// with fresh configurations. Not safe for concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

// DefineFlow registers the tutor Flow. Use NewFlow instead of calling this
// directly; registering the same Flow twice panics.
func (a *Agent) DefineFlow(g *genkit.Genkit) *Flow {
	return genkit.DefineFlow(g, FlowName,
		func(ctx context.Context, in Input) (Output, error) {
			return a.Answer(ctx, in)
		},
	)
}
