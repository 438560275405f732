package testbed

import (
	"github.com/spaghettifunk/vulcan/engine"
	"github.com/spaghettifunk/vulcan/engine/core"
	"github.com/spaghettifunk/vulcan/engine/renderer"
)

type TestGame struct {
	*engine.Game
	logger *core.Logger
}

type gameState struct {
	objects     []*renderer.RenderableObject
	elapsed     float64
	lastReport  float64
	updateCount uint64
}

func NewTestGame(logger *core.Logger) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Name:  "Vulcan Testbed",
			State: &gameState{},
		},
		logger: logger,
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

// Initialize creates the demo scene: a rectangle and a triangle at the origin.
func (g *TestGame) Initialize(e *engine.Engine) error {
	g.logger.Info("Initializing %s...", g.Name)
	state := g.State.(*gameState)

	for _, o := range []struct{ name, model string }{
		{"DUMMY", "rectangle"},
		{"TestTriangle", "triangle"},
	} {
		object, err := e.CreateObject(o.name, o.model)
		if err != nil {
			return err
		}
		state.objects = append(state.objects, object)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	state.updateCount++

	if state.elapsed-state.lastReport >= 10 {
		g.logger.Debug("%d objects on screen after %.0fs (%d updates).", len(state.objects), state.elapsed, state.updateCount)
		state.lastReport = state.elapsed
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	g.logger.Info("Shutting down %s after %.1fs.", g.Name, state.elapsed)
	state.objects = nil
	return nil
}
