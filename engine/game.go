package engine

// Game holds the hooks the engine calls around its own work.
type Game struct {
	Name  string
	State interface{}
	// FnInitialize runs once the device is up and before the command buffers
	// are recorded. Objects created here are drawn.
	FnInitialize Initialize
	FnUpdate     Update
	FnShutdown   Shutdown
}

type Initialize func(e *Engine) error
type Update func(deltaTime float64) error
type Shutdown func() error
