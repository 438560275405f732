package core

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrDeviceUnavailable    = errors.New("no physical device meets the requirements")
	ErrQueueUnavailable     = errors.New("queue families cannot be resolved")
	ErrSwapchainUnsupported = errors.New("surface reports no formats or present modes")
	ErrMemoryTypeNotFound   = errors.New("no suitable memory type")
	ErrAcquireTimeout       = errors.New("swapchain image acquisition timed out")
	ErrResourceNotFound     = errors.New("resource not found")
	ErrResourceInUse        = errors.New("resource still in use")
)

// InitStage names the initialization step that failed.
type InitStage uint8

const (
	StageWindow InitStage = iota + 1
	StageInstance
	StageSurface
	StageRenderer
)

func (s InitStage) String() string {
	switch s {
	case StageWindow:
		return "window"
	case StageInstance:
		return "instance"
	case StageSurface:
		return "surface"
	case StageRenderer:
		return "renderer"
	default:
		return "unknown"
	}
}

// InitError carries the failed stage so the process can exit with its code.
type InitError struct {
	Stage InitStage
	Err   error
}

func NewInitError(stage InitStage, err error) *InitError {
	return &InitError{Stage: stage, Err: err}
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s initialization failed: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Code is the process exit code for the stage.
func (e *InitError) Code() int {
	return int(e.Stage)
}

// ExitCode maps any error to a process exit code: 0 for nil, the stage code
// for an InitError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ie *InitError
	if errors.As(err, &ie) {
		return ie.Code()
	}
	return 1
}
