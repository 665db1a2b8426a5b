// Package script lets users supply tree hooks as JavaScript functions.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dop251/goja"

	"github.com/artpar/treeview/internal/tree"
)

// Hook names looked up in a loaded script.
const (
	FuncRenderNode      = "renderNode"
	FuncOnNodePress     = "onNodePress"
	FuncOnNodeLongPress = "onNodeLongPress"
	FuncIsNodeExpanded  = "isNodeExpanded"
	FuncCollapsedHeight = "getCollapsedNodeHeight"
)

// ErrPromisePending is returned when a hook returns a promise that has not
// settled once the script's job queue has drained.
var ErrPromisePending = errors.New("promise did not settle")

// Engine wraps a Goja runtime holding the user's hook functions.
// Goja runtimes are not safe for concurrent use, so every call is serialized.
type Engine struct {
	mu      sync.Mutex
	runtime *goja.Runtime
	logger  *slog.Logger
}

// NewEngine creates an engine whose console output goes to logger.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		runtime: goja.New(),
		logger:  logger,
	}
	e.setupConsole()
	return e
}

// setupConsole maps console.log/info/warn/error onto the logger.
func (e *Engine) setupConsole() {
	console := e.runtime.NewObject()

	formatArgs := func(args []goja.Value) string {
		parts := make([]string, len(args))
		for i, arg := range args {
			parts[i] = fmt.Sprintf("%v", arg.Export())
		}
		return strings.Join(parts, " ")
	}

	levels := map[string]slog.Level{
		"log":   slog.LevelInfo,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, level := range levels {
		console.Set(name, func(call goja.FunctionCall) goja.Value {
			e.logger.Log(context.Background(), level, formatArgs(call.Arguments), "source", "script")
			return goja.Undefined()
		})
	}

	e.runtime.Set("console", console)
}

// LoadFile runs the script at path.
func (e *Engine) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}
	return e.Load(path, string(content))
}

// Load runs src so that its top-level functions become available.
func (e *Engine) Load(name, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	program, err := goja.Compile(name, src, true)
	if err != nil {
		return fmt.Errorf("syntax error: %w", err)
	}
	if _, err := e.runtime.RunProgram(program); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}

// Has reports whether the script defines a function called name.
func (e *Engine) Has(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := goja.AssertFunction(e.runtime.Get(name))
	return ok
}

// Call invokes the named function and returns its settled result.
// Returned promises are resolved; rejections become errors.
func (e *Engine) Call(ctx context.Context, name string, args ...any) (goja.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn, ok := goja.AssertFunction(e.runtime.Get(name))
	if !ok {
		return nil, fmt.Errorf("function %s is not defined", name)
	}

	if ctx.Done() != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stop := make(chan struct{})
		exited := make(chan struct{})
		go func() {
			defer close(exited)
			select {
			case <-ctx.Done():
				e.runtime.Interrupt("context cancelled")
			case <-stop:
			}
		}()
		// The watcher must be gone before the lock is released, or a late
		// cancellation would interrupt the next caller.
		defer func() {
			close(stop)
			<-exited
			e.runtime.ClearInterrupt()
		}()
	}
	e.runtime.ClearInterrupt()

	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = e.runtime.ToValue(arg)
	}

	result, err := fn(goja.Undefined(), values...)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return settle(name, result)
}

func settle(name string, v goja.Value) (goja.Value, error) {
	if v == nil {
		return goja.Undefined(), nil
	}
	p, ok := v.Export().(*goja.Promise)
	if !ok {
		return v, nil
	}
	switch p.State() {
	case goja.PromiseStateFulfilled:
		return p.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("%s rejected: %v", name, p.Result().Export())
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrPromisePending)
	}
}

// nodeArg converts a node for use inside the runtime.
func nodeArg(n tree.Node) map[string]any {
	return map[string]any(n)
}
