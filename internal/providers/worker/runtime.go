package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/host"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/messaging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/shared/id"
)

// Runtime wraps a goja VM that talks to native ports through the messaging
// manager. Ports a script opens live only for that script's execution.
type Runtime struct {
	id      id.WorkerID
	vm      *goja.Runtime
	config  Config
	manager *messaging.Manager
	mu      sync.Mutex

	// Per-execution state, protected by mu
	ctx    context.Context
	opened []port.External

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// New creates a new worker runtime
func New(config Config, manager *messaging.Manager) (*Runtime, error) {
	r := &Runtime{
		id:      id.NewWorkerID(),
		config:  config,
		manager: manager,
		ctx:     context.Background(),
		console: []LogEntry{},
		logger:  zap.NewNop(),
	}

	if err := r.setup(); err != nil {
		return nil, err
	}
	return r, nil
}

// WithMetrics adds metrics tracking to the runtime
func (r *Runtime) WithMetrics(metrics *monitoring.Metrics) *Runtime {
	r.metrics = metrics
	return r
}

// WithLogger sets the logger
func (r *Runtime) WithLogger(logger *zap.Logger) *Runtime {
	if logger != nil {
		r.logger = logger.Named("worker").With(zap.Stringer("worker_id", r.id))
	}
	return r
}

// ID returns the worker id
func (r *Runtime) ID() id.WorkerID {
	return r.id
}

// Execute runs JavaScript code with timeout and resource limits
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("worker runtime is closed")
	}

	timer := monitoring.NewTimer(r.metrics)
	start := time.Now()
	r.ctx = ctx
	r.opened = nil

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	// Setup interrupt handler
	deadline := time.NewTimer(r.config.Timeout)
	defer deadline.Stop()
	finished := make(chan struct{})
	var watcher sync.WaitGroup
	watcher.Add(1)
	go func() {
		defer watcher.Done()
		select {
		case <-deadline.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-finished:
		}
	}()

	val, err := r.vm.RunString(script)

	close(finished)
	watcher.Wait()
	r.vm.ClearInterrupt()

	opened := r.closeOpened()
	r.ctx = context.Background()

	result := &Result{
		PortsOpened: opened,
		Duration:    time.Since(start),
	}
	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	if err != nil {
		result.Error = err
		timer.Stop(executionStatus(err))
		r.logger.Debug("Script failed", zap.Error(err), zap.Duration("duration", result.Duration))
		return result, err
	}

	result.Value = exportValue(val)
	timer.Stop("ok")
	return result, nil
}

func executionStatus(err error) string {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return "interrupted"
	}
	return "error"
}

// setup creates a fresh VM and configures its globals
func (r *Runtime) setup() error {
	vm := goja.New()
	if r.config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStackSize)
	}
	r.vm = vm

	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers are no-ops: scripts run to completion synchronously
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		if err := vm.Set(name, noop); err != nil {
			return err
		}
	}

	if err := vm.Set("channel", r.channel); err != nil {
		return err
	}
	return vm.Set("ref", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(messaging.NewRef(call.Argument(0)))
	})
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

// channel implements channel() for scripts
func (r *Runtime) channel(goja.FunctionCall) goja.Value {
	if r.config.MaxPorts > 0 && len(r.opened)+2 > r.config.MaxPorts {
		panic(r.vm.NewTypeError("script may open at most %d ports", r.config.MaxPorts))
	}

	a, b := r.manager.Channel()
	r.opened = append(r.opened, a, b)

	obj := r.vm.NewObject()
	_ = obj.Set("port1", r.portObject(a))
	_ = obj.Set("port2", r.portObject(b))
	return obj
}

// portObject exposes one native port to scripts. Values wrapped with ref()
// come back from receive() as the same JavaScript objects.
func (r *Runtime) portObject(ext port.External) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("handle", ext.Handle().String())

	_ = obj.Set("postMessage", func(call goja.FunctionCall) goja.Value {
		if err := r.manager.Post(r.ctx, ext, call.Argument(0).Export()); err != nil {
			panic(r.vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	_ = obj.Set("receive", func(goja.FunctionCall) goja.Value {
		msg, ok, err := r.manager.Receive(r.ctx, ext)
		if err != nil {
			panic(r.vm.NewGoError(err))
		}
		if !ok {
			return goja.Null()
		}
		return r.vm.ToValue(msg.Payload)
	})

	_ = obj.Set("close", func(goja.FunctionCall) goja.Value {
		if err := r.manager.Close(ext); err != nil && !errors.Is(err, host.ErrUnknownHandle) {
			panic(r.vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	return obj
}

// closeOpened closes every port the last script opened and returns how many
// there were. Closing one end destroys its peer too.
func (r *Runtime) closeOpened() int {
	count := len(r.opened)
	for _, ext := range r.opened {
		if err := r.manager.Close(ext); err != nil && !errors.Is(err, host.ErrUnknownHandle) {
			r.logger.Warn("Failed to close script port", zap.Stringer("handle", ext.Handle()), zap.Error(err))
		}
	}
	r.opened = nil
	return count
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset replaces the VM so no script state carries over
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consoleMu.Lock()
	r.console = []LogEntry{}
	r.consoleMu.Unlock()

	if err := r.setup(); err != nil {
		return fmt.Errorf("reset worker %s: %w", r.id, err)
	}
	return nil
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
