package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// ScriptRuntime is the JavaScript environment scripts are executed into.
// Executions are serialized; a cancelled execution is interrupted.
//
// Every Run executes in a fresh goja runtime that replays the programs of the
// earlier successful runs. The fresh runtime becomes current only when the new
// script completes, so a script that throws or is interrupted leaves no globals
// behind.
type ScriptRuntime struct {
	mu        sync.Mutex
	vm        *goja.Runtime
	committed []*goja.Program
}

// NewScriptRuntime creates a runtime exposing the global object as window and self.
func NewScriptRuntime() *ScriptRuntime {
	return &ScriptRuntime{vm: newVM()}
}

func newVM() *goja.Runtime {
	vm := goja.New()
	global := vm.GlobalObject()
	_ = vm.Set("window", global)
	_ = vm.Set("self", global)
	return vm
}

// Run compiles and executes src, interrupting it when ctx is done.
func (r *ScriptRuntime) Run(ctx context.Context, name, src string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prg, err := goja.Compile(name, src, false)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	vm := newVM()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	for _, p := range r.committed {
		if _, err := vm.RunProgram(p); err != nil {
			return fmt.Errorf("failed to restore runtime for %s: %w", name, err)
		}
	}
	if _, err := vm.RunProgram(prg); err != nil {
		return fmt.Errorf("failed to run %s: %w", name, err)
	}

	r.vm = vm
	r.committed = append(r.committed, prg)
	return nil
}

// Defined reports whether a global named name exists.
func (r *ScriptRuntime) Defined(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.vm.Get(name)
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// ScriptCompleter executes a script: fetched, compiled and run in Runtime.
type ScriptCompleter struct {
	Fetcher Fetcher
	Runtime *ScriptRuntime
}

func (c *ScriptCompleter) Complete(ctx context.Context, url string) error {
	body, err := c.Fetcher.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return c.Runtime.Run(ctx, url, string(body))
}
