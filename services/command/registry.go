// Package command is the registry of named, typed commands that the remote
// voice-command dispatcher invokes.
package command

import (
	"context"
	"strings"
	"sync"
	"time"

	"voicebox-go/errcode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Namespace is the fixed prefix of every command name.
const Namespace = "self"

// Tool is one registered command.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	call        func(ctx context.Context, args Args) Result
}

// ToolInfo is the listing shape handed to the dispatcher.
type ToolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// Observer sees every invocation result, including failures.
type Observer interface {
	CommandCalled(name string, res Result, took time.Duration)
}

type Option func(*Registry)

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, o) }
}

// Registry maps names to handlers. Registration is append-only. The registry
// does not serialise handler invocations; stateful handlers lock for
// themselves.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*Tool
	order     []string
	observers []Observer
	log       zerolog.Logger
}

func New(logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		tools: map[string]*Tool{},
		log:   logger.With().Str("component", "command").Logger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return New(log.Logger) })

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry() }

// Register adds a command whose handler receives a bound P. The schema comes
// from P, so handler and advertised parameters cannot drift apart.
func Register[P any, PP interface {
	*P
	Params
}](r *Registry, name, description string, h func(ctx context.Context, p P) Result) error {
	var zero P
	schema := PP(&zero).Schema()
	return r.add(&Tool{
		Name:        name,
		Description: description,
		Schema:      schema,
		call: func(ctx context.Context, args Args) Result {
			var p P
			if err := PP(&p).Bind(args); err != nil {
				return Fail(errcode.Wrap(errcode.InvalidParams, name, err))
			}
			return h(ctx, p)
		},
	})
}

func (r *Registry) add(t *Tool) error {
	if !ValidName(t.Name) {
		return &errcode.E{C: errcode.InvalidName, Op: "register", Msg: t.Name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return &errcode.E{C: errcode.DuplicateCommand, Op: "register", Msg: t.Name}
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	r.log.Debug().Str("command", t.Name).Int("params", len(t.Schema)).Msg("registered")
	return nil
}

// ValidName reports whether name is "self.<seg>[.<seg>...]" with segments of
// lower-case letters, digits and underscores.
func ValidName(name string) bool {
	segs := strings.Split(name, ".")
	if len(segs) < 2 || segs[0] != Namespace {
		return false
	}
	for _, s := range segs[1:] {
		if s == "" {
			return false
		}
		for _, c := range s {
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_') {
				return false
			}
		}
	}
	return true
}

// Call validates args and runs the handler synchronously. The returned
// Result is never the zero value.
func (r *Registry) Call(ctx context.Context, name string, args Args) (res Result) {
	start := time.Now()
	callID := uuid.NewString()
	lg := r.log.With().Str("command", name).Str("call_id", callID).Logger()

	defer func() {
		if p := recover(); p != nil {
			lg.Error().Interface("panic", p).Msg("handler panicked")
			res = Fail(&errcode.E{C: errcode.HandlerPanic, Op: name})
		}
		if res.Kind() == KindInvalid {
			res = Fail(&errcode.E{C: errcode.Error, Op: name, Msg: "handler returned no result"})
		}
		if res.IsError() {
			lg.Warn().Str("code", string(res.Code())).Err(res.Err()).Msg("command failed")
		} else {
			lg.Debug().Str("kind", res.Kind().String()).Msg("command done")
		}
		r.notify(name, res, time.Since(start))
	}()

	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Fail(&errcode.E{C: errcode.UnknownCommand, Op: name})
	}
	norm, err := t.Schema.Validate(args)
	if err != nil {
		return Fail(err)
	}
	return t.call(ctx, norm)
}

func (r *Registry) notify(name string, res Result, took time.Duration) {
	for _, o := range r.observers {
		o.CommandCalled(name, res, took)
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Tools lists commands in registration order.
func (r *Registry) Tools() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolInfo, 0, len(r.order))
	for _, n := range r.order {
		t := r.tools[n]
		out = append(out, ToolInfo{Name: t.Name, Description: t.Description, InputSchema: t.Schema.JSON()})
	}
	return out
}
