// Package registry implements the tool registry: an ordered, process-lifetime
// set of tool descriptors paired with their handlers. The registry owns
// argument validation and the error downgrade policy: handler failures become
// successful tool results that describe the failure, never protocol errors.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"timeweathermcp/internal/logctx"
	"timeweathermcp/mcp"
)

// ErrToolNotFound is returned by Call when no tool matches the requested name.
var ErrToolNotFound = errors.New("tool not found")

// InvalidArgumentsError reports a schema violation in a tools/call request.
// Detail is safe to surface to the client.
type InvalidArgumentsError struct {
	Tool   string
	Detail string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %s", e.Tool, e.Detail)
}

// Handler executes one tool invocation. Arguments have already been validated
// against the tool's input schema. A returned error is a tool-level failure;
// the registry downgrades it to an error-describing result.
type Handler func(ctx context.Context, req *mcp.CallToolParams) (*mcp.CallToolResult, error)

// Definition pairs a tool descriptor with its handler.
type Definition struct {
	Descriptor mcp.Tool
	Handler    Handler
}

// Registry holds the registered tools. Registration happens once at process
// start; afterwards the registry is effectively immutable and safe for
// concurrent Call and List without external synchronization.
type Registry struct {
	mu       sync.RWMutex
	tools    []mcp.Tool
	handlers map[string]Handler

	log *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for invocation telemetry. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// New builds a Registry from the given definitions. Duplicate names are an
// error: the tool set is static and a silent overwrite would hide a wiring
// bug.
func New(defs []Definition, opts ...Option) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler, len(defs)),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, def := range defs {
		if err := r.register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(def Definition) error {
	name := def.Descriptor.Name
	if name == "" {
		return errors.New("tool name must not be empty")
	}
	if def.Handler == nil {
		return fmt.Errorf("tool %q has no handler", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("tool %q registered twice", name)
	}
	r.tools = append(r.tools, def.Descriptor)
	r.handlers[name] = def.Handler
	return nil
}

// List returns the tool descriptors in registration order. The slice is a
// copy; callers may hold it across requests.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Call looks up the named tool, validates arguments against its input schema,
// and runs the handler. Lookup and validation failures are returned as errors
// (ErrToolNotFound, *InvalidArgumentsError). Handler failures and panics are
// downgraded to an error-describing CallToolResult with IsError set.
func (r *Registry) Call(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	handler := r.handlers[name]
	var schema *mcp.ToolInputSchema
	for i := range r.tools {
		if r.tools[i].Name == name {
			schema = &r.tools[i].InputSchema
			break
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if err := validateArguments(schema, arguments); err != nil {
		return nil, &InvalidArgumentsError{Tool: name, Detail: err.Error()}
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: name})
	r.log.DebugContext(ctx, "tool.call.start")

	result, err := r.invoke(ctx, handler, &mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		// Tool-level failure: the exchange still succeeds, the result says
		// what went wrong.
		r.log.WarnContext(ctx, "tool.call.fail", slog.String("err", err.Error()))
		return Errorf("Error running tool %s: %v", name, err), nil
	}
	if result == nil {
		result = &mcp.CallToolResult{Content: []mcp.ContentBlock{}}
	}
	r.log.DebugContext(ctx, "tool.call.ok")
	return result, nil
}

// invoke runs the handler with panic containment so a misbehaving tool cannot
// take down the transport.
func (r *Registry) invoke(ctx context.Context, handler Handler, req *mcp.CallToolParams) (result *mcp.CallToolResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.ErrorContext(ctx, "tool.call.panic", slog.Any("panic", rec))
			result = nil
			err = fmt.Errorf("tool panicked: %v", rec)
		}
	}()
	return handler(ctx, req)
}

// TextResult builds a success result holding a single text block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextBlock(text)}}
}

// Errorf builds an error result with a single formatted text block.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.ContentBlock{mcp.TextBlock(fmt.Sprintf(format, a...))},
		IsError: true,
	}
}
