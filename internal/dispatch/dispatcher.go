// Package dispatch implements the protocol core: it turns one decoded
// JSON-RPC request into exactly one JSON-RPC response. It knows the three
// session-lifecycle and tool methods and nothing about transports; both the
// line and HTTP transports are adapters around Dispatcher.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"timeweathermcp/internal/jsonrpc"
	"timeweathermcp/internal/logctx"
	"timeweathermcp/mcp"
	"timeweathermcp/registry"
)

// Method names routed by the dispatcher.
const (
	methodInitialize = "initialize"
	methodToolsList  = "tools/list"
	methodToolsCall  = "tools/call"
)

// Dispatcher routes JSON-RPC requests to the tool registry and the static
// initialize handshake. It holds no per-request state and is safe for
// concurrent use.
type Dispatcher struct {
	info mcp.ImplementationInfo
	reg  *registry.Registry
	log  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New builds a Dispatcher serving the given registry under the given server
// identity.
func New(info mcp.ImplementationInfo, reg *registry.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{info: info, reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleRaw parses one raw JSON-RPC message and dispatches it. It always
// returns a response: a parse failure yields -32700 with a null id, an
// envelope violation -32600. Transports call this once per framed message.
func (d *Dispatcher) HandleRaw(ctx context.Context, raw []byte) *jsonrpc.Response {
	var req jsonrpc.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		d.log.WarnContext(ctx, "rpc.parse.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "Parse error", nil)
	}
	if !req.Valid() {
		d.log.WarnContext(ctx, "rpc.request.invalid", slog.String("method", req.Method))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "Invalid Request", nil)
	}
	return d.Handle(ctx, &req)
}

// Handle routes a validated request. Every request yields exactly one
// terminal response; unexpected failures are caught at this boundary and
// reported as -32603 with a generic message.
func (d *Dispatcher) Handle(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String()})
	d.log.DebugContext(ctx, "rpc.dispatch")

	var (
		result any
		rpcErr *jsonrpc.Response
	)
	switch req.Method {
	case methodInitialize:
		result = d.initializeResult()
	case methodToolsList:
		result = mcp.ListToolsResult{Tools: d.reg.List()}
	case methodToolsCall:
		result, rpcErr = d.callTool(ctx, req)
	default:
		d.log.InfoContext(ctx, "rpc.method.unknown")
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Method not found: "+req.Method, nil)
	}
	if rpcErr != nil {
		return rpcErr
	}

	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		d.log.ErrorContext(ctx, "rpc.result.marshal.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
	}
	return resp
}

func (d *Dispatcher) initializeResult() mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
		},
		ServerInfo: d.info,
	}
}

// callTool extracts tools/call params and invokes the registry. Registry-level
// failures map to protocol errors here; tool-level failures were already
// downgraded to results by the registry.
func (d *Dispatcher) callTool(ctx context.Context, req *jsonrpc.Request) (any, *jsonrpc.Response) {
	var params mcp.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params", err.Error())
		}
	}
	if params.Name == "" {
		return nil, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params: missing tool name", nil)
	}

	result, err := d.reg.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		var invalidArgs *registry.InvalidArgumentsError
		switch {
		case errors.Is(err, registry.ErrToolNotFound):
			return nil, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, err.Error(), nil)
		case errors.As(err, &invalidArgs):
			return nil, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params", invalidArgs.Detail)
		default:
			d.log.ErrorContext(ctx, "rpc.tool.fail", slog.String("err", err.Error()))
			return nil, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil)
		}
	}
	return result, nil
}
