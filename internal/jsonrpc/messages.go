// Package jsonrpc implements the subset of JSON-RPC 2.0 framing needed by the
// server: inbound requests and outbound responses. Notifications are accepted
// on the wire but answered like requests; see the dispatch package for the
// rationale.
package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the only JSON-RPC version the server speaks.
const ProtocolVersion = "2.0"

// Request is an inbound JSON-RPC request. A nil ID means the peer sent a
// notification-shaped message.
type Request struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Method         string          `json:"method"`
	Params         json.RawMessage `json:"params,omitempty"`
	ID             *RequestID      `json:"id,omitempty"`
}

// Valid reports whether the request satisfies the JSON-RPC 2.0 envelope
// requirements: correct version marker and a non-empty method.
func (r *Request) Valid() bool {
	return r != nil && r.JSONRPCVersion == ProtocolVersion && r.Method != ""
}

// Response is an outbound JSON-RPC response. Exactly one of Result and Error
// is set. The id field is always serialized, as null when the request carried
// none (or could not be parsed at all).
type Response struct {
	JSONRPCVersion string          `json:"jsonrpc"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *Error          `json:"error,omitempty"`
	ID             *RequestID      `json:"id"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewResultResponse builds a success response, marshaling result eagerly so
// the caller learns about unmarshalable results at build time rather than at
// write time.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Result:         raw,
		ID:             id,
	}, nil
}

// NewErrorResponse builds an error response with the given code. data may be
// nil.
func NewErrorResponse(id *RequestID, code ErrorCode, message string, data any) *Response {
	return &Response{
		JSONRPCVersion: ProtocolVersion,
		Error:          &Error{Code: code, Message: message, Data: data},
		ID:             id,
	}
}
