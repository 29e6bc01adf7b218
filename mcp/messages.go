package mcp

import "encoding/json"

// InitializeRequest starts the protocol handshake.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
}

// InitializeResult carries the server identity and capabilities back to the
// client.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// ListToolsResult returns the registered tools in registration order.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the params object of a tools/call request. Arguments are
// kept raw so the registry can validate them against the tool's schema before
// any decoding happens.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the result object of a tools/call response. IsError marks
// a tool-level failure that is still a successful JSON-RPC exchange.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}
