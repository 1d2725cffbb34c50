// Package service wires MCP transports to the catalog tools.
//
// It knows how to run MCP over stdio or streamable HTTP and delegates tool
// semantics to the domain package.
package service
