// Package domain exposes catalog operations as MCP tools and resources.
//
// Handlers read the current bundle from a BundleSource on every call, so a
// reloading source is picked up without re-registering tools.
package domain
