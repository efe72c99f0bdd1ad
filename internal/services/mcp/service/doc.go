// Package service assembles and runs the kingdom MCP server: it registers
// tools and resources, selects the transport, and shuts down with the
// process context.
package service
