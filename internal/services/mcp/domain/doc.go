// Package domain defines the MCP tool and resource surface for the kingdom:
// input and result shapes, tool descriptors, and the handlers that bind
// protocol calls to the lifecycle service and the ambient context feeds.
package domain
