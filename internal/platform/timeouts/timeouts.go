// Package timeouts defines shared timeout constants used across the kingdom
// service. Centralizing these values prevents drift between call sites and
// makes the durations discoverable.
package timeouts

import "time"

// EngineCall caps a single transformation engine request. Generative
// backends routinely take tens of seconds on large documents.
const EngineCall = 60 * time.Second

// StoreCall caps a single document store read or write.
const StoreCall = 10 * time.Second

// IntegrationCall caps a single weather/news/media HTTP request.
const IntegrationCall = 10 * time.Second

// ToolCall caps one MCP tool invocation end to end, including the full
// lifecycle cycle it may trigger.
const ToolCall = 90 * time.Second

// Shutdown limits how long the HTTP transport waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
