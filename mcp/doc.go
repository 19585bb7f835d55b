// Package mcp exposes the action-dispatch surface as Model Context Protocol
// tools. Each tool call builds one action, runs it through the dispatcher
// against the server's target and renders the Result; handles left open by
// handle-producing tools are tracked in a registry until a stop tool
// terminates them.
package mcp
