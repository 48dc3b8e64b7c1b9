// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management, request/response DTOs, and the
// conversions between daemon models and lightweight wire representations.
// CLI commands dial the socket per invocation and fail fast when the daemon
// is offline.
package ipc
