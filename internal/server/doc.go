// Package server implements the renderer-facing streaming server and the
// monitoring API. The streaming side owns its TCP listener and writes HTTP
// responses to the socket itself so the long-lived audio bodies are never
// chunked, never timed out, and carry exactly the headers DLNA and OpenHome
// renderers expect.
package server
