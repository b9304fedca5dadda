// Package audio provides streaming format negotiation, PCM sample encoding,
// streaming WAV/RF64 container headers, and the per-renderer channel stream
// that bridges captured samples into an HTTP response body.
package audio
