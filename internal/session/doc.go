// Package session holds per-browser state: identity claims, the serialized
// token cache, the pending login, and the chat transcript.
//
// A Session is loaded at the start of a request with Manager.Load, mutated by
// the handler, and written back with Manager.Save. Sessions live in a Store
// (in-memory LRU or valkey); the browser only holds a signed cookie with the
// session ID.
//
// The transcript is append-only during a turn and preserves insertion order.
// There is no size cap. Two tabs of the same session posting at once race on
// the transcript; the store keeps the last write.
package session
