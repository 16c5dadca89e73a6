// Package app bootstraps chatgate: it resolves the configuration, selects the
// credential source, wires the session store, OAuth client, completion gateway
// and HTTP server, and runs the server until shutdown.
package app
