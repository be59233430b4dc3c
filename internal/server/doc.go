// Package server hosts the Fiber HTTP service, the request middleware chain
// and the dataset registry that binds each [[Dataset]] to its cache and
// upstream fetcher. Handlers for /api and the /-/ diagnostics live in the
// proxy and routes packages and receive their dependencies explicitly.
package server
