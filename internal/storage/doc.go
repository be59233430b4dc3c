// Package storage provides the durable key/value string store that cache
// engines persist their snapshots into. Values are opaque strings (JSON
// snapshots in practice) written whole per key: the file-backed store writes
// through a temp file + rename so readers observe either the old or the new
// value, never a torn mixture. A map-backed store serves memory-only
// deployments and tests.
package storage
