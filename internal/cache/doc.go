// Package cache implements the per-dataset cache engine that fronts the REST
// backend. Each Cache owns a keyed set of time-stamped entries and:
//
//   - coalesces concurrent fetches for the same key into one pending request;
//   - evicts in least-recently-accessed order whenever a Set would exceed the
//     byte budget (sizes are estimated from the JSON encoding);
//   - refreshes entries that are close to expiry in the background;
//   - sweeps expired entries on a fixed interval;
//   - optionally persists whole snapshots into a storage.Store and restores
//     them on construction when they are fresh enough.
//
// Only a caller's own foreground fetch error is ever returned. Refresh,
// persistence, warm and preload failures are logged and dropped.
package cache
