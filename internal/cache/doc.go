// Package cache implements the local two-tier cache that sits between the
// UI and the remote catalog.
//
// [Store] holds playlist membership (ordered track-id lists keyed by a
// server-supplied snapshot token) and shared track detail records, persisted
// together as one JSON document. [Reconciler] decides hit or miss for a
// requested playlist by comparing snapshot tokens, refetching membership
// only when the token has changed. [CoverFetcher] downloads missing cover
// assets best-effort and merges local paths into the track store.
// [Deduper] reduces a playlist's authoritative membership to
// first-occurrence-unique ids and commits the result remotely.
//
// The store is not internally synchronized: all mutation is serialized by
// the task runner's one-task-at-a-time discipline (see the tasks package).
package cache
