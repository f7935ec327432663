// Package services contains the HTTP API clients consumed by the rest of the
// application.
//
// [Catalog] is the remote catalog surface (Spotify Web API): playlist and
// track reads, search, membership mutation, and liked-track management.
// [Recommender] is the AI recommendation surface (Gemini): free-text and
// playlist-seeded track suggestions plus model discovery.
//
// Both are plain interfaces so the cache, task, and UI layers can be tested
// against in-memory fakes.
package services
