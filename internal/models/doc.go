// Package models defines the data model shared across the playlist manager.
//
// [Track] is the unit record of the two-tier cache: identifying fields are
// immutable once stored, and only the local cover path is attached after the
// fact. [Playlist] carries the remote metadata needed for display plus the
// snapshot token that drives cache reconciliation.
package models
