// Package database owns the local SQLite store: schema creation,
// versioned migrations, and lifecycle (open/close/reset). Entity
// repositories in the subpackages are the only mutators of the
// movies/favorites/watchlist tables; the sync manager only touches
// sync_queue rows through the syncqueue repository.
package database
