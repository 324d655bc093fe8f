// Package store persists episode records, collection jobs, per-job log
// lines, and analysis snapshots in SQLite.
//
// The Store owns every durability guarantee the pipeline relies on: videos
// are upserted by primary key with merge rules that never regress
// higher-priority fields or overwrite known season/episode values with
// unknowns, job rows receive exactly one terminal transition, and job logs
// are append-only. All writes are single-statement upserts or inserts so
// concurrent readers and writers only depend on SQLite's own write
// serialization.
//
// Treat this package as the single source of truth for persistence
// semantics; schema changes go into schema.sql and bump schemaVersion.
package store
