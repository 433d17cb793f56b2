// Package ratelimit provides tools to work with rate limits imposed by the
// ingestion service.
//
// Limits are tracked per category, with an empty category acting as a
// wildcard that applies to everything. When both a category limit and the
// wildcard are set, the deadline furthest into the future governs, so a
// broad limit is never overridden by a narrower one that expired earlier.
package ratelimit
