// Package websearch provides semantic search over arbitrary websites.
// Given a site URL and a natural language query it crawls the site,
// splits pages into overlapping passages, embeds them, and answers
// queries by nearest-neighbor retrieval over a per-site collection.
//
// This package contains domain types and interfaces following Ben
// Johnson's Standard Package Layout. Implementations live in
// subdirectories named after their primary dependency (e.g., sqlite/,
// goquery/, gemini/).
package websearch
