// Package adapter implements the generic CRUD engine shared by every
// entity type. One Adapter instance serves one entity kind, configured
// with per-kind behaviour flags (duplicate handling, upsert redirects)
// and optional side effects (post-create hooks, mutation audit).
//
// The adapter owns persistence orchestration only: field validation
// lives in the entity types, serialization in the codecs, and status
// mapping in the API layer. All operations accept a context.Context and
// return sentinel errors checkable with errors.Is.
package adapter
