// Package entity defines the domain entities served by Bohrium Core and
// the structural contract the generic adapter and codecs operate against.
//
// Every entity type provides:
//   - a natural identifier (meaning varies per type: a device's hardware
//     id, a user's hashed id, or the opaque store key for message types)
//   - a Load step that populates and validates writable fields from a
//     decoded key/value mapping
//   - a Schema describing the ordered field set and its writable/read-only
//     partition, used by the codecs for serialization and form rendering
//
// The user_id field is always derived server-side by hashing the
// authenticated caller's platform identity with a fixed salt; it is never
// accepted as client input.
//
// Each type lives under a fixed ancestor root scope unique to that type,
// which bounds uniqueness queries and bulk deletion to "all entities of
// this type".
package entity
