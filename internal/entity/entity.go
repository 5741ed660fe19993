package entity

import (
	"context"
	"time"
)

// KV is one decoded object's worth of request fields, as produced by a
// codec's Decode. Values are uninterpreted strings; Load applies the
// per-type validation and conversion.
type KV map[string]string

// Identity describes the authenticated caller. Writes are attributed to
// it: user_id fields are derived from UserID via HashUserID, and name
// defaults fall back to Nickname.
type Identity struct {
	UserID   string
	Email    string
	Nickname string
	Admin    bool
}

// Base carries the store-managed metadata shared by every entity type.
// The fields are excluded from the persisted data document; the store
// keeps them in dedicated columns.
type Base struct {
	Key      string    `json:"-"`
	UserID   string    `json:"-"`
	Created  time.Time `json:"-"`
	Modified time.Time `json:"-"`
	Revision int64     `json:"-"`
}

// Meta returns the shared metadata. Promoted through embedding so the
// adapter can bind store records without knowing the concrete type.
func (b *Base) Meta() *Base { return b }

// metaFields copies the metadata into a flat field map under the shared
// read-only key names.
func (b *Base) metaFields(fields map[string]any) {
	fields["user_id"] = b.UserID
	fields["created"] = b.Created
	fields["modified"] = b.Modified
	fields["revision"] = b.Revision
	fields["key"] = b.Key
}

// Schema describes an entity type's field set for serialization and form
// rendering. Keys is the declared order; Writable and ReadOnly partition
// it (writable fields come first by convention). Rows and Columns are
// per-field HTML form sizing hints.
type Schema struct {
	Keys     []string
	Writable []string
	ReadOnly []string
	Rows     map[string]int
	Columns  map[string]int
}

// NewSchema builds a Schema from the declared key order, with the first
// writable keys writable and the remainder read-only.
func NewSchema(keys []string, writable int, rows, columns map[string]int) Schema {
	return Schema{
		Keys:     keys,
		Writable: keys[:writable],
		ReadOnly: keys[writable:],
		Rows:     rows,
		Columns:  columns,
	}
}

// Entity is the structural contract the generic adapter and the codecs
// operate against. Implementations are plain structs embedding Base.
type Entity interface {
	// Kind returns the entity type tag (also the store kind).
	Kind() string

	// ID returns the natural identifier, or "" when none has been
	// assigned yet (key-addressed types before their first write).
	ID() string

	// Link returns the canonical URL path for this instance
	// (includeID=true) or its collection (includeID=false).
	Link(includeID bool) string

	// Load populates the writable fields from kv, applying validators
	// and per-field defaults. It is a full overwrite of the writable
	// fields, not a partial patch. Read-only metadata is untouched.
	Load(caller Identity, kv KV) error

	// Fields returns the complete flat field map, metadata included.
	Fields() map[string]any

	// Schema returns the type's field schema.
	Schema() Schema

	// Meta returns the store-managed metadata.
	Meta() *Base
}

// Resolver enriches a decoded kv mapping before Load, typically by
// resolving a reference field against the store (a subscription's topic
// to its publication key). Registered on a Descriptor at wiring time so
// entity types stay free of store dependencies.
type Resolver func(ctx context.Context, kv KV) (KV, error)

// Descriptor is the per-type configuration the adapter is generic over.
type Descriptor struct {
	// Kind is the entity type tag.
	Kind string

	// New constructs an empty instance.
	New func() Entity

	// KeyAddressed marks types whose natural id is the opaque store key
	// itself (publications and messages). Lookups for these are direct
	// key fetches rather than indexed natural-id queries.
	KeyAddressed bool

	// Schema mirrors the instances' Schema(); kept here so codecs can be
	// built without an instance.
	Schema Schema

	// Resolve, when set, runs before Load on create and update.
	Resolve Resolver
}

// Entity kind tags.
const (
	KindDevice       = "device"
	KindUser         = "user"
	KindConfig       = "config"
	KindPublication  = "publication"
	KindSubscription = "subscription"
	KindDMessage     = "dmessage"
	KindPMessage     = "pmessage"
	KindUMessage     = "umessage"
)

// roots maps each kind to its ancestor root scope id. Initialized once;
// never mutated after startup.
var roots = map[string]string{
	KindDevice:       "devices",
	KindUser:         "users",
	KindConfig:       "configs",
	KindPublication:  "publications",
	KindSubscription: "subscriptions",
	KindDMessage:     "dmessages",
	KindPMessage:     "pmessages",
	KindUMessage:     "umessages",
}

// Root returns the ancestor root scope id for a kind.
func Root(kind string) string {
	return roots[kind]
}
