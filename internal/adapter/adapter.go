package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bohrium-dev/bohrium-core/internal/entity"
	"github.com/bohrium-dev/bohrium-core/internal/infrastructure/logging"
	"github.com/bohrium-dev/bohrium-core/internal/store"
)

// Options selects the per-kind create and update behaviour.
type Options struct {
	// AllowDuplicates permits multiple instances sharing one natural id.
	AllowDuplicates bool

	// CreateIfMissing makes UpdateOne on an unknown id delegate to
	// Create instead of failing (PUT-to-missing creates).
	CreateIfMissing bool

	// UpdateIfExists makes Create on an existing natural id redirect to
	// UpdateOne instead of failing. Ignored when AllowDuplicates is set.
	UpdateIfExists bool
}

// Hook runs after a child entity has been committed under its parent.
// The write is already durable when the hook fires; a hook error is
// logged and never rolls the write back.
type Hook func(ctx context.Context, parent, child entity.Entity) error

// Recorder receives one event per committed mutation. Implementations
// must not block the request path.
type Recorder interface {
	RecordMutation(ctx context.Context, kind, op, id string, revision int64)
}

// Adapter is the CRUD engine for one entity kind.
type Adapter struct {
	typ        entity.Descriptor
	parentType entity.Descriptor
	store      store.Store
	opts       Options
	logger     *logging.Logger
	postCreate Hook
	recorder   Recorder
}

// Option configures optional Adapter behaviour.
type Option func(*Adapter)

// WithParent sets the parent kind used by CreateChild to resolve the
// ancestor scope. Defaults to the adapter's own kind.
func WithParent(parent entity.Descriptor) Option {
	return func(a *Adapter) { a.parentType = parent }
}

// WithPostCreate registers the hook invoked after CreateChild commits.
func WithPostCreate(hook Hook) Option {
	return func(a *Adapter) { a.postCreate = hook }
}

// WithRecorder registers a mutation recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Adapter) { a.recorder = r }
}

// New creates an Adapter for one entity kind.
func New(typ entity.Descriptor, st store.Store, opts Options, logger *logging.Logger, options ...Option) *Adapter {
	a := &Adapter{
		typ:        typ,
		parentType: typ,
		store:      st,
		opts:       opts,
		logger:     logger.With("component", "adapter", "kind", typ.Kind),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Kind returns the entity kind this adapter serves.
func (a *Adapter) Kind() string { return a.typ.Kind }

// Create validates kv, constructs a new instance and persists it under
// the kind's root scope. On a natural-id collision the behaviour follows
// Options: redirect to UpdateOne (UpdateIfExists), fail with
// ErrDuplicate, or insert anyway (AllowDuplicates).
func (a *Adapter) Create(ctx context.Context, caller entity.Identity, kv entity.KV) (entity.Entity, error) {
	return a.createIn(ctx, caller, entity.Root(a.typ.Kind), kv)
}

func (a *Adapter) createIn(ctx context.Context, caller entity.Identity, parentKey string, kv entity.KV) (entity.Entity, error) {
	kv, err := a.resolve(ctx, kv)
	if err != nil {
		return nil, err
	}

	e := a.typ.New()
	if err := e.Load(caller, kv); err != nil {
		return nil, err
	}

	// Key-addressed kinds take the fresh store key as their id, so a
	// collision is impossible and the duplicate check is skipped.
	if !a.typ.KeyAddressed {
		keys, err := a.store.KeysByNaturalID(ctx, a.typ.Kind, e.ID())
		if err != nil {
			return nil, fmt.Errorf("checking for existing %s: %w", a.typ.Kind, err)
		}
		if len(keys) > 0 && !a.opts.AllowDuplicates {
			if a.opts.UpdateIfExists {
				return a.UpdateOne(ctx, caller, e.ID(), kv)
			}
			return nil, fmt.Errorf("%w: %s %q", ErrDuplicate, a.typ.Kind, e.ID())
		}
	}

	meta := e.Meta()
	meta.Key = uuid.NewString()

	rec := &store.Record{
		Kind:      a.typ.Kind,
		Key:       meta.Key,
		Parent:    parentKey,
		NaturalID: a.naturalID(e),
		UserID:    meta.UserID,
	}
	rec.Data, err = json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s fields: %w", a.typ.Kind, err)
	}

	if err := a.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating %s: %w", a.typ.Kind, err)
	}

	meta.Created = rec.Created
	meta.Modified = rec.Modified
	meta.Revision = rec.Revision

	a.record(ctx, "create", e)
	return e, nil
}

// ReadAll returns every instance under the kind's root scope, most
// recently modified first. An empty scope yields an empty slice.
func (a *Adapter) ReadAll(ctx context.Context) ([]entity.Entity, error) {
	return a.readScope(ctx, entity.Root(a.typ.Kind))
}

// ReadChildren returns every child instance under the parent identified
// by parentID, most recently modified first.
func (a *Adapter) ReadChildren(ctx context.Context, parentID string) ([]entity.Entity, error) {
	parentRec, err := a.parentRecord(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return a.readScope(ctx, parentRec.Key)
}

func (a *Adapter) readScope(ctx context.Context, parentKey string) ([]entity.Entity, error) {
	records, err := a.store.ListByScope(ctx, a.typ.Kind, parentKey)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", a.typ.Kind, err)
	}

	entities := make([]entity.Entity, 0, len(records))
	for _, rec := range records {
		e, err := a.bind(rec)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// ReadOne returns the single instance with the given id. Key-addressed
// kinds resolve by direct key fetch; others by an indexed natural-id
// query. Zero matches is ErrNotFound, more than one ErrAmbiguous.
func (a *Adapter) ReadOne(ctx context.Context, id string) (entity.Entity, error) {
	rec, err := a.recordByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.bind(rec)
}

// UpdateOne overwrites the writable fields of the instance identified by
// id from kv and increments its revision by one. An unknown id either
// delegates to Create (CreateIfMissing) or fails with ErrNotFound.
func (a *Adapter) UpdateOne(ctx context.Context, caller entity.Identity, id string, kv entity.KV) (entity.Entity, error) {
	rec, err := a.recordByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) && a.opts.CreateIfMissing {
			return a.Create(ctx, caller, kv)
		}
		return nil, err
	}

	kv, err = a.resolve(ctx, kv)
	if err != nil {
		return nil, err
	}

	e := a.typ.New()
	meta := e.Meta()
	meta.Key = rec.Key
	meta.Created = rec.Created

	if err := e.Load(caller, kv); err != nil {
		return nil, err
	}

	rec.NaturalID = a.naturalID(e)
	rec.UserID = meta.UserID
	rec.Revision++
	rec.Data, err = json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s fields: %w", a.typ.Kind, err)
	}

	if err := a.store.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %q", ErrNotFound, a.typ.Kind, id)
		}
		return nil, fmt.Errorf("updating %s: %w", a.typ.Kind, err)
	}

	meta.Modified = rec.Modified
	meta.Revision = rec.Revision

	a.record(ctx, "update", e)
	return e, nil
}

// UpdateAll always fails: a collection-wide overwrite has no meaningful
// semantics here.
func (a *Adapter) UpdateAll(ctx context.Context) error {
	return ErrUpdateAll
}

// DeleteAll removes every instance under the kind's root scope and
// returns the deleted store keys. An empty scope is not an error.
func (a *Adapter) DeleteAll(ctx context.Context) ([]string, error) {
	keys, err := a.store.KeysByScope(ctx, a.typ.Kind, entity.Root(a.typ.Kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s keys: %w", a.typ.Kind, err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	if _, err := a.store.DeleteKeys(ctx, a.typ.Kind, keys); err != nil {
		return nil, fmt.Errorf("deleting %s: %w", a.typ.Kind, err)
	}

	for _, key := range keys {
		a.recordKey(ctx, "delete", key)
	}
	return keys, nil
}

// DeleteChildren removes every child instance under the parent
// identified by parentID and returns the deleted store keys. A parent
// with no children is not an error.
func (a *Adapter) DeleteChildren(ctx context.Context, parentID string) ([]string, error) {
	parentRec, err := a.parentRecord(ctx, parentID)
	if err != nil {
		return nil, err
	}

	keys, err := a.store.KeysByScope(ctx, a.typ.Kind, parentRec.Key)
	if err != nil {
		return nil, fmt.Errorf("listing %s keys: %w", a.typ.Kind, err)
	}
	if len(keys) == 0 {
		return []string{}, nil
	}

	if _, err := a.store.DeleteKeys(ctx, a.typ.Kind, keys); err != nil {
		return nil, fmt.Errorf("deleting %s: %w", a.typ.Kind, err)
	}

	for _, key := range keys {
		a.recordKey(ctx, "delete", key)
	}
	return keys, nil
}

// DeleteOne removes the instance identified by id and returns it.
func (a *Adapter) DeleteOne(ctx context.Context, id string) (entity.Entity, error) {
	rec, err := a.recordByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := a.bind(rec)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.DeleteKeys(ctx, a.typ.Kind, []string{rec.Key}); err != nil {
		return nil, fmt.Errorf("deleting %s: %w", a.typ.Kind, err)
	}

	a.record(ctx, "delete", e)
	return e, nil
}

// CreateChild resolves the parent instance by its natural id, creates
// the child under the parent's store key, then invokes the post-create
// hook with both instances. The hook runs after the commit; its failure
// is logged and does not affect the result.
func (a *Adapter) CreateChild(ctx context.Context, caller entity.Identity, parentID string, kv entity.KV) (entity.Entity, error) {
	parentRec, err := a.parentRecord(ctx, parentID)
	if err != nil {
		return nil, err
	}

	parent := a.parentType.New()
	if err := bindRecord(parent, parentRec); err != nil {
		return nil, err
	}

	child, err := a.createIn(ctx, caller, parentRec.Key, kv)
	if err != nil {
		return nil, err
	}

	if a.postCreate != nil {
		if err := a.postCreate(ctx, parent, child); err != nil {
			a.logger.Warn("post-create hook failed",
				"parent", parentID,
				"child", child.Meta().Key,
				"error", err)
		}
	}
	return child, nil
}

// recordByID resolves an id to its store record.
func (a *Adapter) recordByID(ctx context.Context, id string) (*store.Record, error) {
	return recordByID(ctx, a.store, a.typ, id)
}

func (a *Adapter) parentRecord(ctx context.Context, parentID string) (*store.Record, error) {
	return recordByID(ctx, a.store, a.parentType, parentID)
}

func recordByID(ctx context.Context, st store.Store, typ entity.Descriptor, id string) (*store.Record, error) {
	if typ.KeyAddressed {
		rec, err := st.Get(ctx, typ.Kind, id)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s %q", ErrNotFound, typ.Kind, id)
			}
			return nil, fmt.Errorf("fetching %s: %w", typ.Kind, err)
		}
		return rec, nil
	}

	keys, err := st.KeysByNaturalID(ctx, typ.Kind, id)
	if err != nil {
		return nil, fmt.Errorf("resolving %s id: %w", typ.Kind, err)
	}
	switch len(keys) {
	case 0:
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, typ.Kind, id)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s %q has %d instances", ErrAmbiguous, typ.Kind, id, len(keys))
	}

	rec, err := st.Get(ctx, typ.Kind, keys[0])
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", typ.Kind, err)
	}
	return rec, nil
}

// bind materializes a store record into a fresh entity instance.
func (a *Adapter) bind(rec *store.Record) (entity.Entity, error) {
	e := a.typ.New()
	if err := bindRecord(e, rec); err != nil {
		return nil, err
	}
	return e, nil
}

func bindRecord(e entity.Entity, rec *store.Record) error {
	if err := json.Unmarshal(rec.Data, e); err != nil {
		return fmt.Errorf("decoding %s fields: %w", rec.Kind, err)
	}

	meta := e.Meta()
	meta.Key = rec.Key
	meta.UserID = rec.UserID
	meta.Created = rec.Created
	meta.Modified = rec.Modified
	meta.Revision = rec.Revision
	return nil
}

func (a *Adapter) resolve(ctx context.Context, kv entity.KV) (entity.KV, error) {
	if a.typ.Resolve == nil {
		return kv, nil
	}
	return a.typ.Resolve(ctx, kv)
}

// naturalID returns the record's indexed identifier: the entity's own id
// for natural-id kinds, the store key for key-addressed kinds.
func (a *Adapter) naturalID(e entity.Entity) string {
	if a.typ.KeyAddressed {
		return e.Meta().Key
	}
	return e.ID()
}

func (a *Adapter) record(ctx context.Context, op string, e entity.Entity) {
	if a.recorder == nil {
		return
	}
	meta := e.Meta()
	id := e.ID()
	if id == "" {
		id = meta.Key
	}
	a.recorder.RecordMutation(ctx, a.typ.Kind, op, id, meta.Revision)
}

func (a *Adapter) recordKey(ctx context.Context, op, key string) {
	if a.recorder == nil {
		return
	}
	a.recorder.RecordMutation(ctx, a.typ.Kind, op, key, 0)
}
