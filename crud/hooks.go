package crud

import "context"

// Hooks are lifecycle extension points invoked exactly once per successful
// mutating call, after the store operation has committed. An error returned
// by a hook propagates to the caller of the mutating operation; the store
// write is not rolled back.
//
// Consumers attach side effects here: notification sends, audit logging,
// cascading writes (see CascadeDeleter and the stream package).
type Hooks interface {
	// OnCreate runs after Create and CreateMany with the assigned ids.
	OnCreate(ctx context.Context, db Database, ids []string) error

	// OnUpdate runs after a successful Update.
	OnUpdate(ctx context.Context, db Database, id string) error

	// OnDelete runs after Delete, whichever branch executed (soft or
	// hard).
	OnDelete(ctx context.Context, db Database, id string) error
}

// NoopHooks is the default Hooks implementation. Embed it to override only
// the callbacks you need.
type NoopHooks struct{}

func (NoopHooks) OnCreate(context.Context, Database, []string) error { return nil }
func (NoopHooks) OnUpdate(context.Context, Database, string) error   { return nil }
func (NoopHooks) OnDelete(context.Context, Database, string) error   { return nil }
