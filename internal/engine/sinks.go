package engine

import (
	"context"
	"time"
)

// Presenter publishes session snapshots to a chat surface.
type Presenter interface {
	Render(ctx context.Context, snap Snapshot) (string, error)
	Update(ctx context.Context, handle string, snap Snapshot) error
}

// Forgetter is implemented by presenters that cache per-handle state.
type Forgetter interface {
	Forget(handle string)
}

type Recorder interface {
	RecordOutcome(ctx context.Context, rec Record) error
}

type LifecycleObserver interface {
	OnSessionStarted(snap Snapshot)
	OnSessionEnded(snap Snapshot)
	OnInviteResolved(inv InviteSnapshot)
}

// CooldownStore rate-limits session starts. Acquire returns false and the time left when
// key is still cooling down.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, time.Duration, error)
}

type NopPresenter struct{}

func (NopPresenter) Render(context.Context, Snapshot) (string, error) { return "", nil }

func (NopPresenter) Update(context.Context, string, Snapshot) error { return nil }

type NopRecorder struct{}

func (NopRecorder) RecordOutcome(context.Context, Record) error { return nil }

type NopObserver struct{}

func (NopObserver) OnSessionStarted(Snapshot) {}
func (NopObserver) OnSessionEnded(Snapshot) {}
func (NopObserver) OnInviteResolved(InviteSnapshot) {}

// Observers fans lifecycle events out to several observers.
type Observers []LifecycleObserver

func (o Observers) OnSessionStarted(snap Snapshot) {
	for _, obs := range o {
		obs.OnSessionStarted(snap)
	}
}

func (o Observers) OnSessionEnded(snap Snapshot) {
	for _, obs := range o {
		obs.OnSessionEnded(snap)
	}
}

func (o Observers) OnInviteResolved(inv InviteSnapshot) {
	for _, obs := range o {
		obs.OnInviteResolved(inv)
	}
}
