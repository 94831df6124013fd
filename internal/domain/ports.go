package domain

import (
	"context"
	"time"
)

// Camera produces stills. Implementations own the device for the life of
// a session. Still returns an opaque URI for the stored image.
type Camera interface {
	Still(ctx context.Context) (string, error)
}

// RecordStore persists finished face records. An implementation may wrap
// another store, e.g. to upload images before saving.
type RecordStore interface {
	Save(ctx context.Context, record *FaceRecord) error
	Load(ctx context.Context, id string) (*FaceRecord, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*FaceRecord, error)
}

// Scheduler runs a single cancellable delayed action. At most one action
// is pending; Cancel is idempotent.
type Scheduler interface {
	Arm(delay time.Duration, onFire func())
	Cancel()
	Armed() bool
}

// Notifier delivers messages to the user. Notify is for persistent notices,
// NotifyUrgent for transient alerts.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}

// SnapshotSource exposes the latest session state to observers.
type SnapshotSource interface {
	Snapshot() SessionState
}

// CueKind names an audible feedback event.
type CueKind int

const (
	CueCountdown CueKind = iota
	CueShutter
	CueComplete
	CueError
)

// Cue plays short feedback sounds. Play must not block the caller.
type Cue interface {
	Play(kind CueKind)
}
