package carsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/carfamily/carfamily_sdk_go/pkg/carapi"
)

// Transport is the remote side of the collection. *carapi.Client satisfies
// it.
type Transport interface {
	List(ctx context.Context) ([]carapi.Record, error)
	Create(ctx context.Context, fields carapi.Fields) (*carapi.Record, error)
	Update(ctx context.Context, id any, fields carapi.Fields) (*carapi.Record, error)
	Delete(ctx context.Context, id any) error
}

var _ Transport = (*carapi.Client)(nil)

// ErrUnknownEntry is returned when a key does not name an entry in the
// collection.
var ErrUnknownEntry = errors.New("carsync: unknown entry")

// Entry is one car in the local collection.
type Entry struct {
	Key string
	carapi.Record
}

// Synced reports whether the entry has a remote identifier.
func (e Entry) Synced() bool {
	return e.Persisted()
}

// Op names a mutating operation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Outcome describes how a mutation reached the local collection.
type Outcome int

const (
	// OutcomeNone means the collection was not changed.
	OutcomeNone Outcome = iota
	// OutcomeApplied means the response was applied to a single entry.
	OutcomeApplied
	// OutcomeReloaded means the write returned no usable record and the
	// collection was rebuilt from a full reload.
	OutcomeReloaded
	// OutcomeLocalOnly means an Unsynced entry was removed without a
	// network call.
	OutcomeLocalOnly
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeApplied:
		return "applied"
	case OutcomeReloaded:
		return "reloaded"
	case OutcomeLocalOnly:
		return "local-only"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result reports the effect of a create or update. Entry is set only when
// Outcome is OutcomeApplied.
type Result struct {
	Outcome Outcome
	Entry   Entry
}
