package querycache

import (
	"fmt"
	"time"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusErrored:
		return "Errored"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Snapshot is a point-in-time view of an entry. Data holds the last successful value and is
// kept while the entry is stale, loading or errored.
type Snapshot struct {
	Data      any
	Err       error
	Status    Status
	IsLoading bool
	IsError   bool
	IsStale   bool
	Version   uint64
	UpdatedAt time.Time
}

// As returns the snapshot's data as T.
func As[T any](snap Snapshot) (T, bool) {
	v, ok := snap.Data.(T)
	return v, ok
}
