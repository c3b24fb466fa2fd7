// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tomtom215/ratewise/internal/catalog"
)

type recordingNotifier struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, c Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, c)
	return n.err
}

func TestNotifyingStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	n := &recordingNotifier{}
	s := WithNotifier(NewMemoryStore(), n)

	if err := s.Upsert(ctx, record(t, "2024-07-04", catalog.RoomDeluxe, catalog.PlanMAP, 1.4)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.UpsertObservation(ctx, OccupancyObservation{Date: mustDate(t, "2024-07-04"), Percentage: 80}); err != nil {
		t.Fatalf("UpsertObservation: %v", err)
	}
	// Rejected writes are not announced.
	_ = s.Upsert(ctx, MultiplierRecord{})

	want := []Change{
		{Kind: ChangeMultiplier, Date: "2024-07-04", Room: catalog.RoomDeluxe, Plan: catalog.PlanMAP},
		{Kind: ChangeObservation, Date: "2024-07-04"},
	}
	if len(n.changes) != len(want) {
		t.Fatalf("changes = %+v, want %+v", n.changes, want)
	}
	for i := range want {
		if n.changes[i] != want[i] {
			t.Errorf("change[%d] = %+v, want %+v", i, n.changes[i], want[i])
		}
	}
}

func TestNotifyingStore_NotifierErrorDoesNotFailWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := NewMemoryStore()
	s := WithNotifier(inner, &recordingNotifier{err: errors.New("bus down")})

	if err := s.Upsert(ctx, record(t, "2024-07-05", catalog.RoomSuite, catalog.PlanEP, 1.1)); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	l, _ := inner.Get(ctx, Key{Date: mustDate(t, "2024-07-05"), Room: catalog.RoomSuite, Plan: catalog.PlanEP})
	if !l.Found {
		t.Error("write was not committed")
	}
}

func TestInstrumentedStore_PassesThrough(t *testing.T) {
	t.Parallel()
	runStoreContract(t, Instrument(NewMemoryStore(), BackendMemory))
}
