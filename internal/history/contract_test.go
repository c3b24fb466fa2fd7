// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func record(t *testing.T, date string, room catalog.RoomCategory, plan catalog.RatePlan, m float64) MultiplierRecord {
	t.Helper()
	return MultiplierRecord{
		Date:            mustDate(t, date),
		Room:            room,
		Plan:            plan,
		Multiplier:      m,
		BaseRate:        100,
		DynamicRate:     100 * m,
		OccupancyFactor: 1,
		DemandFactor:    1,
	}
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("last write wins", func(t *testing.T) {
		key := Key{Date: mustDate(t, "2024-06-10"), Room: catalog.RoomStandard, Plan: catalog.PlanEP}
		if err := s.Upsert(ctx, record(t, "2024-06-10", catalog.RoomStandard, catalog.PlanEP, 1.3)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		if err := s.Upsert(ctx, record(t, "2024-06-10", catalog.RoomStandard, catalog.PlanEP, 1.5)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
		l, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !l.Found || l.Multiplier != 1.5 {
			t.Errorf("Get = %+v, want found 1.5", l)
		}
	})

	t.Run("miss is neutral", func(t *testing.T) {
		l, err := s.Get(ctx, Key{Date: mustDate(t, "2030-01-01"), Room: catalog.RoomExecutive, Plan: catalog.PlanAI})
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if l.Found || l.Multiplier != NeutralMultiplier {
			t.Errorf("Get = %+v, want miss", l)
		}
	})

	t.Run("week fallback", func(t *testing.T) {
		for _, rec := range []MultiplierRecord{
			record(t, "2024-06-03", catalog.RoomDeluxe, catalog.PlanCP, 1.2),
			record(t, "2024-05-27", catalog.RoomDeluxe, catalog.PlanCP, 1.9),
			record(t, "2024-05-13", catalog.RoomSuite, catalog.PlanMAP, 0.8),
			record(t, "2024-05-06", catalog.RoomPremium, catalog.PlanAP, 1.7),
		} {
			if err := s.Upsert(ctx, rec); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
		}

		tests := []struct {
			name      string
			room      catalog.RoomCategory
			plan      catalog.RatePlan
			wantFound bool
			wantMult  float64
			wantWeeks int
			wantDate  string
		}{
			{"nearest week wins", catalog.RoomDeluxe, catalog.PlanCP, true, 1.2, 1, "2024-06-03"},
			{"four weeks back", catalog.RoomSuite, catalog.PlanMAP, true, 0.8, 4, "2024-05-13"},
			{"five weeks is too far", catalog.RoomPremium, catalog.PlanAP, false, 1.0, 0, ""},
		}
		for _, tt := range tests {
			l, err := LookupWithWeekFallback(ctx, s, Key{Date: mustDate(t, "2024-06-10"), Room: tt.room, Plan: tt.plan})
			if err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
			if l.Found != tt.wantFound || l.Multiplier != tt.wantMult || l.WeeksBack != tt.wantWeeks {
				t.Errorf("%s: got %+v", tt.name, l)
			}
			if tt.wantFound && calendar.FormatDate(l.Date) != tt.wantDate {
				t.Errorf("%s: date = %s, want %s", tt.name, calendar.FormatDate(l.Date), tt.wantDate)
			}
		}
	})

	t.Run("list ordering and filters", func(t *testing.T) {
		all, err := s.ListMultipliers(ctx, Filter{})
		if err != nil {
			t.Fatalf("ListMultipliers: %v", err)
		}
		if len(all) != 5 {
			t.Fatalf("len = %d, want 5", len(all))
		}
		for i := 1; i < len(all); i++ {
			if all[i].Date.After(all[i-1].Date) {
				t.Errorf("records not newest first at %d", i)
			}
		}
		if got := calendar.FormatDate(all[0].Date); got != "2024-06-10" {
			t.Errorf("first date = %s", got)
		}

		deluxe, err := s.ListMultipliers(ctx, Filter{Room: catalog.RoomDeluxe})
		if err != nil {
			t.Fatalf("ListMultipliers: %v", err)
		}
		if len(deluxe) != 2 {
			t.Errorf("deluxe len = %d, want 2", len(deluxe))
		}

		ranged, err := s.ListMultipliers(ctx, Filter{Start: mustDate(t, "2024-05-13"), End: mustDate(t, "2024-06-03")})
		if err != nil {
			t.Fatalf("ListMultipliers: %v", err)
		}
		if len(ranged) != 3 {
			t.Errorf("ranged len = %d, want 3", len(ranged))
		}

		limited, err := s.ListMultipliers(ctx, Filter{Limit: 2})
		if err != nil {
			t.Fatalf("ListMultipliers: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("limited len = %d, want 2", len(limited))
		}
	})

	t.Run("observations", func(t *testing.T) {
		for _, obs := range []OccupancyObservation{
			{Date: mustDate(t, "2024-06-12"), Percentage: 70, OccupiedRooms: 70, TotalRooms: 100},
			{Date: mustDate(t, "2024-06-10"), Percentage: 85, OccupiedRooms: 85, TotalRooms: 100},
			{Date: mustDate(t, "2024-06-10"), Percentage: 88, OccupiedRooms: 88, TotalRooms: 100},
		} {
			if err := s.UpsertObservation(ctx, obs); err != nil {
				t.Fatalf("UpsertObservation: %v", err)
			}
		}

		obs, found, err := s.GetObservation(ctx, mustDate(t, "2024-06-10"))
		if err != nil || !found {
			t.Fatalf("GetObservation found=%v err=%v", found, err)
		}
		if obs.Percentage != 88 || obs.OccupiedRooms != 88 {
			t.Errorf("observation = %+v, want 88%%", obs)
		}

		if _, found, err := s.GetObservation(ctx, mustDate(t, "2024-06-11")); err != nil || found {
			t.Errorf("missing date found=%v err=%v", found, err)
		}

		list, err := s.ListObservations(ctx, mustDate(t, "2024-06-01"), mustDate(t, "2024-06-30"))
		if err != nil {
			t.Fatalf("ListObservations: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("len = %d, want 2", len(list))
		}
		if calendar.FormatDate(list[0].Date) != "2024-06-10" {
			t.Errorf("observations not oldest first: %v", list[0].Date)
		}
	})

	t.Run("invalid record", func(t *testing.T) {
		err := s.Upsert(ctx, MultiplierRecord{Room: catalog.RoomStandard, Plan: catalog.PlanEP, Multiplier: 1})
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Upsert without date = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
