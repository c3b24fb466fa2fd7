// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package calendar

import (
	"sync"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/tomtom215/ratewise/internal/catalog"
)

// HolidayProvider returns the public holidays that fall on a date.
type HolidayProvider interface {
	HolidaysOn(date time.Time) []catalog.Occasion
}

// usHoliday binds a holiday definition to the occasion it is priced as.
type usHoliday struct {
	def      *cal.Holiday
	occasion catalog.Occasion
}

// usFederal covers the US federal holiday set. Holidays with a catalogue
// weight are mapped onto the catalogue name; the rest keep their official
// name and weigh 1.0.
var usFederal = []usHoliday{
	{us.NewYear, catalog.NewYear},
	{us.MlkDay, "Martin Luther King Jr. Day"},
	{us.PresidentsDay, "Washington's Birthday"},
	{us.MemorialDay, catalog.MemorialDay},
	{us.Juneteenth, "Juneteenth"},
	{us.IndependenceDay, catalog.IndependenceDay},
	{us.LaborDay, catalog.LaborDay},
	{us.ColumbusDay, "Columbus Day"},
	{us.VeteransDay, "Veterans Day"},
	{us.ThanksgivingDay, catalog.Thanksgiving},
	{us.ChristmasDay, catalog.Christmas},
}

// USHolidays is a HolidayProvider for US federal holidays. Results are
// memoized per year.
type USHolidays struct {
	mu     sync.Mutex
	byYear map[int]map[string][]catalog.Occasion
}

// NewUSHolidays creates a US holiday provider.
func NewUSHolidays() *USHolidays {
	return &USHolidays{byYear: make(map[int]map[string][]catalog.Occasion)}
}

// HolidaysOn implements HolidayProvider. When a holiday's observed date
// differs from the actual date, the observed date carries
// "<name> (Observed)".
func (u *USHolidays) HolidaysOn(date time.Time) []catalog.Occasion {
	year := date.Year()

	u.mu.Lock()
	days, ok := u.byYear[year]
	if !ok {
		days = buildYear(year)
		u.byYear[year] = days
	}
	u.mu.Unlock()

	found := days[FormatDate(date)]
	if len(found) == 0 {
		return nil
	}
	out := make([]catalog.Occasion, len(found))
	copy(out, found)
	return out
}

func buildYear(year int) map[string][]catalog.Occasion {
	days := make(map[string][]catalog.Occasion)
	for _, h := range usFederal {
		// Observed dates may spill into an adjacent year (New Year's Day on a
		// Saturday is observed on Dec 31), so look at both neighbours.
		for _, y := range []int{year - 1, year, year + 1} {
			actual, observed := h.def.Calc(y)
			if !actual.IsZero() && actual.Year() == year {
				key := FormatDate(actual)
				days[key] = append(days[key], h.occasion)
			}
			if !observed.IsZero() && observed.Year() == year && !sameDay(observed, actual) {
				key := FormatDate(observed)
				days[key] = append(days[key], h.occasion+" (Observed)")
			}
		}
	}
	return days
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StaticHolidays is a HolidayProvider backed by a fixed date table. It is
// used in tests and for operators that load their own holiday list.
type StaticHolidays map[string][]catalog.Occasion

// HolidaysOn implements HolidayProvider.
func (s StaticHolidays) HolidaysOn(date time.Time) []catalog.Occasion {
	return s[FormatDate(date)]
}
