// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package calendar maps calendar days to the named occasions that drive
// demand: public holidays, weekends, seasonal windows and fixed or floating
// celebrations.
package calendar

import (
	"time"

	"github.com/tomtom215/ratewise/internal/catalog"
)

// Calendar computes the occasions active on a day. It is safe for
// concurrent use and has no side effects.
type Calendar struct {
	holidays HolidayProvider
}

// New creates a Calendar. A nil provider disables public holidays.
func New(holidays HolidayProvider) *Calendar {
	return &Calendar{holidays: holidays}
}

// NewUS creates a Calendar using US federal holidays.
func NewUS() *Calendar {
	return New(NewUSHolidays())
}

// OccasionsFor returns every occasion active on date. Each rule is applied
// independently and the results are concatenated; the list is not
// deduplicated, so callers aggregating weights should treat it as a set.
func (c *Calendar) OccasionsFor(date time.Time) []catalog.Occasion {
	date = Day(date)
	month := date.Month()
	day := date.Day()

	var occasions []catalog.Occasion

	if c.holidays != nil {
		occasions = append(occasions, c.holidays.HolidaysOn(date)...)
	}

	if IsWeekend(date) {
		occasions = append(occasions, catalog.Weekend)
	}

	switch month {
	case time.June, time.July, time.August:
		occasions = append(occasions, catalog.SummerPeak)
	case time.December, time.January:
		occasions = append(occasions, catalog.WinterHoliday)
	case time.March, time.April:
		occasions = append(occasions, catalog.SpringBreak)
	}

	if month >= time.April && month <= time.October {
		occasions = append(occasions, catalog.WeddingSeason)
	}
	if month >= time.October || month <= time.March {
		occasions = append(occasions, catalog.Festival)
	}

	if month == time.February && day == 14 {
		occasions = append(occasions, catalog.ValentinesDay)
	}
	if month == time.October && day == 31 {
		occasions = append(occasions, catalog.Halloween)
	}

	// Second Sunday of May / third Sunday of June.
	if date.Weekday() == time.Sunday {
		if month == time.May && day >= 8 && day <= 14 {
			occasions = append(occasions, catalog.MothersDay)
		}
		if month == time.June && day >= 15 && day <= 21 {
			occasions = append(occasions, catalog.FathersDay)
		}
	}

	if sameDay(date, EasterSunday(date.Year())) {
		occasions = append(occasions, catalog.Easter)
	}

	return occasions
}

// EasterSunday returns Western Easter for year (anonymous Gregorian
// algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
