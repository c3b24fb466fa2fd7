// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package factors

// step is an inclusive upper bound and the factor for values up to it.
// Tables are scanned in order so a value on a boundary takes the smaller
// bucket.
type step struct {
	upTo   int
	factor float64
}

// Lead time in days between booking and check-in. Last-minute bookings pay
// a premium; early bookings get a discount.
var leadTimeSteps = []step{
	{1, 1.20},
	{7, 1.10},
	{14, 1.05},
	{30, 1.00},
	{60, 0.97},
	{90, 0.95},
}

const leadTimeFloor = 0.92

// Nights in the stay.
var lengthOfStaySteps = []step{
	{1, 1.05},
	{3, 1.00},
	{6, 0.97},
	{13, 0.93},
}

const lengthOfStayFloor = 0.90

// Rooms booked together.
var roomDemandSteps = []step{
	{1, 1.00},
	{3, 1.02},
	{9, 1.05},
}

const roomDemandCeiling = 1.08

func lookup(steps []step, v int, beyond float64) float64 {
	for _, s := range steps {
		if v <= s.upTo {
			return s.factor
		}
	}
	return beyond
}

// LeadTimeFactor returns the lead-time factor. Negative lead times (booking
// after check-in) are treated as same-day.
func LeadTimeFactor(leadDays int) float64 {
	return lookup(leadTimeSteps, leadDays, leadTimeFloor)
}

// LengthOfStayFactor returns the length-of-stay factor for nights >= 1.
func LengthOfStayFactor(nights int) float64 {
	return lookup(lengthOfStaySteps, nights, lengthOfStayFloor)
}

// RoomDemandFactor returns the multi-room factor for rooms >= 1.
func RoomDemandFactor(rooms int) float64 {
	return lookup(roomDemandSteps, rooms, roomDemandCeiling)
}
