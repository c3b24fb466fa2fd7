// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

// Package catalog holds the static pricing tables: room categories, rate
// plans, the occasion weight table and the stable integer codes used as
// model features. All tables are fixed for the process lifetime.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRoomCategory is returned when a room category is not in the catalog.
	ErrUnknownRoomCategory = errors.New("unknown room category")

	// ErrUnknownRatePlan is returned when a rate plan is not in the catalog.
	ErrUnknownRatePlan = errors.New("unknown rate plan")
)

// RoomCategory is an enumerated room class, ordered cheapest first.
type RoomCategory string

// Room categories.
const (
	RoomStandard  RoomCategory = "Standard"
	RoomDeluxe    RoomCategory = "Deluxe"
	RoomSuite     RoomCategory = "Suite"
	RoomPremium   RoomCategory = "Premium"
	RoomExecutive RoomCategory = "Executive"
)

// RoomCategories lists every category in price order.
var RoomCategories = []RoomCategory{RoomStandard, RoomDeluxe, RoomSuite, RoomPremium, RoomExecutive}

var roomBasePrices = map[RoomCategory]float64{
	RoomStandard:  100,
	RoomDeluxe:    150,
	RoomSuite:     250,
	RoomPremium:   350,
	RoomExecutive: 450,
}

// BasePrice returns the list price of a Room Only night.
func (r RoomCategory) BasePrice() float64 {
	return roomBasePrices[r]
}

// Valid reports whether r is a known category.
func (r RoomCategory) Valid() bool {
	_, ok := roomBasePrices[r]
	return ok
}

// Code returns the stable feature code (position in RoomCategories), or -1.
func (r RoomCategory) Code() int {
	for i, c := range RoomCategories {
		if c == r {
			return i
		}
	}
	return -1
}

// RoomCategoryFromCode is the inverse of Code.
func RoomCategoryFromCode(code int) (RoomCategory, bool) {
	if code < 0 || code >= len(RoomCategories) {
		return "", false
	}
	return RoomCategories[code], true
}

// ParseRoomCategory accepts a category name case-insensitively.
func ParseRoomCategory(s string) (RoomCategory, error) {
	for _, c := range RoomCategories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownRoomCategory, s)
}

// RatePlan is a board/inclusion level.
type RatePlan string

// Rate plans, from Room Only to All Inclusive.
const (
	PlanEP  RatePlan = "EP"
	PlanCP  RatePlan = "CP"
	PlanMAP RatePlan = "MAP"
	PlanAP  RatePlan = "AP"
	PlanAI  RatePlan = "AI"
)

// RatePlans lists every plan in inclusion order.
var RatePlans = []RatePlan{PlanEP, PlanCP, PlanMAP, PlanAP, PlanAI}

type planInfo struct {
	multiplier  float64
	description string
}

var plans = map[RatePlan]planInfo{
	PlanEP:  {1.0, "Room Only"},
	PlanCP:  {1.2, "Breakfast"},
	PlanMAP: {1.4, "Half Board"},
	PlanAP:  {1.6, "Full Board"},
	PlanAI:  {2.0, "All Inclusive"},
}

// Multiplier returns the plan price relative to Room Only.
func (p RatePlan) Multiplier() float64 {
	return plans[p].multiplier
}

// Description returns the human name of the plan.
func (p RatePlan) Description() string {
	return plans[p].description
}

// Valid reports whether p is a known plan.
func (p RatePlan) Valid() bool {
	_, ok := plans[p]
	return ok
}

// Code returns the stable feature code (position in RatePlans), or -1.
func (p RatePlan) Code() int {
	for i, rp := range RatePlans {
		if rp == p {
			return i
		}
	}
	return -1
}

// RatePlanFromCode is the inverse of Code.
func RatePlanFromCode(code int) (RatePlan, bool) {
	if code < 0 || code >= len(RatePlans) {
		return "", false
	}
	return RatePlans[code], true
}

// ParseRatePlan accepts a plan code (EP, CP, ...) or description
// ("Half Board"), case-insensitively.
func ParseRatePlan(s string) (RatePlan, error) {
	s = strings.TrimSpace(s)
	for _, p := range RatePlans {
		if strings.EqualFold(string(p), s) || strings.EqualFold(plans[p].description, s) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownRatePlan, s)
}

// ListPrice is the category base price scaled by the plan multiplier.
func ListPrice(room RoomCategory, plan RatePlan) float64 {
	return room.BasePrice() * plan.Multiplier()
}
