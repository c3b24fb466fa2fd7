// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package catalog

// Occasion names a calendar event or period that influences demand.
type Occasion string

// Catalogue occasions.
const (
	NewYear          Occasion = "New Year"
	Christmas        Occasion = "Christmas"
	ValentinesDay    Occasion = "Valentine's Day"
	Easter           Occasion = "Easter"
	IndependenceDay  Occasion = "Independence Day"
	Thanksgiving     Occasion = "Thanksgiving"
	LaborDay         Occasion = "Labor Day"
	MemorialDay      Occasion = "Memorial Day"
	MothersDay       Occasion = "Mother's Day"
	FathersDay       Occasion = "Father's Day"
	Halloween        Occasion = "Halloween"
	Diwali           Occasion = "Diwali"
	Eid              Occasion = "Eid"
	ChineseNewYear   Occasion = "Chinese New Year"
	Weekend          Occasion = "Weekend"
	SummerPeak       Occasion = "Summer Peak"
	WinterHoliday    Occasion = "Winter Holiday"
	SpringBreak      Occasion = "Spring Break"
	ConferenceSeason Occasion = "Conference Season"
	WeddingSeason    Occasion = "Wedding Season"
	Festival         Occasion = "Festival"
	ConcertEvent     Occasion = "Concert/Event"
	SportsEvent      Occasion = "Sports Event"
	Convention       Occasion = "Convention"
)

var occasionWeights = map[Occasion]float64{
	NewYear:          2.5,
	Christmas:        2.2,
	ValentinesDay:    1.8,
	Easter:           1.6,
	IndependenceDay:  1.7,
	Thanksgiving:     1.9,
	LaborDay:         1.5,
	MemorialDay:      1.6,
	MothersDay:       1.4,
	FathersDay:       1.3,
	Halloween:        1.3,
	Diwali:           1.8,
	Eid:              1.7,
	ChineseNewYear:   1.9,
	Weekend:          1.3,
	SummerPeak:       1.4,
	WinterHoliday:    1.6,
	SpringBreak:      1.7,
	ConferenceSeason: 1.5,
	WeddingSeason:    1.6,
	Festival:         1.4,
	ConcertEvent:     1.8,
	SportsEvent:      1.9,
	Convention:       1.6,
}

// Weight returns the occasion's demand weight. Occasions outside the
// catalogue weigh 1.0.
func (o Occasion) Weight() float64 {
	if w, ok := occasionWeights[o]; ok {
		return w
	}
	return 1.0
}

// Known reports whether o has an entry in the weight table.
func (o Occasion) Known() bool {
	_, ok := occasionWeights[o]
	return ok
}

// MaxWeight returns the largest weight among occasions, never below 1.0.
// Weights are an upper-bound influence and are never combined.
func MaxWeight(occasions []Occasion) float64 {
	maxW := 1.0
	for _, o := range occasions {
		if w := o.Weight(); w > maxW {
			maxW = w
		}
	}
	return maxW
}

// OccasionWeights returns a copy of the weight table.
func OccasionWeights() map[Occasion]float64 {
	out := make(map[Occasion]float64, len(occasionWeights))
	for k, v := range occasionWeights {
		out[k] = v
	}
	return out
}
