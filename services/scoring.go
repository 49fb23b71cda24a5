package services

import (
	"math"

	"eco-track-service/models"
)

// Scoring and impact conversion are pure: no I/O, no clock, no randomness.
// The ledger snapshots their outputs onto the activity row so deletion can
// reverse exactly what was applied.

const (
	// MaxActivityPoints caps a single activity's award.
	MaxActivityPoints = 200

	photoBonus    = 5
	locationBonus = 3
)

var basePoints = map[models.Category]int{
	models.CategoryTrash:    25,
	models.CategoryTrees:    50,
	models.CategoryMobility: 15,
	models.CategoryWater:    20,
	models.CategoryEnergy:   30,
}

// Points computes the award for one activity from its validated metrics and
// evidence. The result is always in [0, MaxActivityPoints].
func Points(m Metrics, photoCount int, location string) int {
	points := basePoints[m.Category()]

	if photoCount > 0 {
		points += photoBonus
	}
	if location != "" {
		points += locationBonus
	}

	switch v := m.(type) {
	case TrashMetrics:
		if v.BagsCollected > 0 {
			points += minInt(v.BagsCollected*5, 25)
		}
	case TreesMetrics:
		if v.TreesPlanted > 1 {
			points += (v.TreesPlanted - 1) * 20
		}
	case MobilityMetrics:
		if v.DistanceKm > 0 {
			points += minInt(int(math.Floor(v.DistanceKm)), 15)
		}
	}

	if points > MaxActivityPoints {
		points = MaxActivityPoints
	}
	if points < 0 {
		points = 0
	}
	return points
}

// Impact converts validated metrics into the environmental-impact delta the
// accrual applies to the user's aggregates.
func Impact(m Metrics) models.ImpactDelta {
	var d models.ImpactDelta

	switch v := m.(type) {
	case TrashMetrics:
		d.TrashKg = float64(v.BagsCollected) * 2.0
		d.CO2Kg = float64(v.BagsCollected) * 0.5
	case TreesMetrics:
		d.Trees = v.TreesPlanted
		d.CO2Kg = float64(v.TreesPlanted) * 21.77
	case MobilityMetrics:
		saved := v.DistanceKm * (drivingEmissionPerKm - TransportEmissionFactors[v.TransportType])
		d.CO2Kg = math.Max(saved, 0)
	case WaterMetrics:
		d.CO2Kg = v.LitersSaved * 0.0003
	case EnergyMetrics:
		d.CO2Kg = v.KwhSaved * 0.45
	}
	return d
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
