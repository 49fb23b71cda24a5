package services

import (
	"eco-track-service/models"
)

// Metrics is the per-category declared-metrics variant. Each category has its
// own named, typed fields; a request is parsed into exactly one variant and
// validated before any scoring or impact math runs.
type Metrics interface {
	Category() models.Category
}

// TrashMetrics: cleanup activities.
type TrashMetrics struct {
	BagsCollected int // default 1 when not declared
}

func (TrashMetrics) Category() models.Category { return models.CategoryTrash }

// TreesMetrics: planting activities.
type TreesMetrics struct {
	TreesPlanted int // default 1 when not declared
}

func (TreesMetrics) Category() models.Category { return models.CategoryTrees }

// TransportEmissionFactors: kg CO2 per km, compared against driving alone
// (0.2 kg/km) to compute savings.
var TransportEmissionFactors = map[string]float64{
	"walking":          0,
	"cycling":          0,
	"public_transport": 0.05,
	"car_pooling":      0.1,
}

const drivingEmissionPerKm = 0.2

// MobilityMetrics: sustainable-transport activities.
type MobilityMetrics struct {
	DistanceKm    float64 // default 5
	TransportType string  // default "public_transport"
}

func (MobilityMetrics) Category() models.Category { return models.CategoryMobility }

// WaterMetrics: water-conservation activities.
type WaterMetrics struct {
	LitersSaved float64 // default 50
}

func (WaterMetrics) Category() models.Category { return models.CategoryWater }

// EnergyMetrics: energy-conservation activities.
type EnergyMetrics struct {
	KwhSaved float64 // default 5
}

func (EnergyMetrics) Category() models.Category { return models.CategoryEnergy }

// DeclaredMetrics is the wire shape of the per-category metric fields as the
// API accepts them. Unset pointers take the category default.
type DeclaredMetrics struct {
	BagsCollected    *int     `json:"bags_collected,omitempty"`
	TreesPlanted     *int     `json:"trees_planted,omitempty"`
	DistanceKm       *float64 `json:"distance_km,omitempty"`
	TransportType    *string  `json:"transport_type,omitempty"`
	WaterSavedLiters *float64 `json:"water_saved_liters,omitempty"`
	EnergySavedKwh   *float64 `json:"energy_saved_kwh,omitempty"`
}

// ParseMetrics validates the declared metrics against the category's schema
// and returns the typed variant with defaults applied. Unknown categories and
// out-of-range values fail with a ValidationError.
func ParseMetrics(category models.Category, in DeclaredMetrics) (Metrics, error) {
	switch category {
	case models.CategoryTrash:
		bags := 1
		if in.BagsCollected != nil {
			bags = *in.BagsCollected
			if bags < 0 {
				return nil, invalidf("bags_collected", "must not be negative, got %d", bags)
			}
		}
		return TrashMetrics{BagsCollected: bags}, nil

	case models.CategoryTrees:
		trees := 1
		if in.TreesPlanted != nil {
			trees = *in.TreesPlanted
			if trees < 0 {
				return nil, invalidf("trees_planted", "must not be negative, got %d", trees)
			}
		}
		return TreesMetrics{TreesPlanted: trees}, nil

	case models.CategoryMobility:
		distance := 5.0
		if in.DistanceKm != nil {
			distance = *in.DistanceKm
			if distance < 0 {
				return nil, invalidf("distance_km", "must not be negative, got %g", distance)
			}
		}
		transport := "public_transport"
		if in.TransportType != nil {
			transport = *in.TransportType
			if _, ok := TransportEmissionFactors[transport]; !ok {
				return nil, invalidf("transport_type", "unknown transport type %q", transport)
			}
		}
		return MobilityMetrics{DistanceKm: distance, TransportType: transport}, nil

	case models.CategoryWater:
		liters := 50.0
		if in.WaterSavedLiters != nil {
			liters = *in.WaterSavedLiters
			if liters < 0 {
				return nil, invalidf("water_saved_liters", "must not be negative, got %g", liters)
			}
		}
		return WaterMetrics{LitersSaved: liters}, nil

	case models.CategoryEnergy:
		kwh := 5.0
		if in.EnergySavedKwh != nil {
			kwh = *in.EnergySavedKwh
			if kwh < 0 {
				return nil, invalidf("energy_saved_kwh", "must not be negative, got %g", kwh)
			}
		}
		return EnergyMetrics{KwhSaved: kwh}, nil
	}
	return nil, invalidf("type", "unknown activity category %q", string(category))
}
