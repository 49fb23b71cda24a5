package models

import "time"

// Category is the activity/challenge category
type Category string

const (
	CategoryTrash    Category = "trash"
	CategoryTrees    Category = "trees"
	CategoryMobility Category = "mobility"
	CategoryWater    Category = "water"
	CategoryEnergy   Category = "energy"
)

// KnownCategories lists every category the scorer understands.
var KnownCategories = []Category{
	CategoryTrash, CategoryTrees, CategoryMobility, CategoryWater, CategoryEnergy,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTrash, CategoryTrees, CategoryMobility, CategoryWater, CategoryEnergy:
		return true
	}
	return false
}

// ImpactDelta is the environmental-impact triple one activity contributes.
type ImpactDelta struct {
	TrashKg float64 `json:"trash_kg"`
	Trees   int     `json:"trees"`
	CO2Kg   float64 `json:"co2_kg"`
}

// IsZero reports whether no component is set.
func (d ImpactDelta) IsZero() bool {
	return d.TrashKg == 0 && d.Trees == 0 && d.CO2Kg == 0
}

// Activity is one logged environmental activity. Immutable after creation
// except Verified, which only the moderation endpoint flips. Points and the
// Impact* columns are the applied snapshot: deletion reverses exactly these
// values, never a recomputation from the declared metrics.
type Activity struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	UserID      uint     `gorm:"index;not null" json:"user_id"`
	Type        Category `gorm:"type:varchar(16);not null;index" json:"type"`
	Title       string   `gorm:"not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`

	// Awarded once at creation, clamped to [0,200]. Never recomputed.
	Points int `gorm:"not null" json:"points"`

	Location string `json:"location,omitempty"`
	Region   string `gorm:"index" json:"region,omitempty"`
	Photos   string `gorm:"type:text" json:"-"` // JSON array of photo URLs

	// Owned by the moderation collaborator; never read by scoring.
	Verified bool `gorm:"default:false" json:"verified"`

	// Declared metrics, normalized per category. Nil means "not declared"
	// (the scorer applies the category default).
	BagsCollected    *int     `json:"bags_collected,omitempty"`
	TreesPlanted     *int     `json:"trees_planted,omitempty"`
	DistanceKm       *float64 `json:"distance_km,omitempty"`
	TransportType    *string  `json:"transport_type,omitempty"`
	WaterSavedLiters *float64 `json:"water_saved_liters,omitempty"`
	EnergySavedKwh   *float64 `json:"energy_saved_kwh,omitempty"`

	// Applied impact snapshot, reversed verbatim on delete.
	ImpactTrashKg float64 `gorm:"not null;default:0" json:"impact_trash_kg"`
	ImpactTrees   int     `gorm:"not null;default:0" json:"impact_trees"`
	ImpactCO2Kg   float64 `gorm:"not null;default:0" json:"impact_co2_kg"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AppliedImpact returns the snapshot stored at creation time.
func (a *Activity) AppliedImpact() ImpactDelta {
	return ImpactDelta{TrashKg: a.ImpactTrashKg, Trees: a.ImpactTrees, CO2Kg: a.ImpactCO2Kg}
}

// IdempotencyKey dedupes client retries of activity creation. Inserted in the
// same transaction as the Activity row so a retried request either sees the
// key (and the original activity) or creates both together.
type IdempotencyKey struct {
	Key        string    `gorm:"primaryKey;size:128" json:"key"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	ActivityID uint      `gorm:"not null" json:"activity_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
