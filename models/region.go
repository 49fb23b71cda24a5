package models

// Region is catalog data for Ghana's administrative regions, used by the
// regional leaderboard scope and regional stats. Seeded once on boot.
type Region struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"uniqueIndex;not null" json:"name"`
	Capital    string  `gorm:"not null" json:"capital"`
	Code       string  `gorm:"uniqueIndex;not null;size:4" json:"code"`
	Population int     `json:"population,omitempty"`
	AreaKm2    float64 `json:"area_km2,omitempty"`
}

// GhanaRegions is the seed catalog.
var GhanaRegions = []Region{
	{Name: "Greater Accra", Capital: "Accra", Code: "GA", Population: 5455692},
	{Name: "Ashanti", Capital: "Kumasi", Code: "AS", Population: 5440463},
	{Name: "Western", Capital: "Sekondi-Takoradi", Code: "WP", Population: 2060585},
	{Name: "Central", Capital: "Cape Coast", Code: "CP", Population: 2859821},
	{Name: "Eastern", Capital: "Koforidua", Code: "EP", Population: 2106696},
	{Name: "Volta", Capital: "Ho", Code: "TV", Population: 1635421},
	{Name: "Northern", Capital: "Tamale", Code: "NP", Population: 1972757},
	{Name: "Upper East", Capital: "Bolgatanga", Code: "UE", Population: 920089},
	{Name: "Upper West", Capital: "Wa", Code: "UW", Population: 576583},
	{Name: "Brong-Ahafo", Capital: "Sunyani", Code: "BA", Population: 1815408},
	{Name: "Western North", Capital: "Sefwi Wiawso", Code: "WN", Population: 678555},
	{Name: "Ahafo", Capital: "Goaso", Code: "AH", Population: 563677},
	{Name: "Bono", Capital: "Sunyani", Code: "BO", Population: 691983},
	{Name: "Bono East", Capital: "Techiman", Code: "BE", Population: 1208649},
	{Name: "Oti", Capital: "Dambai", Code: "OT", Population: 563677},
	{Name: "North East", Capital: "Nalerigu", Code: "NE", Population: 466026},
	{Name: "Savannah", Capital: "Damongo", Code: "SV", Population: 685801},
}
