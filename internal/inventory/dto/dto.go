package dto

import "time"

type MovementFilters struct {
	SparePartID  string
	StoreID      string
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

type LevelFilters struct {
	SparePartID string
	StoreID     string
	LowStock    bool
	Page        int
	PageSize    int
}

type AvailabilityResult struct {
	Available      bool `json:"available"`
	AvailableStock int  `json:"available_stock"`
}
