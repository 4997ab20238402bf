// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is applied to remedy categories created without a color.
const DefaultCategoryColor = "#10B981"

// Category groups stories.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Color       *string   `json:"color"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RemedyCategory groups remedies. RemedyCount is only populated when
// requested.
type RemedyCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	RemedyCount *int      `json:"remedy_count,omitempty"`
}

// LocationType is the administrative level of a place.
type LocationType string

const (
	LocationCountry  LocationType = "country"
	LocationProvince LocationType = "province"
	LocationRegency  LocationType = "regency"
	LocationCity     LocationType = "city"
	LocationDistrict LocationType = "district"
	LocationVillage  LocationType = "village"
	LocationLandmark LocationType = "landmark"
)

// Valid reports whether t is a known location type.
func (t LocationType) Valid() bool {
	switch t {
	case LocationCountry, LocationProvince, LocationRegency, LocationCity,
		LocationDistrict, LocationVillage, LocationLandmark:
		return true
	}
	return false
}

// Location is a named place. It is reference data and never mutated by
// the API.
type Location struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Type      LocationType `json:"type"`
	Latitude  *float64     `json:"latitude"`
	Longitude *float64     `json:"longitude"`
	ParentID  *uuid.UUID   `json:"parent_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// Region is a remedy region with its published remedy count.
type Region struct {
	Region      string `json:"region"`
	RemedyCount int    `json:"remedy_count"`
}
