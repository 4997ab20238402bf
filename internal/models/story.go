// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Story is a crowdsourced historical story tied to a place.
type Story struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	Summary           *string         `json:"summary"`
	AuthorID          *uuid.UUID      `json:"author_id"`
	LocationID        *uuid.UUID      `json:"location_id"`
	CategoryID        uuid.UUID       `json:"category_id"`
	TimePeriod        *string         `json:"time_period"`
	HistoricalFigures []string        `json:"historical_figures"`
	TrustLevel        TrustLevel      `json:"trust_level"`
	VerificationCount int             `json:"verification_count"`
	ViewCount         int             `json:"view_count"`
	Latitude          *float64        `json:"latitude"`
	Longitude         *float64        `json:"longitude"`
	Status            Status          `json:"status"`
	Metadata          json.RawMessage `json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsPublished returns true if the story is visible to everyone.
func (s *Story) IsPublished() bool {
	return s.Status == StatusPublished
}

// IsAuthoredBy reports whether userID owns the story.
func (s *Story) IsAuthoredBy(userID uuid.UUID) bool {
	return s.AuthorID != nil && *s.AuthorID == userID
}

// SourceType classifies where a story's claims come from.
type SourceType string

const (
	SourceBook               SourceType = "book"
	SourceAcademicPaper      SourceType = "academic_paper"
	SourceOralTradition      SourceType = "oral_tradition"
	SourceMuseumCollection   SourceType = "museum_collection"
	SourceGovernmentDocument SourceType = "government_document"
	SourceNewspaper          SourceType = "newspaper"
	SourceWebsite            SourceType = "website"
	SourcePersonalAccount    SourceType = "personal_account"
)

// Valid reports whether t is a known source type.
func (t SourceType) Valid() bool {
	switch t {
	case SourceBook, SourceAcademicPaper, SourceOralTradition, SourceMuseumCollection,
		SourceGovernmentDocument, SourceNewspaper, SourceWebsite, SourcePersonalAccount:
		return true
	}
	return false
}

// StorySource cites a reference backing a story.
type StorySource struct {
	ID                uuid.UUID  `json:"id"`
	StoryID           uuid.UUID  `json:"story_id"`
	SourceType        SourceType `json:"source_type"`
	SourceTitle       *string    `json:"source_title"`
	SourceAuthor      *string    `json:"source_author"`
	SourceURL         *string    `json:"source_url"`
	SourceDescription *string    `json:"source_description"`
	CreatedAt         time.Time  `json:"created_at"`
}

// StorySummary is a list entry with the joined names a card needs.
type StorySummary struct {
	Story
	Category     *Category  `json:"category,omitempty"`
	Location     *Location  `json:"location,omitempty"`
	Author       *AuthorRef `json:"author,omitempty"`
	PrimaryImage *string    `json:"primary_image"`
}

// StoryDetail is the fully hydrated story.
type StoryDetail struct {
	Story
	Category            *Category                `json:"category,omitempty"`
	Location            *Location                `json:"location,omitempty"`
	Author              *AuthorRef               `json:"author,omitempty"`
	Images              []Image                  `json:"images"`
	Sources             []StorySource            `json:"sources"`
	Verifications       []StoryVerification      `json:"verifications"`
	VerificationSummary StoryVerificationSummary `json:"verification_summary"`
	PrimaryImage        *string                  `json:"primary_image"`
	ContentHTML         string                   `json:"content_html"`
}

// Finalize computes the derived fields from the child collections.
func (d *StoryDetail) Finalize() {
	d.PrimaryImage = PrimaryImage(d.Images)
	d.VerificationSummary = SummarizeStoryVerifications(d.Verifications)
}

// MapMarker is a published story that can be placed on the map.
type MapMarker struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Summary           *string    `json:"summary"`
	CategoryID        uuid.UUID  `json:"category_id"`
	CategoryName      string     `json:"category_name"`
	TrustLevel        TrustLevel `json:"trust_level"`
	TrustLabel        string     `json:"trust_label"`
	TrustColor        string     `json:"trust_color"`
	VerificationCount int        `json:"verification_count"`
	ViewCount         int        `json:"view_count"`
	Latitude          float64    `json:"latitude"`
	Longitude         float64    `json:"longitude"`
	LocationName      *string    `json:"location_name"`
	CreatedAt         time.Time  `json:"created_at"`
}
