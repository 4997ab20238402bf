// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Remedy is a traditional recipe contributed by a community member.
type Remedy struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Subtitle          *string    `json:"subtitle"`
	Description       string     `json:"description"`
	Summary           *string    `json:"summary"`
	AuthorID          *uuid.UUID `json:"author_id"`
	CategoryID        uuid.UUID  `json:"category_id"`
	LocationID        *uuid.UUID `json:"location_id"`
	Region            *string    `json:"region"`
	OriginStory       *string    `json:"origin_story"`
	PreparationTime   *int       `json:"preparation_time"`
	CookingTime       *int       `json:"cooking_time"`
	Servings          *int       `json:"servings"`
	Difficulty        Difficulty `json:"difficulty"`
	SafetyWarnings    []string   `json:"safety_warnings"`
	Contraindications []string   `json:"contraindications"`
	TrustLevel        TrustLevel `json:"trust_level"`
	VerificationCount int        `json:"verification_count"`
	ViewCount         int        `json:"view_count"`
	IsFeatured        bool       `json:"is_featured"`
	Status            Status     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsPublished returns true if the remedy is visible to everyone.
func (r *Remedy) IsPublished() bool {
	return r.Status == StatusPublished
}

// IsAuthoredBy reports whether userID owns the remedy.
func (r *Remedy) IsAuthoredBy(userID uuid.UUID) bool {
	return r.AuthorID != nil && *r.AuthorID == userID
}

// RemedyIngredient is one ingredient line, ordered by OrderIndex.
type RemedyIngredient struct {
	ID               uuid.UUID `json:"id"`
	RemedyID         uuid.UUID `json:"remedy_id"`
	Name             string    `json:"name"`
	Amount           *string   `json:"amount"`
	Notes            *string   `json:"notes"`
	IsMainIngredient bool      `json:"is_main_ingredient"`
	OrderIndex       int       `json:"order_index"`
}

// RemedyStep is one preparation step, ordered by StepNumber.
type RemedyStep struct {
	ID            uuid.UUID `json:"id"`
	RemedyID      uuid.UUID `json:"remedy_id"`
	StepNumber    int       `json:"step_number"`
	Title         *string   `json:"title"`
	Description   string    `json:"description"`
	Tips          *string   `json:"tips"`
	EstimatedTime *int      `json:"estimated_time"`
}

// DefaultBenefitCategory is used when a benefit is submitted without one.
const DefaultBenefitCategory = "kesehatan"

// RemedyBenefit is a claimed health benefit.
type RemedyBenefit struct {
	ID          uuid.UUID `json:"id"`
	RemedyID    uuid.UUID `json:"remedy_id"`
	Benefit     string    `json:"benefit"`
	Description *string   `json:"description"`
	Category    string    `json:"category"`
	OrderIndex  int       `json:"order_index"`
}

// Image is a picture attached to a story or remedy.
type Image struct {
	ID         uuid.UUID `json:"id"`
	ParentID   uuid.UUID `json:"-"`
	ImageURL   string    `json:"image_url"`
	Caption    *string   `json:"caption"`
	IsPrimary  bool      `json:"is_primary"`
	OrderIndex int       `json:"order_index"`
}

// IngredientRef is the short ingredient form shown on list cards.
type IngredientRef struct {
	Name   string  `json:"name"`
	Amount *string `json:"amount"`
}

// BenefitRef is the short benefit form shown on list cards.
type BenefitRef struct {
	Benefit  string `json:"benefit"`
	Category string `json:"category"`
}

// RemedySummary is a list entry: the remedy plus the few children and
// aggregates a browse card needs.
type RemedySummary struct {
	Remedy
	Category         *RemedyCategory `json:"category,omitempty"`
	Author           *AuthorRef      `json:"author,omitempty"`
	PrimaryImage     *string         `json:"primary_image"`
	MainIngredients  []IngredientRef `json:"main_ingredients"`
	Benefits         []BenefitRef    `json:"benefits"`
	AvgRating        float64         `json:"avg_rating"`
	TestimonialCount int             `json:"testimonial_count"`
}

// RemedySearchResult is a relevance-ranked search hit.
type RemedySearchResult struct {
	Remedy
	Category        *RemedyCategory `json:"category,omitempty"`
	PrimaryImage    *string         `json:"primary_image"`
	MainIngredients []string        `json:"main_ingredients"`
	RelevanceScore  int             `json:"relevance_score"`
	Snippet         string          `json:"snippet"`
}

// RemedyDetail is the fully hydrated remedy returned by the detail endpoint.
type RemedyDetail struct {
	Remedy
	Category            *RemedyCategory      `json:"category,omitempty"`
	Author              *AuthorRef           `json:"author,omitempty"`
	Location            *Location            `json:"location,omitempty"`
	Ingredients         []RemedyIngredient   `json:"ingredients"`
	Steps               []RemedyStep         `json:"steps"`
	Benefits            []RemedyBenefit      `json:"benefits"`
	Images              []Image              `json:"images"`
	Testimonials        []Testimonial        `json:"testimonials"`
	Verifications       []RemedyVerification `json:"verifications"`
	VerificationSummary VerificationSummary  `json:"verification_summary"`
	PrimaryImage        *string              `json:"primary_image"`
	MainIngredients     []RemedyIngredient   `json:"main_ingredients"`
	AvgRating           float64              `json:"avg_rating"`
	TestimonialCount    int                  `json:"testimonial_count"`
}

// Finalize computes the derived fields from the child collections.
func (d *RemedyDetail) Finalize() {
	d.PrimaryImage = PrimaryImage(d.Images)
	d.MainIngredients = MainIngredients(d.Ingredients)
	d.AvgRating = AverageRating(d.Testimonials)
	d.TestimonialCount = len(d.Testimonials)
	d.VerificationSummary = SummarizeRemedyVerifications(d.Verifications)
}

// PrimaryImage returns the URL of the image flagged primary, else the
// first image, else nil.
func PrimaryImage(images []Image) *string {
	for i := range images {
		if images[i].IsPrimary {
			return &images[i].ImageURL
		}
	}
	if len(images) > 0 {
		return &images[0].ImageURL
	}
	return nil
}

// MainIngredients returns the ingredients flagged as main, in order.
func MainIngredients(ingredients []RemedyIngredient) []RemedyIngredient {
	main := []RemedyIngredient{}
	for _, ing := range ingredients {
		if ing.IsMainIngredient {
			main = append(main, ing)
		}
	}
	return main
}

// AverageRating is the arithmetic mean of the ratings rounded to one
// decimal place, or 0 without testimonials.
func AverageRating(testimonials []Testimonial) float64 {
	if len(testimonials) == 0 {
		return 0
	}
	sum := 0
	for _, t := range testimonials {
		sum += t.Rating
	}
	return RoundRating(float64(sum) / float64(len(testimonials)))
}

// RoundRating rounds a rating to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
