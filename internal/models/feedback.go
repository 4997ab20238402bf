// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating and confidence bounds for moderated feedback.
const (
	MinRating         = 1
	MaxRating         = 5
	MinConfidence     = 1
	MaxConfidence     = 5
	DefaultConfidence = 3
)

// Testimonial is a user's review of a remedy. IsVerified flips to true on
// moderator approval and back to false on every edit.
type Testimonial struct {
	ID                 uuid.UUID  `json:"id"`
	RemedyID           uuid.UUID  `json:"remedy_id"`
	UserID             uuid.UUID  `json:"user_id"`
	Name               *string    `json:"name"`
	Location           *string    `json:"location"`
	Testimonial        string     `json:"testimonial"`
	Rating             int        `json:"rating"`
	UsageDuration      *string    `json:"usage_duration"`
	HealthCondition    *string    `json:"health_condition"`
	ResultsExperienced *string    `json:"results_experienced"`
	WouldRecommend     bool       `json:"would_recommend"`
	IsVerified         bool       `json:"is_verified"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	User               *AuthorRef `json:"user,omitempty"`
}

// RemedyVerificationType is one of the seven formal remedy attestations.
type RemedyVerificationType string

const (
	VerifyFamilyTradition      RemedyVerificationType = "family_tradition"
	VerifyLocalKnowledge       RemedyVerificationType = "local_knowledge"
	VerifyTriedPersonally      RemedyVerificationType = "tried_personally"
	VerifyCulturalAuthenticity RemedyVerificationType = "cultural_authenticity"
	VerifyIngredientAccuracy   RemedyVerificationType = "ingredient_accuracy"
	VerifySafetyConcern        RemedyVerificationType = "safety_concern"
	VerifyMedicalValidation    RemedyVerificationType = "medical_validation"
)

// RemedyVerificationTypes lists the kinds in display order.
var RemedyVerificationTypes = []RemedyVerificationType{
	VerifyFamilyTradition, VerifyLocalKnowledge, VerifyTriedPersonally,
	VerifyCulturalAuthenticity, VerifyIngredientAccuracy, VerifySafetyConcern,
	VerifyMedicalValidation,
}

// Valid reports whether t is one of the seven kinds.
func (t RemedyVerificationType) Valid() bool {
	for _, k := range RemedyVerificationTypes {
		if k == t {
			return true
		}
	}
	return false
}

// RemedyVerification is a typed attestation about a remedy.
type RemedyVerification struct {
	ID                uuid.UUID              `json:"id"`
	RemedyID          uuid.UUID              `json:"remedy_id"`
	UserID            uuid.UUID              `json:"user_id"`
	VerificationType  RemedyVerificationType `json:"verification_type"`
	EvidenceText      string                 `json:"evidence_text"`
	EvidenceURL       *string                `json:"evidence_url"`
	ConfidenceLevel   int                    `json:"confidence_level"`
	IsPositive        bool                   `json:"is_positive"`
	ExpertiseArea     *string                `json:"expertise_area"`
	YearsOfExperience *int                   `json:"years_of_experience"`
	LocationContext   *string                `json:"location_context"`
	AdditionalNotes   *string                `json:"additional_notes"`
	IsVerified        bool                   `json:"is_verified"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
	User              *AuthorRef             `json:"user,omitempty"`
}

// VerificationSummary counts remedy verifications per kind.
type VerificationSummary struct {
	FamilyTradition      int `json:"family_tradition"`
	LocalKnowledge       int `json:"local_knowledge"`
	TriedPersonally      int `json:"tried_personally"`
	CulturalAuthenticity int `json:"cultural_authenticity"`
	IngredientAccuracy   int `json:"ingredient_accuracy"`
	SafetyConcern        int `json:"safety_concern"`
	MedicalValidation    int `json:"medical_validation"`
	Total                int `json:"total"`
	Positive             int `json:"positive"`
	Concerns             int `json:"concerns"`
}

// SummarizeRemedyVerifications tallies vs by kind and polarity.
func SummarizeRemedyVerifications(vs []RemedyVerification) VerificationSummary {
	var s VerificationSummary
	for _, v := range vs {
		switch v.VerificationType {
		case VerifyFamilyTradition:
			s.FamilyTradition++
		case VerifyLocalKnowledge:
			s.LocalKnowledge++
		case VerifyTriedPersonally:
			s.TriedPersonally++
		case VerifyCulturalAuthenticity:
			s.CulturalAuthenticity++
		case VerifyIngredientAccuracy:
			s.IngredientAccuracy++
		case VerifySafetyConcern:
			s.SafetyConcern++
		case VerifyMedicalValidation:
			s.MedicalValidation++
		}
		if v.IsPositive {
			s.Positive++
		} else {
			s.Concerns++
		}
		s.Total++
	}
	return s
}

// StoryVerificationType is one of the five informal story attestations.
type StoryVerificationType string

const (
	StoryLocalConfirmation  StoryVerificationType = "local_confirmation"
	StorySourceVerification StoryVerificationType = "source_verification"
	StoryFamilyTradition    StoryVerificationType = "family_tradition"
	StoryVisualEvidence     StoryVerificationType = "visual_evidence"
	StoryNeedMoreInfo       StoryVerificationType = "need_more_info"
)

// StoryVerificationTypes lists the kinds in display order.
var StoryVerificationTypes = []StoryVerificationType{
	StoryLocalConfirmation, StorySourceVerification, StoryFamilyTradition,
	StoryVisualEvidence, StoryNeedMoreInfo,
}

// Valid reports whether t is one of the five kinds.
func (t StoryVerificationType) Valid() bool {
	for _, k := range StoryVerificationTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Supportive reports whether the kind counts toward a story's trust level.
// need_more_info is a request for evidence, not an endorsement.
func (t StoryVerificationType) Supportive() bool {
	return t.Valid() && t != StoryNeedMoreInfo
}

// MinEvidenceLength is the shortest evidence text accepted for a story.
const MinEvidenceLength = 10

// StoryVerification is an informal attestation about a story.
type StoryVerification struct {
	ID               uuid.UUID             `json:"id"`
	StoryID          uuid.UUID             `json:"story_id"`
	UserID           uuid.UUID             `json:"user_id"`
	VerificationType StoryVerificationType `json:"verification_type"`
	EvidenceText     string                `json:"evidence_text"`
	EvidenceURL      *string               `json:"evidence_url"`
	IsVerified       bool                  `json:"is_verified"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	User             *AuthorRef            `json:"user,omitempty"`
}

// StoryVerificationSummary counts story verifications per kind.
type StoryVerificationSummary struct {
	LocalCount    int `json:"local_count"`
	SourceCount   int `json:"source_count"`
	FamilyCount   int `json:"family_count"`
	EvidenceCount int `json:"evidence_count"`
	InfoCount     int `json:"info_count"`
	TotalCount    int `json:"total_count"`
}

// SummarizeStoryVerifications tallies vs by kind.
func SummarizeStoryVerifications(vs []StoryVerification) StoryVerificationSummary {
	var s StoryVerificationSummary
	for _, v := range vs {
		switch v.VerificationType {
		case StoryLocalConfirmation:
			s.LocalCount++
		case StorySourceVerification:
			s.SourceCount++
		case StoryFamilyTradition:
			s.FamilyCount++
		case StoryVisualEvidence:
			s.EvidenceCount++
		case StoryNeedMoreInfo:
			s.InfoCount++
		}
		s.TotalCount++
	}
	return s
}
