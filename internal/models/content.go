// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Status is the lifecycle state shared by stories and remedies.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPublished   Status = "published"
	StatusUnderReview Status = "under_review"
	StatusArchived    Status = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusUnderReview, StatusArchived:
		return true
	}
	return false
}

// Authorable reports whether an author may set s directly on create or
// update. under_review is set by moderation and archived only through
// the soft-delete endpoint.
func (s Status) Authorable() bool {
	return s == StatusDraft || s == StatusPublished
}

// Difficulty grades how hard a remedy is to prepare.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Mudah"
	DifficultyMedium Difficulty = "Sedang"
	DifficultyHard   Difficulty = "Sulit"
)

// DefaultDifficulty is applied when a remedy is created without one.
const DefaultDifficulty = DifficultyMedium

// Valid reports whether d is one of the three known grades.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TrustLevel summarizes community confidence in a story or remedy, 0..4.
type TrustLevel int

const (
	TrustNew TrustLevel = iota
	TrustInteresting
	TrustVerified
	TrustSourced
	TrustTrusted
)

// MaxTrustLevel is the highest trust level an item can reach.
const MaxTrustLevel = TrustTrusted

var trustLabels = [...]string{"Baru", "Menarik", "Terverifikasi", "Bersumber", "Terpercaya"}

var trustColors = [...]string{"#EF4444", "#F59E0B", "#10B981", "#3B82F6", "#8B5CF6"}

// Valid reports whether t is within 0..4.
func (t TrustLevel) Valid() bool {
	return t >= TrustNew && t <= MaxTrustLevel
}

// Label returns the Indonesian display label for the level.
func (t TrustLevel) Label() string {
	if !t.Valid() {
		return "Unknown"
	}
	return trustLabels[t]
}

// Color returns the marker color used for the level on the map.
func (t TrustLevel) Color() string {
	if !t.Valid() {
		return "#6B7280"
	}
	return trustColors[t]
}

// Verified positive attestations needed to reach each level above zero.
var trustThresholds = [...]int{1, 3, 5, 10}

// TrustLevelFor maps a count of moderated, positive verifications onto a
// trust level. Callers must never lower an item's stored level with it.
func TrustLevelFor(verifiedPositive int) TrustLevel {
	level := TrustNew
	for i, need := range trustThresholds {
		if verifiedPositive >= need {
			level = TrustLevel(i + 1)
		}
	}
	return level
}
