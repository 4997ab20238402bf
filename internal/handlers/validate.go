// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"unseenindonesia/internal/models"
)

// Validation limits for user-submitted content.
const (
	maxTitleLen       = 300
	maxSubtitleLen    = 500
	maxSummaryLen     = 2_000
	maxBodyLen        = 100_000
	maxShortFieldLen  = 200
	maxFeedbackLen    = 5_000
	maxListItems      = 50
	maxCategoryName   = 100
	maxMinutes        = 7 * 24 * 60
	maxServings       = 1_000
	maxYearsPracticed = 100

	// excerptLen bounds summaries derived from story content.
	excerptLen = 280
)

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func tooLong(field string, max int) string {
	return fmt.Sprintf("%s is too long (max %d characters)", field, max)
}

// requireText checks a mandatory free-text field.
func requireText(field, v string, max int) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return field + " is required"
	}
	if utf8.RuneCountInString(v) > max {
		return tooLong(field, max)
	}
	return ""
}

// optionalText checks an optional free-text field.
func optionalText(field string, v *string, max int) string {
	if v != nil && utf8.RuneCountInString(*v) > max {
		return tooLong(field, max)
	}
	return ""
}

func optionalRange(field string, v *int, lo, hi int) string {
	if v != nil && (*v < lo || *v > hi) {
		return fmt.Sprintf("%s must be between %d and %d", field, lo, hi)
	}
	return ""
}

func validateList(field string, values []string) string {
	if len(values) > maxListItems {
		return fmt.Sprintf("Too many %s (max %d)", field, maxListItems)
	}
	for _, v := range values {
		if utf8.RuneCountInString(v) > maxShortFieldLen {
			return tooLong(field, maxShortFieldLen)
		}
	}
	return ""
}

// validateHTTPURL accepts absolute http and https URLs only.
func validateHTTPURL(field string, v *string) string {
	if v == nil || *v == "" {
		return ""
	}
	u, err := url.Parse(*v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return field + " must be an absolute http(s) URL"
	}
	return ""
}

// validateAuthorStatus restricts authors to draft and published.
func validateAuthorStatus(s *models.Status) string {
	if s != nil && !s.Authorable() {
		return "status must be draft or published"
	}
	return ""
}

// validateCoordinates requires latitude and longitude together and within
// range.
func validateCoordinates(lat, lng *float64) string {
	if (lat == nil) != (lng == nil) {
		return "latitude and longitude must be provided together"
	}
	if lat == nil {
		return ""
	}
	if *lat < -90 || *lat > 90 {
		return "latitude must be between -90 and 90"
	}
	if *lng < -180 || *lng > 180 {
		return "longitude must be between -180 and 180"
	}
	return ""
}

// validateMetadata requires a JSON object when metadata is supplied.
func validateMetadata(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "metadata must be a JSON object"
	}
	return ""
}

func firstError(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}

// validateRemedyChildren checks nested ingredients, steps, benefits and
// images of a new remedy.
func validateRemedyChildren(in *remedyRequest) string {
	if len(in.Ingredients) > maxListItems || len(in.Steps) > maxListItems ||
		len(in.Benefits) > maxListItems || len(in.Images) > maxListItems {
		return fmt.Sprintf("A remedy may have at most %d of each ingredients, steps, benefits and images", maxListItems)
	}
	for i, ing := range in.Ingredients {
		if msg := requireText(fmt.Sprintf("ingredients[%d].name", i), ing.Name, maxShortFieldLen); msg != "" {
			return msg
		}
	}
	for i, st := range in.Steps {
		if msg := requireText(fmt.Sprintf("steps[%d].description", i), st.Description, maxFeedbackLen); msg != "" {
			return msg
		}
		if msg := optionalRange(fmt.Sprintf("steps[%d].estimated_time", i), st.EstimatedTime, 0, maxMinutes); msg != "" {
			return msg
		}
	}
	for i, b := range in.Benefits {
		if msg := requireText(fmt.Sprintf("benefits[%d].benefit", i), b.Benefit, maxShortFieldLen); msg != "" {
			return msg
		}
	}
	return validateImages(in.Images)
}

func validateImages(images []imageRequest) string {
	if len(images) > maxListItems {
		return fmt.Sprintf("Too many images (max %d)", maxListItems)
	}
	for i, img := range images {
		field := fmt.Sprintf("images[%d].image_url", i)
		if strings.TrimSpace(img.ImageURL) == "" {
			return field + " is required"
		}
		if msg := validateHTTPURL(field, &img.ImageURL); msg != "" {
			return msg
		}
	}
	return ""
}

func validateSources(sources []sourceRequest) string {
	if len(sources) > maxListItems {
		return fmt.Sprintf("Too many sources (max %d)", maxListItems)
	}
	for i, s := range sources {
		if !models.SourceType(s.SourceType).Valid() {
			return fmt.Sprintf("sources[%d].source_type %q is not a known source type", i, s.SourceType)
		}
		if msg := validateHTTPURL(fmt.Sprintf("sources[%d].source_url", i), s.SourceURL); msg != "" {
			return msg
		}
	}
	return ""
}
