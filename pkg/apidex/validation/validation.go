// Package validation checks submitted field values before anything touches
// the store. Functions here are pure: no network, no storage, safe to call
// repeatedly. The result is either a normalized record or a map from field
// name to human-readable messages (the "root" key is reserved for
// whole-submission failures surfaced by later layers).
package validation

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/apidex/apidex/pkg/apidex/apperror"
	"github.com/apidex/apidex/pkg/apidex/models"
)

// SubmissionInput is the raw field bag for an endpoint or submission form
type SubmissionInput struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Protocol    string `json:"protocol"`
	Address     string `json:"address"`
	Ports       string `json:"ports"`
	TagIDs      []uint `json:"tag_ids"`
	IconURL     string `json:"icon_url"`
}

// Submission is a normalized, validated submission record
type Submission struct {
	Company     string
	Title       string
	Description string
	Protocol    string
	Address     string
	Ports       models.Ports
	TagIDs      []uint
	IconURL     string
}

func protocolValues() []interface{} {
	ps := models.Protocols()
	out := make([]interface{}, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// ValidateSubmission validates and normalizes a raw submission. Tag ids are
// checked for presence and uniqueness only; whether they reference existing
// tags is verified at persistence time.
func ValidateSubmission(in SubmissionInput) (*Submission, *apperror.Error) {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Company,
			validation.Required.Error("Company name is required"),
			validation.Length(1, 100).Error("Company name must be at most 100 characters")),
		validation.Field(&in.Title,
			validation.Required.Error("Title is required"),
			validation.Length(1, 200).Error("Title must be at most 200 characters")),
		validation.Field(&in.Description,
			validation.Length(0, 1000).Error("Description must be at most 1000 characters")),
		validation.Field(&in.Protocol,
			validation.Required.Error("Protocol is required"),
			validation.In(protocolValues()...).Error("Protocol must be one of HTTP, HTTPS, gRPC, WebSocket, TCP, UDP")),
		validation.Field(&in.Address,
			validation.Required.Error("Address is required"),
			validation.Length(1, 500).Error("Address must be at most 500 characters")),
		validation.Field(&in.TagIDs,
			validation.Required.Error("Select at least one tag")),
		validation.Field(&in.IconURL,
			is.URL.Error("Icon URL must be a valid URL")),
	)
	if err != nil {
		return nil, toFieldErrors(err)
	}

	return &Submission{
		Company:     in.Company,
		Title:       in.Title,
		Description: in.Description,
		Protocol:    in.Protocol,
		Address:     in.Address,
		Ports:       NormalizePorts(in.Ports),
		TagIDs:      dedupe(in.TagIDs),
		IconURL:     in.IconURL,
	}, nil
}

// NormalizePorts splits a comma-separated ports field, trimming whitespace
// and dropping empty entries. An empty or all-whitespace field normalizes
// to nil, not an empty list.
func NormalizePorts(raw string) models.Ports {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out models.Ports
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var (
	slugRegex  = regexp.MustCompile(`^[a-z0-9-]+$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// TagInput is the raw field bag for creating or updating a tag
type TagInput struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// ValidateTag validates tag reference data
func ValidateTag(in TagInput) *apperror.Error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("Tag name is required"),
			validation.Length(1, 50).Error("Tag name must be at most 50 characters")),
		validation.Field(&in.Slug,
			validation.Required.Error("Slug is required"),
			validation.Length(1, 50).Error("Slug must be at most 50 characters"),
			validation.Match(slugRegex).Error("Slug must be lowercase alphanumeric with hyphens")),
		validation.Field(&in.Color,
			validation.Required.Error("Color is required"),
			validation.Match(colorRegex).Error("Must be a valid hex color")),
	)
	if err != nil {
		return toFieldErrors(err)
	}
	return nil
}

func toFieldErrors(err error) *apperror.Error {
	if ve, ok := err.(validation.Errors); ok {
		fields := make(map[string][]string, len(ve))
		for field, ferr := range ve {
			fields[field] = []string{ferr.Error()}
		}
		return apperror.Validation(fields)
	}
	return apperror.ValidationField("root", err.Error())
}
