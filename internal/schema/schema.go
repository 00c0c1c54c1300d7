// Package schema declares the resource schemas for the supported record
// kinds: field sets, choice enumerations with display labels, validation
// rules, and orderable fields. One Schema value fully describes a kind,
// so a single generic service/handler pair can serve all of them.
package schema

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/avolkova/healthtrack/internal/models"
)

// DateLayout is the wire format for the date field.
const DateLayout = "2006-01-02"

// Choice is a single enumerated value with its human-readable label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FieldKind enumerates the supported kind-specific field types.
type FieldKind int

const (
	// FieldInt is an integer field with a lower bound.
	FieldInt FieldKind = iota
	// FieldString is a required non-empty string field.
	FieldString
)

// Field describes one kind-specific field.
type Field struct {
	// Name is the wire name of the field.
	Name string
	// Kind selects the validation applied to the value.
	Kind FieldKind
	// Min is the lowest accepted value for FieldInt fields.
	Min int64
	// Orderable marks the field as usable in the ordering query parameter.
	Orderable bool
}

// Schema describes one resource kind.
type Schema struct {
	// Kind is the singular name ("workout"). Steps keeps its plural form.
	Kind string
	// Plural is the URL segment for the collection ("workouts").
	Plural string
	// TypeField is the wire name of the category choice field,
	// or empty when the kind has none.
	TypeField string
	// Types enumerates the category choices in declaration order.
	Types []Choice
	// Statuses enumerates the status choices in declaration order.
	Statuses []Choice
	// DefaultStatus is assigned when a create request omits status.
	DefaultStatus string
	// Fields lists the kind-specific fields.
	Fields []Field
}

// Workout describes the workout resource.
var Workout = &Schema{
	Kind:      "workout",
	Plural:    "workouts",
	TypeField: "workout_type",
	Types: []Choice{
		{Value: "cardio", Label: "Cardio"},
		{Value: "strength", Label: "Strength"},
		{Value: "yoga", Label: "Yoga"},
		{Value: "pilates", Label: "Pilates"},
		{Value: "sports", Label: "Sports"},
		{Value: "other", Label: "Other"},
	},
	Statuses: []Choice{
		{Value: "planned", Label: "Planned"},
		{Value: "in_progress", Label: "In Progress"},
		{Value: "completed", Label: "Completed"},
		{Value: "cancelled", Label: "Cancelled"},
	},
	DefaultStatus: "planned",
	Fields: []Field{
		{Name: "duration", Kind: FieldInt, Min: 1, Orderable: true},
		{Name: "calories_burned", Kind: FieldInt, Min: 1, Orderable: true},
	},
}

// Meal describes the meal resource.
var Meal = &Schema{
	Kind:      "meal",
	Plural:    "meals",
	TypeField: "meal_type",
	Types: []Choice{
		{Value: "breakfast", Label: "Breakfast"},
		{Value: "lunch", Label: "Lunch"},
		{Value: "dinner", Label: "Dinner"},
		{Value: "snack", Label: "Snack"},
	},
	Statuses: []Choice{
		{Value: "planned", Label: "Planned"},
		{Value: "consumed", Label: "Consumed"},
		{Value: "skipped", Label: "Skipped"},
	},
	DefaultStatus: "planned",
	Fields: []Field{
		{Name: "food_name", Kind: FieldString},
		{Name: "calories", Kind: FieldInt, Min: 1, Orderable: true},
	},
}

// Steps describes the steps resource. It has no category field.
var Steps = &Schema{
	Kind:   "steps",
	Plural: "steps",
	Statuses: []Choice{
		{Value: "planned", Label: "Planned"},
		{Value: "in_progress", Label: "In Progress"},
		{Value: "completed", Label: "Completed"},
	},
	DefaultStatus: "planned",
	Fields: []Field{
		{Name: "total_steps", Kind: FieldInt, Min: 0, Orderable: true},
	},
}

// All lists every declared schema.
func All() []*Schema {
	return []*Schema{Workout, Meal, Steps}
}

// Validate checks a full create/replace payload against the schema and
// builds the resulting record. Every invalid field is reported, not just
// the first. Unknown keys, including owner and created_at, are ignored.
func (s *Schema) Validate(input map[string]any) (models.Record, error) {
	errs := make(map[string]string)
	rec := models.Record{
		Kind:   s.Kind,
		Status: s.DefaultStatus,
		Fields: make(map[string]any, len(s.Fields)),
	}

	if raw, ok := input["date"]; !ok || raw == nil {
		errs["date"] = "this field is required"
	} else if date, msg := parseDate(raw); msg != "" {
		errs["date"] = msg
	} else {
		rec.Date = date
	}

	if s.TypeField != "" {
		if raw, ok := input[s.TypeField]; !ok || raw == nil {
			errs[s.TypeField] = "this field is required"
		} else if value, msg := parseChoice(raw, s.Types); msg != "" {
			errs[s.TypeField] = msg
		} else {
			rec.Type = value
		}
	}

	if raw, ok := input["status"]; ok && raw != nil {
		if value, msg := parseChoice(raw, s.Statuses); msg != "" {
			errs["status"] = msg
		} else {
			rec.Status = value
		}
	}

	if raw, ok := input["description"]; ok && raw != nil {
		if text, ok := raw.(string); ok {
			rec.Description = text
		} else {
			errs["description"] = "must be a string"
		}
	}

	for _, f := range s.Fields {
		raw, ok := input[f.Name]
		if !ok || raw == nil {
			errs[f.Name] = "this field is required"
			continue
		}
		value, msg := f.parse(raw)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		rec.Fields[f.Name] = value
	}

	if len(errs) > 0 {
		return models.Record{}, &models.ValidationError{Fields: errs}
	}
	return rec, nil
}

// ValidatePartial applies only the keys present in input onto rec,
// validating each one. Absent fields keep their stored values. Owner and
// creation timestamp are not part of the schema and cannot be touched.
func (s *Schema) ValidatePartial(rec *models.Record, input map[string]any) error {
	errs := make(map[string]string)
	if rec.Fields == nil {
		rec.Fields = make(map[string]any, len(s.Fields))
	}

	if raw, ok := input["date"]; ok {
		if date, msg := parseDate(raw); msg != "" {
			errs["date"] = msg
		} else {
			rec.Date = date
		}
	}

	if s.TypeField != "" {
		if raw, ok := input[s.TypeField]; ok {
			if value, msg := parseChoice(raw, s.Types); msg != "" {
				errs[s.TypeField] = msg
			} else {
				rec.Type = value
			}
		}
	}

	if raw, ok := input["status"]; ok {
		if value, msg := parseChoice(raw, s.Statuses); msg != "" {
			errs["status"] = msg
		} else {
			rec.Status = value
		}
	}

	if raw, ok := input["description"]; ok {
		if raw == nil {
			rec.Description = ""
		} else if text, ok := raw.(string); ok {
			rec.Description = text
		} else {
			errs["description"] = "must be a string"
		}
	}

	for _, f := range s.Fields {
		raw, ok := input[f.Name]
		if !ok {
			continue
		}
		value, msg := f.parse(raw)
		if msg != "" {
			errs[f.Name] = msg
			continue
		}
		rec.Fields[f.Name] = value
	}

	if len(errs) > 0 {
		return &models.ValidationError{Fields: errs}
	}
	return nil
}

// Ordering parses the comma-separated ordering query parameter into
// ordering terms. A "-" prefix selects descending order. Unknown field
// names are ignored. The default ordering (date desc, created_at desc)
// is appended as a tie-break so results stay deterministic.
func (s *Schema) Ordering(raw string) []models.OrderBy {
	var out []models.OrderBy
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		if !s.orderable(name) || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, models.OrderBy{Field: name, Desc: desc})
	}
	if !seen["date"] {
		out = append(out, models.OrderBy{Field: "date", Desc: true})
	}
	if !seen["created_at"] {
		out = append(out, models.OrderBy{Field: "created_at", Desc: true})
	}
	return out
}

func (s *Schema) orderable(name string) bool {
	if name == "date" || name == "created_at" {
		return true
	}
	for _, f := range s.Fields {
		if f.Orderable && f.Name == name {
			return true
		}
	}
	return false
}

func (f Field) parse(raw any) (any, string) {
	switch f.Kind {
	case FieldString:
		text, ok := raw.(string)
		if !ok {
			return nil, "must be a string"
		}
		if strings.TrimSpace(text) == "" {
			return nil, "must not be empty"
		}
		return text, ""
	default:
		n, ok := intValue(raw)
		if !ok {
			return nil, "must be a whole number"
		}
		if n < f.Min {
			if f.Min > 0 {
				return nil, "must be a positive integer"
			}
			return nil, "must not be negative"
		}
		return n, ""
	}
}

func parseDate(raw any) (time.Time, string) {
	text, ok := raw.(string)
	if !ok {
		return time.Time{}, "must be a date in YYYY-MM-DD format"
	}
	date, err := time.Parse(DateLayout, text)
	if err != nil {
		return time.Time{}, "must be a date in YYYY-MM-DD format"
	}
	return date, ""
}

func parseChoice(raw any, choices []Choice) (string, string) {
	text, ok := raw.(string)
	if !ok {
		return "", "must be a string"
	}
	for _, c := range choices {
		if c.Value == text {
			return text, ""
		}
	}
	return "", fmt.Sprintf("%q is not a valid choice", text)
}

// intValue converts a decoded JSON value to an integer, rejecting
// fractional numbers. encoding/json decodes numbers as float64.
func intValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
