// ABOUTME: Field table for section editors
// ABOUTME: Turns key=value text into typed merge patches and renders current values
package draft

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/markahope-aag/hazardos-sub000/models"
)

// Field describes one patchable key of a section.
type Field struct {
	Key      string
	Text     bool
	Nullable bool
}

type reviewShape struct {
	Notes string `json:"notes"`
}

func sectionShape(section models.SurveySection) (any, bool) {
	switch section {
	case models.SectionProperty:
		return models.PropertyData{}, true
	case models.SectionAccess:
		return models.AccessData{}, true
	case models.SectionEnvironment:
		return models.EnvironmentData{}, true
	case models.SectionHazards:
		return models.HazardsData{}, true
	case models.SectionReview:
		return reviewShape{}, true
	}
	return nil, false
}

// Fields lists the patchable keys of a section in declaration order.
func Fields(section models.SurveySection) []Field {
	shape, ok := sectionShape(section)
	if !ok {
		return nil
	}
	t := reflect.TypeOf(shape)
	out := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		ft := f.Type
		nullable := ft.Kind() == reflect.Pointer
		if nullable {
			ft = ft.Elem()
		}
		out = append(out, Field{Key: name, Text: ft.Kind() == reflect.String, Nullable: nullable})
	}
	return out
}

// LookupField finds key among the fields of section.
func LookupField(section models.SurveySection, key string) (Field, bool) {
	for _, f := range Fields(section) {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Literal encodes user text for f. Text fields stay strings; other values are
// read as JSON literals and "null" clears an optional field.
func (f Field) Literal(v string) json.RawMessage {
	raw := strings.TrimSpace(v)
	if f.Nullable && raw == "null" {
		return json.RawMessage("null")
	}
	if !f.Text && raw != "" && json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(v)
	return quoted
}

// FieldPatch builds a merge patch from key/value text pairs.
func FieldPatch(section models.SurveySection, values map[string]string) ([]byte, error) {
	patch := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		f, ok := LookupField(section, k)
		if !ok {
			return nil, fmt.Errorf("%s has no field %q", section, k)
		}
		patch[k] = f.Literal(v)
	}
	return json.Marshal(patch)
}

// FieldValues renders the current value of every field of section as text.
// Unset optional fields come back empty.
func (s *Store) FieldValues(section models.SurveySection) (map[string]string, error) {
	var data any
	switch section {
	case models.SectionProperty:
		data = s.Property()
	case models.SectionAccess:
		data = s.Access()
	case models.SectionEnvironment:
		data = s.Environment()
	case models.SectionHazards:
		data = s.Hazards()
	case models.SectionReview:
		data = reviewShape{Notes: s.Notes()}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotPatchable, section)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		var text string
		switch {
		case string(v) == "null":
		case json.Unmarshal(v, &text) == nil:
		default:
			text = string(v)
		}
		out[k] = text
	}
	return out, nil
}
