// ABOUTME: Per-section validity checks for survey drafts
// ABOUTME: Each check returns ordered, human-readable errors and never fails hard
package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/markahope-aag/hazardos-sub000/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	return v
}

// fieldMessages maps struct fields to the message shown when their tag fails.
var fieldMessages = map[string]string{
	"Address":                "Address is required",
	"City":                   "City is required",
	"State":                  "State is required",
	"Zip":                    "ZIP code is required",
	"BuildingType":           "Building type is required",
	"HasRestrictions":        "Access restrictions must be answered",
	"ParkingAvailable":       "Parking availability must be answered",
	"EquipmentAccess":        "Equipment access must be selected",
	"Temperature":            "Temperature is required",
	"Humidity":               "Humidity is required",
	"HasStructuralConcerns":  "Structural concerns must be answered",
	"UtilityShutoffsLocated": "Utility shutoff location must be answered",
}

// structErrors runs the tag rules on s and returns messages in field declaration order.
func structErrors(s any) []string {
	err := validate.Struct(s)
	if err == nil {
		return []string{}
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.StructField()]
		if !ok {
			msg = fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
		}
		out = append(out, msg)
	}
	return out
}

func result(errs []string) models.SectionValidation {
	return models.SectionValidation{IsValid: len(errs) == 0, Errors: errs}
}

// Property requires address, city, state, zip, and building type.
func Property(p models.PropertyData) models.SectionValidation {
	return result(structErrors(p))
}

// Access requires the restrictions, parking, and equipment access answers.
func Access(a models.AccessData) models.SectionValidation {
	return result(structErrors(a))
}

// Environment requires readings and the structural and utility answers.
func Environment(e models.EnvironmentData) models.SectionValidation {
	return result(structErrors(e))
}

// Hazards requires a selection and at least one entry per selected hazard's detail.
func Hazards(h models.HazardsData) models.SectionValidation {
	errs := []string{}
	if len(h.Types) == 0 {
		errs = append(errs, "At least one hazard type must be selected")
	}
	for _, t := range h.Types {
		switch t {
		case models.HazardAsbestos:
			if h.Asbestos == nil || len(h.Asbestos.Materials) == 0 {
				errs = append(errs, "Add at least one asbestos material")
			}
		case models.HazardMold:
			if h.Mold == nil || len(h.Mold.AffectedAreas) == 0 {
				errs = append(errs, "Add at least one mold affected area")
			}
		case models.HazardLead:
			if h.Lead == nil || len(h.Lead.Components) == 0 {
				errs = append(errs, "Add at least one lead component")
			}
		}
	}
	return result(errs)
}

// Photos requires MinExteriorPhotos exterior shots.
func Photos(photos []models.PhotoRecord) models.SectionValidation {
	exterior := 0
	for _, p := range photos {
		if p.Category == models.PhotoExterior {
			exterior++
		}
	}

	errs := []string{}
	if missing := models.MinExteriorPhotos - exterior; missing > 0 {
		noun := "photos"
		if missing == 1 {
			noun = "photo"
		}
		errs = append(errs, fmt.Sprintf("%d more exterior %s required", missing, noun))
	}
	return result(errs)
}

// Review is valid only when every other section is.
func Review(d models.SurveyDraft) models.SectionValidation {
	errs := []string{}
	for _, s := range models.SectionOrder {
		if s == models.SectionReview {
			continue
		}
		if !Section(d, s).IsValid {
			errs = append(errs, fmt.Sprintf("%s section is incomplete", s.Title()))
		}
	}
	return result(errs)
}

// Section dispatches to the check for s.
func Section(d models.SurveyDraft, s models.SurveySection) models.SectionValidation {
	switch s {
	case models.SectionProperty:
		return Property(d.Property)
	case models.SectionAccess:
		return Access(d.Access)
	case models.SectionEnvironment:
		return Environment(d.Environment)
	case models.SectionHazards:
		return Hazards(d.Hazards)
	case models.SectionPhotos:
		return Photos(d.Photos)
	case models.SectionReview:
		return Review(d)
	}
	return result([]string{fmt.Sprintf("unknown section %q", s)})
}

// All validates every section.
func All(d models.SurveyDraft) map[models.SurveySection]models.SectionValidation {
	out := make(map[models.SurveySection]models.SectionValidation, len(models.SectionOrder))
	for _, s := range models.SectionOrder {
		out[s] = Section(d, s)
	}
	return out
}

// Invalid lists the sections in a validation map that failed, in wizard order.
func Invalid(m map[models.SurveySection]models.SectionValidation) []models.SurveySection {
	var out []models.SurveySection
	for _, s := range models.SectionOrder {
		if v, ok := m[s]; ok && !v.IsValid {
			out = append(out, s)
		}
	}
	return out
}
