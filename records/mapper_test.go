// ABOUTME: Tests for draft and record mapping
// ABOUTME: Checks round trips, legacy column synthesis, photo filtering, and initial record shape
package records

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/models"
)

var started = time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)

func populatedDraft() models.SurveyDraft {
	d := models.NewSurveyDraft()
	d.SurveyID = models.Ptr("survey-1")
	d.CustomerID = models.Ptr("cust-7")
	d.OrganizationID = models.Ptr("org-1")
	d.StartedAt = &started
	d.Notes = "Owner on site until noon"

	d.Property = models.PropertyData{
		Address:          "400 Lake Rd",
		City:             "Duluth",
		State:            "MN",
		Zip:              "55802",
		BuildingType:     models.Ptr(models.BuildingCommercial),
		YearBuilt:        models.Ptr(1958),
		SquareFootage:    models.Ptr(12000.0),
		Stories:          models.Ptr(3),
		ConstructionType: models.Ptr("masonry"),
		OccupancyStatus:  models.Ptr(models.OccupancyVacant),
		OwnerName:        "Lakeside LLC",
		OwnerPhone:       "218-555-0100",
		OwnerEmail:       "ops@lakeside.example",
	}
	d.Access = models.AccessData{
		HasRestrictions:      models.Ptr(true),
		RestrictionNotes:     "badge required",
		ParkingAvailable:     models.Ptr(false),
		LoadingZoneAvailable: models.Ptr(true),
		EquipmentAccess:      models.Ptr(models.EquipmentAccessDifficult),
		ElevatorAvailable:    models.Ptr(false),
		MinDoorwayWidth:      models.Ptr(30.0),
		Notes:                "north dock only",
	}
	d.Environment = models.EnvironmentData{
		Temperature:            models.Ptr(55.5),
		Humidity:               models.Ptr(72.0),
		MoistureIssues:         []string{"roof leak", "condensation"},
		HasStructuralConcerns:  models.Ptr(true),
		StructuralConcernNotes: "sagging joist in bay 3",
		UtilityShutoffsLocated: models.Ptr(false),
		Notes:                  "power still live",
	}

	d.Hazards.Types = []models.HazardType{models.HazardMold, models.HazardAsbestos, models.HazardLead, models.HazardOther}
	d.Hazards.Asbestos = &models.AsbestosDetail{
		Materials: []models.AsbestosMaterial{{
			ID: "m1", MaterialType: "pipe insulation", Quantity: 300, Unit: models.UnitLinearFeet,
			Location: "boiler room", Condition: models.ConditionSevereDamage, Friable: true,
			PipeDiameter: models.Ptr(4.0), PipeThickness: models.Ptr(1.5), Notes: "wrapped",
		}},
		EstimatedWasteVolume:    45.2,
		ContainmentLevel:        models.ContainmentCritical,
		EPANotificationRequired: true,
	}
	d.Hazards.Mold = &models.MoldDetail{
		MoistureSource:       models.Ptr("roof"),
		MoistureSourceStatus: models.Ptr("active"),
		MoistureSourceNotes:  "ponding",
		AffectedAreas: []models.MoldAffectedArea{{
			ID: "a1", Location: "3rd floor", SquareFootage: 120, MaterialType: "drywall",
			MaterialsAffected: []string{"drywall", "carpet"}, Severity: "heavy", MoistureReading: models.Ptr(28.0),
		}},
		HVACContaminated: models.Ptr(false),
		OdorLevel:        models.Ptr(models.OdorStrong),
		SizeCategory:     models.MoldSizeLarge,
	}
	d.Hazards.Lead = &models.LeadDetail{
		ChildrenUnder6Present: models.Ptr(false),
		WorkScope:             models.Ptr(models.LeadScopeBoth),
		Components: []models.LeadComponent{{
			ID: "c1", ComponentType: models.ComponentWindowsTrim, Location: "lobby", Quantity: 40,
			Unit: models.UnitSquareFeet, Condition: "peeling",
		}},
		RRPRuleApplies: true,
		WorkMethod:     models.Ptr("wet scraping"),
		TotalWorkArea:  40,
	}
	d.Hazards.OtherDescription = "PCB ballasts"

	d.Photos = []models.PhotoRecord{
		{ID: "p1", PreviewURL: "https://cdn.example.com/p1.jpg", Timestamp: started, Category: models.PhotoExterior,
			Location: "front", Caption: "street view", GPS: &models.GPSCoordinates{Latitude: 46.78, Longitude: -92.1}},
		{ID: "p2", PreviewURL: "https://cdn.example.com/p2.jpg", Timestamp: started.Add(time.Minute), Category: models.PhotoHazard},
	}
	return d
}

func TestRoundTripPreservesSections(t *testing.T) {
	d := populatedDraft()
	back := FromRecord(ToRecord(d, "org-1", Options{}))

	assert.Equal(t, d.SurveyID, back.SurveyID)
	assert.Equal(t, d.CustomerID, back.CustomerID)
	assert.Equal(t, d.OrganizationID, back.OrganizationID)
	assert.Equal(t, d.StartedAt, back.StartedAt)
	assert.Equal(t, d.Notes, back.Notes)
	assert.Equal(t, d.Property, back.Property)
	assert.Equal(t, d.Access, back.Access)
	assert.Equal(t, d.Environment, back.Environment)
	assert.Equal(t, d.Hazards, back.Hazards)
	assert.Equal(t, d.Photos, back.Photos)
}

func TestRoundTripThroughJSON(t *testing.T) {
	d := populatedDraft()
	data, err := json.Marshal(ToRecord(d, "org-1", Options{}))
	require.NoError(t, err)

	var rec SurveyRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	back := FromRecord(rec)

	assert.Equal(t, d.Property, back.Property)
	assert.Equal(t, d.Hazards, back.Hazards)
	assert.Equal(t, d.Photos, back.Photos)
}

func TestRoundTripOfDefaultDraft(t *testing.T) {
	d := models.NewSurveyDraft()
	back := FromRecord(ToRecord(d, "", Options{}))

	assert.Equal(t, d.Property, back.Property)
	assert.Equal(t, d.Access, back.Access)
	assert.Equal(t, d.Environment, back.Environment)
	assert.Equal(t, d.Hazards, back.Hazards)
	assert.Equal(t, d.Photos, back.Photos)
	assert.Nil(t, back.SurveyID)
}

func TestEmptyMoistureIssuesSurviveRoundTrip(t *testing.T) {
	d := populatedDraft()
	d.Environment.MoistureIssues = []string{}

	rec := ToRecord(d, "org-1", Options{})
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded SurveyRecord
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, back := range []models.SurveyDraft{FromRecord(rec), FromRecord(decoded)} {
		assert.Equal(t, d.Environment, back.Environment)
		assert.Equal(t, []string{}, back.Environment.MoistureIssues)
	}
}

func TestLocalPayloadIsNotCarried(t *testing.T) {
	d := models.NewSurveyDraft()
	d.Photos = []models.PhotoRecord{{ID: "p1", Data: []byte{0xff}, Category: models.PhotoExterior, Timestamp: started}}

	rec := ToRecord(d, "org", Options{})
	require.Len(t, rec.PhotoMetadata, 1)
	assert.Nil(t, rec.PhotoMetadata[0].URL)

	back := FromRecord(rec)
	assert.Nil(t, back.Photos[0].Data)
	assert.Equal(t, "p1", back.Photos[0].ID)
}

func TestToRecordDropsIncompletePhotos(t *testing.T) {
	d := models.NewSurveyDraft()
	d.Photos = []models.PhotoRecord{
		{ID: "empty", Category: models.PhotoExterior},
		{ID: "captioned", Caption: "needs retake"},
		{ID: "local", Data: []byte{1}},
		{ID: "remote", PreviewURL: "https://cdn.example.com/r.jpg"},
	}

	var ids []string
	for _, p := range ToRecord(d, "org", Options{}).PhotoMetadata {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"captioned", "local", "remote"}, ids)
}

func TestLegacyHazardType(t *testing.T) {
	d := models.NewSurveyDraft()
	assert.Nil(t, ToRecord(d, "org", Options{}).HazardType)

	d.Hazards.Types = []models.HazardType{models.HazardLead, models.HazardMold}
	rec := ToRecord(d, "org", Options{})
	require.NotNil(t, rec.HazardType)
	assert.Equal(t, "lead", *rec.HazardType)

	legacy := SurveyRecord{HazardType: models.Ptr("asbestos")}
	assert.Equal(t, []models.HazardType{models.HazardAsbestos}, FromRecord(legacy).Hazards.Types)
}

func TestToRecordOptions(t *testing.T) {
	d := models.NewSurveyDraft()
	assert.Equal(t, StatusDraft, ToRecord(d, "org", Options{}).Status)

	at := started.Add(time.Hour)
	rec := ToRecord(d, "org", Options{Status: StatusSubmitted, SubmittedAt: &at})
	assert.Equal(t, StatusSubmitted, rec.Status)
	assert.Equal(t, &at, rec.SubmittedAt)
	assert.Equal(t, "org", rec.OrganizationID)
}

func TestFromRecordToleratesSparseRecord(t *testing.T) {
	var rec SurveyRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": "s-1", "site_city": "Ely", "hazard_assessments": {"types": ["mold", "radon"]}}`), &rec))

	d := FromRecord(rec)
	assert.Equal(t, "s-1", *d.SurveyID)
	assert.Equal(t, "Ely", d.Property.City)
	assert.Empty(t, d.Property.Address)
	assert.Nil(t, d.Property.BuildingType)
	assert.Nil(t, d.Access.ParkingAvailable)
	assert.Equal(t, []models.HazardType{models.HazardMold}, d.Hazards.Types)
	assert.NotNil(t, d.Photos)
	assert.Equal(t, models.SectionProperty, d.CurrentSection)
}

func TestNewInitialRecordShape(t *testing.T) {
	rec := NewInitialRecord("org-1", nil)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"customer_id", "site_address", "hazard_type", "access_info", "environment_info", "hazard_assessments", "photo_metadata", "notes"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, []any{}, raw["photo_metadata"])

	access := raw["access_info"].(map[string]any)
	assert.Contains(t, access, "has_restrictions")
	assert.Nil(t, access["has_restrictions"])

	env := raw["environment_info"].(map[string]any)
	assert.Equal(t, []any{}, env["moisture_issues"])

	hz := raw["hazard_assessments"].(map[string]any)
	assert.Equal(t, []any{}, hz["types"])
	assert.Contains(t, hz, "asbestos")
	assert.Equal(t, "draft", raw["status"])
}
