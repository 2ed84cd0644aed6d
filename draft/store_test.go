// ABOUTME: Tests for the survey draft store
// ABOUTME: Covers dirty tracking, merge patches, the hazard toggle rule, entity CRUD, and persistence
package draft

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/models"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore() *Store {
	n := 0
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestMutationMarksDirtyAndStartedAt(t *testing.T) {
	s := newTestStore()
	require.False(t, s.IsDirty())
	require.Nil(t, s.Snapshot().StartedAt)

	s.UpdateProperty(func(p *models.PropertyData) { p.Address = "1 Main St" })

	snap := s.Snapshot()
	assert.True(t, snap.IsDirty)
	require.NotNil(t, snap.StartedAt)
	assert.Equal(t, fixedNow, *snap.StartedAt)
}

func TestStartedAtOnlyStampedOnce(t *testing.T) {
	clock := fixedNow
	s := New(WithClock(func() time.Time { return clock }))

	s.SetNotes("first")
	clock = clock.Add(time.Hour)
	s.SetNotes("second")

	assert.Equal(t, fixedNow, *s.Snapshot().StartedAt)
}

func TestCursorAndValidationAreNotEdits(t *testing.T) {
	s := newTestStore()
	s.SetCurrentSection(models.SectionHazards)
	s.SetValidation(models.SectionProperty, models.SectionValidation{IsValid: false, Errors: []string{"x"}})

	assert.False(t, s.IsDirty())
	assert.Equal(t, models.SectionHazards, s.CurrentSection())
	assert.Equal(t, []string{"x"}, s.Validation()[models.SectionProperty].Errors)
}

func TestMergeUpdateKeepsSiblings(t *testing.T) {
	s := newTestStore()
	s.UpdateProperty(func(p *models.PropertyData) {
		p.Address = "1 Main St"
		p.City = "Madison"
	})
	s.UpdateProperty(func(p *models.PropertyData) { p.Zip = "53703" })

	p := s.Property()
	assert.Equal(t, "1 Main St", p.Address)
	assert.Equal(t, "Madison", p.City)
	assert.Equal(t, "53703", p.Zip)
}

func TestPatchSection(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.PatchSection(models.SectionAccess, []byte(`{"has_restrictions": false, "notes": "gate code 1234"}`)))
	require.NoError(t, s.PatchSection(models.SectionAccess, []byte(`{"parking_available": true}`)))

	a := s.Access()
	require.NotNil(t, a.HasRestrictions)
	assert.False(t, *a.HasRestrictions)
	require.NotNil(t, a.ParkingAvailable)
	assert.Equal(t, "gate code 1234", a.Notes)

	require.NoError(t, s.PatchSection(models.SectionAccess, []byte(`{"has_restrictions": null}`)))
	assert.Nil(t, s.Access().HasRestrictions)
	assert.NotNil(t, s.Access().ParkingAvailable)
}

func TestPatchSectionRejectsBadInputWithoutChanges(t *testing.T) {
	s := newTestStore()
	s.UpdateEnvironment(func(e *models.EnvironmentData) { e.Temperature = models.Ptr(70.0) })
	rev := s.Revision()

	err := s.PatchSection(models.SectionEnvironment, []byte(`{"temperature": 65, "colour": "blue"}`))
	assert.Error(t, err)
	assert.Equal(t, 70.0, *s.Environment().Temperature)
	assert.Equal(t, rev, s.Revision())

	err = s.PatchSection(models.SectionPhotos, []byte(`{}`))
	assert.ErrorIs(t, err, ErrNotPatchable)
}

func TestPatchHazardsAppliesToggleRule(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.PatchSection(models.SectionHazards, []byte(`{"types": ["mold", "lead", "mold"]}`)))

	h := s.Hazards()
	assert.Equal(t, []models.HazardType{models.HazardMold, models.HazardLead}, h.Types)
	assert.NotNil(t, h.Mold)
	assert.NotNil(t, h.Lead)
	assert.Nil(t, h.Asbestos)

	require.NoError(t, s.PatchSection(models.SectionHazards, []byte(`{"types": ["lead"], "mold": {"odor_level": "strong"}}`)))
	assert.Nil(t, s.Hazards().Mold)

	assert.ErrorIs(t, s.PatchSection(models.SectionHazards, []byte(`{"types": ["radon"]}`)), ErrUnknownHazard)
}

func TestPatchHazardListsReplaceAndGetIDs(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	first, err := s.AddMaterial(models.AsbestosMaterial{MaterialType: "tile", Quantity: 40, Unit: models.UnitSquareFeet, Location: "attic"})
	require.NoError(t, err)

	patch := `{"asbestos": {"materials": [
		{"quantity": 5, "unit": "sq_ft"},
		{"id": "dup", "quantity": 7, "unit": "sq_ft"},
		{"id": "dup", "quantity": 9, "unit": "sq_ft"}
	]}}`
	require.NoError(t, s.PatchSection(models.SectionHazards, []byte(patch)))

	materials := s.Hazards().Asbestos.Materials
	require.Len(t, materials, 3)
	assert.Empty(t, materials[0].Location, "a patched list must not inherit fields from the old entries")
	assert.NotEqual(t, first, materials[0].ID)

	ids := map[string]bool{}
	for _, m := range materials {
		assert.NotEmpty(t, m.ID)
		ids[m.ID] = true
	}
	assert.Len(t, ids, 3)
	assert.Equal(t, "dup", materials[1].ID)
	assert.Equal(t, []float64{5, 7, 9}, []float64{materials[0].Quantity, materials[1].Quantity, materials[2].Quantity})

	require.NoError(t, s.RemoveMaterial(materials[2].ID))
	assert.Len(t, s.Hazards().Asbestos.Materials, 2)

	require.NoError(t, s.PatchSection(models.SectionHazards, []byte(`{"asbestos": {"materials": null}}`)))
	assert.NotNil(t, s.Hazards().Asbestos.Materials)
	assert.Empty(t, s.Hazards().Asbestos.Materials)
}

func TestToggleOffThenOnYieldsDefault(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	_, err := s.AddMaterial(models.AsbestosMaterial{MaterialType: "pipe insulation", Quantity: 300, Unit: models.UnitLinearFeet, Friable: true})
	require.NoError(t, err)
	require.Len(t, s.Hazards().Asbestos.Materials, 1)

	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	assert.Nil(t, s.Hazards().Asbestos)
	assert.Empty(t, s.Hazards().Types)

	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	assert.Equal(t, models.DefaultAsbestosDetail(), s.Hazards().Asbestos)
}

func TestToggleEachHazardRoundTrip(t *testing.T) {
	s := newTestStore()
	for _, ht := range []models.HazardType{models.HazardMold, models.HazardLead} {
		require.NoError(t, s.ToggleHazardType(ht))
	}
	_, err := s.AddAffectedArea(models.MoldAffectedArea{SquareFootage: 500})
	require.NoError(t, err)
	_, err = s.AddLeadComponent(models.LeadComponent{ComponentType: models.ComponentCabinets, Quantity: 40, Unit: models.UnitSquareFeet})
	require.NoError(t, err)

	for _, ht := range []models.HazardType{models.HazardMold, models.HazardLead} {
		require.NoError(t, s.ToggleHazardType(ht))
		require.NoError(t, s.ToggleHazardType(ht))
	}
	h := s.Hazards()
	assert.Equal(t, models.DefaultMoldDetail(), h.Mold)
	assert.Equal(t, models.DefaultLeadDetail(), h.Lead)
}

func TestOtherDescriptionClearedWhenDeselected(t *testing.T) {
	s := newTestStore()
	assert.ErrorIs(t, s.SetOtherDescription("radon"), ErrHazardNotSelected)

	require.NoError(t, s.ToggleHazardType(models.HazardOther))
	require.NoError(t, s.SetOtherDescription("radon"))
	assert.Equal(t, "radon", s.Hazards().OtherDescription)

	require.NoError(t, s.ToggleHazardType(models.HazardOther))
	assert.Empty(t, s.Hazards().OtherDescription)
}

func TestUnknownHazardType(t *testing.T) {
	s := newTestStore()
	assert.ErrorIs(t, s.ToggleHazardType("radon"), ErrUnknownHazard)
	assert.ErrorIs(t, s.SetHazardTypes([]models.HazardType{"asbestos", "radon"}), ErrUnknownHazard)
	assert.False(t, s.IsDirty())
}

func TestSetHazardTypesKeepsRetainedDetail(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.SetHazardTypes([]models.HazardType{models.HazardAsbestos, models.HazardMold}))
	_, err := s.AddMaterial(models.AsbestosMaterial{Quantity: 10, Unit: models.UnitSquareFeet})
	require.NoError(t, err)

	require.NoError(t, s.SetHazardTypes([]models.HazardType{models.HazardAsbestos}))
	h := s.Hazards()
	assert.Len(t, h.Asbestos.Materials, 1)
	assert.Nil(t, h.Mold)
}

func TestMaterialCRUDRecomputesThresholds(t *testing.T) {
	s := newTestStore()
	_, err := s.AddMaterial(models.AsbestosMaterial{Quantity: 10})
	assert.ErrorIs(t, err, ErrHazardNotSelected)

	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	id, err := s.AddMaterial(models.AsbestosMaterial{ID: "ignored", Quantity: 100, Unit: models.UnitSquareFeet})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)
	assert.Equal(t, models.ContainmentMinimal, s.Hazards().Asbestos.ContainmentLevel)

	require.NoError(t, s.UpdateMaterial(id, func(m *models.AsbestosMaterial) {
		m.Quantity = 200
		m.Friable = true
		m.ID = "hijack"
	}))
	a := s.Hazards().Asbestos
	assert.Equal(t, id, a.Materials[0].ID)
	assert.Equal(t, models.ContainmentFull, a.ContainmentLevel)
	assert.True(t, a.EPANotificationRequired)

	assert.ErrorIs(t, s.UpdateMaterial("missing", func(*models.AsbestosMaterial) {}), ErrNotFound)
	assert.ErrorIs(t, s.RemoveMaterial("missing"), ErrNotFound)

	require.NoError(t, s.RemoveMaterial(id))
	a = s.Hazards().Asbestos
	assert.Empty(t, a.Materials)
	assert.Equal(t, models.ContainmentMinimal, a.ContainmentLevel)
}

func TestMoldHVACEscalates(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.ToggleHazardType(models.HazardMold))
	id, err := s.AddAffectedArea(models.MoldAffectedArea{Location: "bathroom", SquareFootage: 5})
	require.NoError(t, err)
	assert.Equal(t, models.MoldSizeSmall, s.Hazards().Mold.SizeCategory)

	require.NoError(t, s.UpdateMold(func(m *models.MoldDetail) { m.HVACContaminated = models.Ptr(true) }))
	assert.Equal(t, models.MoldSizeLarge, s.Hazards().Mold.SizeCategory)

	require.NoError(t, s.UpdateMold(func(m *models.MoldDetail) { m.HVACContaminated = models.Ptr(false) }))
	require.NoError(t, s.UpdateAffectedArea(id, func(a *models.MoldAffectedArea) { a.SquareFootage = 50 }))
	assert.Equal(t, models.MoldSizeMedium, s.Hazards().Mold.SizeCategory)

	require.NoError(t, s.RemoveAffectedArea(id))
	assert.Equal(t, models.MoldSizeSmall, s.Hazards().Mold.SizeCategory)
}

func TestLeadFollowsYearBuilt(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.ToggleHazardType(models.HazardLead))
	id, err := s.AddLeadComponent(models.LeadComponent{ComponentType: models.ComponentInteriorWalls, Quantity: 50, Unit: models.UnitSquareFeet})
	require.NoError(t, err)
	assert.False(t, s.Hazards().Lead.RRPRuleApplies, "unknown build year")

	assert.Nil(t, s.Hazards().Lead.WorkMethod)

	s.UpdateProperty(func(p *models.PropertyData) { p.YearBuilt = models.Ptr(1962) })
	assert.True(t, s.Hazards().Lead.RRPRuleApplies)
	require.NotNil(t, s.Hazards().Lead.WorkMethod)
	assert.Equal(t, models.LeadMethodRRPLeadSafe, *s.Hazards().Lead.WorkMethod)

	require.NoError(t, s.PatchSection(models.SectionProperty, []byte(`{"year_built": 1990}`)))
	assert.False(t, s.Hazards().Lead.RRPRuleApplies)
	assert.Nil(t, s.Hazards().Lead.WorkMethod)

	require.NoError(t, s.UpdateLeadComponent(id, func(c *models.LeadComponent) { c.Quantity = 2 }))
	assert.Equal(t, 2.0, s.Hazards().Lead.TotalWorkArea)
	require.NoError(t, s.RemoveLeadComponent(id))
	assert.ErrorIs(t, s.RemoveLeadComponent(id), ErrNotFound)
}

func TestPhotoLifecycle(t *testing.T) {
	s := newTestStore()
	p := s.AddPhoto(models.PhotoRecord{Data: []byte{1, 2, 3}, Category: models.PhotoExterior})
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, fixedNow, p.Timestamp)

	require.NoError(t, s.UpdatePhoto(p.ID, func(r *models.PhotoRecord) { r.Caption = "north face" }))
	require.NoError(t, s.MarkPhotoUploaded(p.ID, "https://cdn.example.com/p.jpg"))

	got, ok := s.Photo(p.ID)
	require.True(t, ok)
	assert.True(t, got.IsUploaded())
	assert.Equal(t, "north face", got.Caption)

	require.NoError(t, s.RemovePhoto(p.ID))
	assert.Empty(t, s.Photos())
	assert.ErrorIs(t, s.RemovePhoto(p.ID), ErrNotFound)
}

func TestMarkSavedHonoursRevision(t *testing.T) {
	s := newTestStore()
	s.SetNotes("a")
	_, rev := s.Checkpoint()

	s.SetNotes("b")
	s.MarkSaved(rev, fixedNow)
	assert.True(t, s.IsDirty(), "edit after checkpoint must stay unsaved")
	assert.Equal(t, fixedNow, *s.Snapshot().LastSavedAt)

	_, rev = s.Checkpoint()
	s.MarkSaved(rev, fixedNow.Add(time.Minute))
	assert.False(t, s.IsDirty())
}

func TestEnsureSurveyID(t *testing.T) {
	s := newTestStore()
	_, ok := s.SurveyID()
	assert.False(t, ok)

	id := s.EnsureSurveyID()
	assert.Equal(t, id, s.EnsureSurveyID())
	got, ok := s.SurveyID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	assert.False(t, s.IsDirty())
}

func TestResetAndLoad(t *testing.T) {
	s := newTestStore()
	s.SetNotes("scratch")
	s.Reset()
	assert.Equal(t, models.NewSurveyDraft(), s.Snapshot())

	d := models.NewSurveyDraft()
	d.SurveyID = models.Ptr("s-9")
	d.IsDirty = true
	d.CurrentSection = ""
	d.Photos = nil
	d.Hazards.Types = []models.HazardType{models.HazardLead}
	s.Load(d)

	snap := s.Snapshot()
	assert.False(t, snap.IsDirty)
	assert.Equal(t, models.SectionProperty, snap.CurrentSection)
	assert.NotNil(t, snap.Photos)
	assert.NotNil(t, snap.Hazards.Lead, "selected hazard gets a detail record")
}

func TestMarshalRestore(t *testing.T) {
	s := newTestStore()
	s.UpdateProperty(func(p *models.PropertyData) { p.Address = "9 Oak Ave" })
	require.NoError(t, s.ToggleHazardType(models.HazardAsbestos))
	_, err := s.AddMaterial(models.AsbestosMaterial{Quantity: 12, Unit: models.UnitSquareFeet})
	require.NoError(t, err)
	s.AddPhoto(models.PhotoRecord{Data: []byte("jpeg"), Category: models.PhotoExterior})
	s.SetCurrentSection(models.SectionPhotos)
	s.SetValidation(models.SectionProperty, models.SectionValidation{IsValid: true, Errors: []string{}})

	data, err := s.Marshal()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.Restore(data))
	got := restored.Snapshot()

	assert.Equal(t, "9 Oak Ave", got.Property.Address)
	assert.Equal(t, models.SectionPhotos, got.CurrentSection)
	assert.True(t, got.IsDirty)
	assert.Equal(t, []byte("jpeg"), got.Photos[0].Data)
	assert.Len(t, got.Hazards.Asbestos.Materials, 1)
	assert.Empty(t, got.Validation)

	assert.Error(t, restored.Restore([]byte(`{"version": 99, "draft": {}}`)))
	assert.Error(t, restored.Restore([]byte(`not json`)))
}

func TestSnapshotsDuringConcurrentEdits(t *testing.T) {
	s := New()
	require.NoError(t, s.ToggleHazardType(models.HazardMold))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = s.AddAffectedArea(models.MoldAffectedArea{SquareFootage: 1})
		}
	}()
	for i := 0; i < 200; i++ {
		snap := s.Snapshot()
		total := 0.0
		for _, a := range snap.Hazards.Mold.AffectedAreas {
			total += a.SquareFootage
		}
		assert.Equal(t, float64(len(snap.Hazards.Mold.AffectedAreas)), total)
	}
	wg.Wait()
	assert.Len(t, s.Hazards().Mold.AffectedAreas, 200)
}
