// ABOUTME: Tests for the section field table
// ABOUTME: Patches built from text must round trip through the store
package draft

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markahope-aag/hazardos-sub000/models"
)

func TestFieldsFollowSectionShape(t *testing.T) {
	f, ok := LookupField(models.SectionProperty, "zip")
	require.True(t, ok)
	assert.True(t, f.Text)
	assert.False(t, f.Nullable)

	f, ok = LookupField(models.SectionProperty, "year_built")
	require.True(t, ok)
	assert.False(t, f.Text)
	assert.True(t, f.Nullable)

	f, ok = LookupField(models.SectionAccess, "equipment_access")
	require.True(t, ok)
	assert.True(t, f.Text)
	assert.True(t, f.Nullable)

	assert.Equal(t, []Field{{Key: "notes", Text: true}}, Fields(models.SectionReview))
	assert.Empty(t, Fields(models.SectionPhotos))
	assert.Equal(t, "address", Fields(models.SectionProperty)[0].Key)
}

func TestFieldPatchRoundTripsThroughStore(t *testing.T) {
	s := newTestStore()

	patch, err := FieldPatch(models.SectionProperty, map[string]string{
		"zip":        "53703",
		"year_built": "1965",
		"owner_name": "null",
	})
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(patch, &raw))
	assert.Equal(t, "53703", raw["zip"])
	assert.Equal(t, float64(1965), raw["year_built"])
	assert.Equal(t, "null", raw["owner_name"])

	require.NoError(t, s.PatchSection(models.SectionProperty, patch))
	values, err := s.FieldValues(models.SectionProperty)
	require.NoError(t, err)
	assert.Equal(t, "53703", values["zip"])
	assert.Equal(t, "1965", values["year_built"])
	assert.Equal(t, "", values["square_footage"])

	unset, err := FieldPatch(models.SectionProperty, map[string]string{"year_built": "null"})
	require.NoError(t, err)
	require.NoError(t, s.PatchSection(models.SectionProperty, unset))
	assert.Nil(t, s.Property().YearBuilt)

	_, err = FieldPatch(models.SectionProperty, map[string]string{"colour": "blue"})
	assert.Error(t, err)
}

func TestFieldValuesReview(t *testing.T) {
	s := newTestStore()
	s.SetNotes("Basement flooded")

	values, err := s.FieldValues(models.SectionReview)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"notes": "Basement flooded"}, values)

	_, err = s.FieldValues(models.SectionPhotos)
	assert.ErrorIs(t, err, ErrNotPatchable)
}
