package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionKnownFields(t *testing.T) {
	attrs := Partition(map[string]string{
		"amenity":       "restaurant",
		"name":          "Joe's",
		"email":         "joe@example.com",
		"phone":         "+49 89 123",
		"website":       "https://joe.example.com",
		"opening_hours": "Mo-Fr 11:00-22:00",
		"operator":      "Joe GmbH",
	})

	require.NotNil(t, attrs.Name)
	assert.Equal(t, "Joe's", *attrs.Name)
	require.NotNil(t, attrs.Email)
	assert.Equal(t, "joe@example.com", *attrs.Email)
	require.NotNil(t, attrs.Phone)
	assert.Equal(t, "+49 89 123", *attrs.Phone)
	require.NotNil(t, attrs.Website)
	assert.Equal(t, "https://joe.example.com", *attrs.Website)
	require.NotNil(t, attrs.OpeningHours)
	assert.Equal(t, "Mo-Fr 11:00-22:00", *attrs.OpeningHours)
	require.NotNil(t, attrs.Operator)
	assert.Equal(t, "Joe GmbH", *attrs.Operator)
	assert.Empty(t, attrs.Residual)
}

func TestPartitionMissingFieldsAreNil(t *testing.T) {
	attrs := Partition(map[string]string{"shop": "bakery"})

	assert.Nil(t, attrs.Name)
	assert.Nil(t, attrs.Email)
	assert.Nil(t, attrs.Phone)
	assert.Nil(t, attrs.Website)
	assert.Nil(t, attrs.OpeningHours)
	assert.Nil(t, attrs.Operator)
}

func TestPartitionEmptyValueIsPresent(t *testing.T) {
	attrs := Partition(map[string]string{"amenity": "bench", "name": ""})

	require.NotNil(t, attrs.Name)
	assert.Equal(t, "", *attrs.Name)
}

func TestPartitionResidual(t *testing.T) {
	attrs := Partition(map[string]string{
		"amenity":     "cafe",
		"shop":        "bakery",
		"created_by":  "JOSM",
		"source":      "survey",
		"name":        "Café Frischhut",
		"cuisine":     "coffee_shop",
		"addr:street": "Prälat-Zistl-Straße",
		"wheelchair":  "yes",
	})

	assert.Equal(t, []KeyValue{
		{Key: "addr:street", Value: "Prälat-Zistl-Straße"},
		{Key: "cuisine", Value: "coffee_shop"},
		{Key: "wheelchair", Value: "yes"},
	}, attrs.Residual)
}

func TestPartitionIsStable(t *testing.T) {
	tags := map[string]string{"amenity": "pub", "b": "2", "a": "1", "c": "3", "d": "4"}

	first := Partition(tags)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Residual, Partition(tags).Residual)
	}
}

func TestPartitionNilTags(t *testing.T) {
	attrs := Partition(nil)
	assert.Nil(t, attrs.Name)
	assert.Empty(t, attrs.Residual)
	assert.Nil(t, attrs.Tags(1))
}

func TestAttributesTags(t *testing.T) {
	attrs := Partition(map[string]string{"amenity": "restaurant", "cuisine": "italian", "outdoor_seating": "yes"})

	tags := attrs.Tags(42)
	assert.Equal(t, []Tag{
		{PointID: 42, Key: "cuisine", Value: "italian"},
		{PointID: 42, Key: "outdoor_seating", Value: "yes"},
	}, tags)
}

func TestNewPointRecord(t *testing.T) {
	e := Entity{ID: 42, Kind: KindNode, Lat: 48.1, Lon: 11.6, HasLocation: true,
		Tags: map[string]string{"amenity": "restaurant", "name": "Joe's"}}
	c, ok := Classify(e)
	require.True(t, ok)
	loc := []byte{0x01, 0x02}

	rec := NewPointRecord(e, c, Partition(e.Tags), loc)

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, Amenity, rec.Category)
	assert.Equal(t, "restaurant", rec.Subtype)
	assert.Equal(t, loc, rec.Location)
	require.NotNil(t, rec.Name)
	assert.Equal(t, "Joe's", *rec.Name)
	assert.Nil(t, rec.Email)
	assert.Nil(t, rec.Operator)
}
