package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   Classification
		wantOK bool
	}{
		{
			name:   "amenity node",
			entity: Entity{ID: 1, Kind: KindNode, Tags: map[string]string{"amenity": "restaurant"}},
			want:   Classification{Category: Amenity, Subtype: "restaurant"},
			wantOK: true,
		},
		{
			name:   "shop node",
			entity: Entity{ID: 2, Kind: KindNode, Tags: map[string]string{"shop": "bakery", "name": "Hofpfisterei"}},
			want:   Classification{Category: Shop, Subtype: "bakery"},
			wantOK: true,
		},
		{
			name:   "amenity wins over shop",
			entity: Entity{ID: 3, Kind: KindNode, Tags: map[string]string{"amenity": "cafe", "shop": "bakery"}},
			want:   Classification{Category: Amenity, Subtype: "cafe"},
			wantOK: true,
		},
		{
			name:   "empty amenity value still qualifies",
			entity: Entity{ID: 4, Kind: KindNode, Tags: map[string]string{"amenity": ""}},
			want:   Classification{Category: Amenity, Subtype: ""},
			wantOK: true,
		},
		{
			name:   "node without trigger keys",
			entity: Entity{ID: 5, Kind: KindNode, Tags: map[string]string{"highway": "bus_stop", "name": "Marienplatz"}},
		},
		{
			name:   "node without tags",
			entity: Entity{ID: 6, Kind: KindNode},
		},
		{
			name:   "way with shop",
			entity: Entity{ID: 7, Kind: KindWay, Tags: map[string]string{"shop": "yes"}},
		},
		{
			name:   "relation with amenity",
			entity: Entity{ID: 8, Kind: KindRelation, Tags: map[string]string{"amenity": "school"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.entity)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	e := Entity{ID: 9, Kind: KindNode, Tags: map[string]string{"shop": "kiosk", "amenity": "atm"}}

	first, ok1 := Classify(e)
	second, ok2 := Classify(e)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, first, second)
	assert.Equal(t, map[string]string{"shop": "kiosk", "amenity": "atm"}, e.Tags)
}

func TestIsReserved(t *testing.T) {
	for _, k := range []string{
		"amenity", "shop", "created_by", "source", "name",
		"email", "phone", "website", "opening_hours", "operator",
	} {
		assert.True(t, IsReserved(k), k)
	}
	for _, k := range []string{"cuisine", "Name", "addr:street", "source:date", ""} {
		assert.False(t, IsReserved(k), k)
	}
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "amenity", Amenity.String())
	assert.Equal(t, "shop", Shop.String())
	assert.Equal(t, "", Category(0).String())
}
