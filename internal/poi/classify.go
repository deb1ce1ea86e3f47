package poi

// Attribute keys with special meaning
const (
	KeyAmenity      = "amenity"
	KeyShop         = "shop"
	KeyCreatedBy    = "created_by"
	KeySource       = "source"
	KeyName         = "name"
	KeyEmail        = "email"
	KeyPhone        = "phone"
	KeyWebsite      = "website"
	KeyOpeningHours = "opening_hours"
	KeyOperator     = "operator"
)

// reservedKeys are never written to the tags table: the two classification
// triggers, the six known columns, and two keys that are dropped outright.
var reservedKeys = map[string]struct{}{
	KeyAmenity:      {},
	KeyShop:         {},
	KeyCreatedBy:    {},
	KeySource:       {},
	KeyName:         {},
	KeyEmail:        {},
	KeyPhone:        {},
	KeyWebsite:      {},
	KeyOpeningHours: {},
	KeyOperator:     {},
}

// IsReserved reports whether key is excluded from residual tags
func IsReserved(key string) bool {
	_, ok := reservedKeys[key]
	return ok
}

// Classify decides whether an entity becomes a point row.
// Only nodes with an amenity or shop tag qualify. When both are present the
// amenity wins and the shop value is dropped.
func Classify(e Entity) (Classification, bool) {
	if e.Kind != KindNode {
		return Classification{}, false
	}
	if v, ok := e.Tags[KeyAmenity]; ok {
		return Classification{Category: Amenity, Subtype: v}, true
	}
	if v, ok := e.Tags[KeyShop]; ok {
		return Classification{Category: Shop, Subtype: v}, true
	}
	return Classification{}, false
}
