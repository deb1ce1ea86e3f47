// Package poi holds the classification and attribute rules that turn OSM
// entities into point-of-interest rows.
package poi

// Kind identifies the OSM element type of an entity
type Kind int

const (
	KindNode Kind = iota
	KindWay
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Entity is one decoded element from the input stream.
// Lat/Lon are only meaningful when HasLocation is set, which is only the case for nodes.
type Entity struct {
	ID          int64
	Kind        Kind
	Tags        map[string]string
	Lat         float64
	Lon         float64
	HasLocation bool
}

// Category is the stored value of the points.type enum column
type Category int

const (
	Amenity Category = iota + 1
	Shop
)

// String returns the enum label used in the database
func (c Category) String() string {
	switch c {
	case Amenity:
		return "amenity"
	case Shop:
		return "shop"
	default:
		return ""
	}
}

// Classification is the category of an accepted entity plus its free-text subtype
type Classification struct {
	Category Category
	Subtype  string
}

// Tag is a residual key/value pair stored in the tags table
type Tag struct {
	PointID int64
	Key     string
	Value   string
}

// PointRecord is the row written to the points table
type PointRecord struct {
	ID           int64
	Location     []byte // EWKB point
	Category     Category
	Subtype      string
	Name         *string
	Email        *string
	Phone        *string
	Website      *string
	OpeningHours *string
	Operator     *string
}
