package poi

import "sort"

// KeyValue is one residual attribute
type KeyValue struct {
	Key   string
	Value string
}

// Attributes is the result of splitting an entity's tags into the known
// columns and everything else
type Attributes struct {
	Name         *string
	Email        *string
	Phone        *string
	Website      *string
	OpeningHours *string
	Operator     *string

	// Residual is sorted by key
	Residual []KeyValue
}

// Partition splits tags into known fields and residual pairs.
// A known field is set iff its key is present, even when the value is empty.
func Partition(tags map[string]string) Attributes {
	attrs := Attributes{
		Name:         lookup(tags, KeyName),
		Email:        lookup(tags, KeyEmail),
		Phone:        lookup(tags, KeyPhone),
		Website:      lookup(tags, KeyWebsite),
		OpeningHours: lookup(tags, KeyOpeningHours),
		Operator:     lookup(tags, KeyOperator),
	}

	for k, v := range tags {
		if IsReserved(k) {
			continue
		}
		attrs.Residual = append(attrs.Residual, KeyValue{Key: k, Value: v})
	}
	sort.Slice(attrs.Residual, func(i, j int) bool {
		return attrs.Residual[i].Key < attrs.Residual[j].Key
	})

	return attrs
}

func lookup(tags map[string]string, key string) *string {
	v, ok := tags[key]
	if !ok {
		return nil
	}
	return &v
}

// NewPointRecord assembles the points row for an accepted entity
func NewPointRecord(e Entity, c Classification, attrs Attributes, location []byte) PointRecord {
	return PointRecord{
		ID:           e.ID,
		Location:     location,
		Category:     c.Category,
		Subtype:      c.Subtype,
		Name:         attrs.Name,
		Email:        attrs.Email,
		Phone:        attrs.Phone,
		Website:      attrs.Website,
		OpeningHours: attrs.OpeningHours,
		Operator:     attrs.Operator,
	}
}

// Tags returns the residual attributes as rows owned by pointID
func (a Attributes) Tags(pointID int64) []Tag {
	if len(a.Residual) == 0 {
		return nil
	}
	out := make([]Tag, len(a.Residual))
	for i, kv := range a.Residual {
		out[i] = Tag{PointID: pointID, Key: kv.Key, Value: kv.Value}
	}
	return out
}
