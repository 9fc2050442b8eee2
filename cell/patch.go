package cell

import (
	"math"
	"slices"

	"github.com/jacentio/cellgraph/docstore"
)

// Mutable lists the fields an update may change, in application order.
var Mutable = []string{
	FieldName, FieldDescription, FieldIcon, FieldTypeGroup, FieldType,
	FieldStatus, FieldData, FieldConfig, FieldStyle, FieldEncrypted,
	FieldPassword, FieldIsRoot, FieldCover, FieldChildren, FieldStatistics,
	FieldCreateTime, FieldPublishTime,
}

// ApplyPatch copies whitelisted, well-typed fields from patch onto c and
// returns the names of the fields it applied. Anything else in patch is
// ignored.
func ApplyPatch(c *Cell, patch map[string]any) []string {
	var applied []string
	for _, field := range Mutable {
		v, ok := patch[field]
		if !ok || !applyField(c, field, v) {
			continue
		}
		applied = append(applied, field)
	}
	return applied
}

// Applied reports whether field is in the result of ApplyPatch.
func Applied(applied []string, field string) bool {
	return slices.Contains(applied, field)
}

func applyField(c *Cell, field string, v any) bool {
	switch field {
	case FieldName, FieldDescription, FieldIcon, FieldTypeGroup, FieldType, FieldPassword:
		s, ok := v.(string)
		if !ok || s == "" {
			return false
		}
		switch field {
		case FieldName:
			c.Name = s
		case FieldDescription:
			c.Description = s
		case FieldIcon:
			c.Icon = s
		case FieldTypeGroup:
			c.TypeGroup = s
		case FieldType:
			c.Type = s
		case FieldPassword:
			c.Password = s
		}
	case FieldStatus:
		n, ok := docstore.AsInt64(v)
		if !ok || !validStatus(n) {
			return false
		}
		c.Status = int(n)
	case FieldData, FieldConfig, FieldStyle:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		switch field {
		case FieldData:
			c.Data = m
		case FieldConfig:
			c.Config = m
		case FieldStyle:
			c.Style = m
		}
	case FieldEncrypted, FieldIsRoot:
		n, ok := docstore.AsInt64(v)
		if !ok || (n != 0 && n != 1) {
			return false
		}
		if field == FieldEncrypted {
			c.Encrypted = int(n)
		} else {
			c.IsRoot = int(n)
		}
	case FieldCover:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		c.Cover = decodeCovers(items)
	case FieldChildren:
		items, ok := v.([]any)
		if !ok {
			return false
		}
		c.Children = items
	case FieldStatistics:
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		c.Statistics = decodeStatistics(m)
	case FieldCreateTime, FieldPublishTime:
		n, ok := docstore.AsInt64(v)
		if !ok || n <= 0 {
			return false
		}
		if field == FieldCreateTime {
			c.CreateTime = n
		} else {
			c.PublishTime = n
		}
	default:
		return false
	}
	return true
}

// DeepMerge merges patch into dst recursively: nested objects are merged key
// by key, every other value replaces the existing one.
func DeepMerge(dst, patch map[string]any) {
	for k, pv := range patch {
		pm, pIsMap := pv.(map[string]any)
		dm, dIsMap := dst[k].(map[string]any)
		if pIsMap && dIsMap {
			DeepMerge(dm, pm)
			continue
		}
		dst[k] = docstore.CloneValue(pv)
	}
}

// IsPlainJSON reports whether v is built only from JSON data: nil, bool,
// string, finite numbers, []any and map[string]any.
func IsPlainJSON(v any) bool {
	switch t := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(t)) && !math.IsInf(float64(t), 0)
	case float64:
		return !math.IsNaN(t) && !math.IsInf(t, 0)
	case []any:
		for _, e := range t {
			if !IsPlainJSON(e) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range t {
			if !IsPlainJSON(e) {
				return false
			}
		}
		return true
	}
	return false
}
