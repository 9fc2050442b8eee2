package cell

import (
	"time"

	"github.com/jacentio/cellgraph/docstore"
)

// Top-level defaults.
const (
	DefaultTypeGroup = "CONTENT"
	DefaultType      = "document"
	DefaultStatus    = 2
)

// DataDefaults is the default payload of a cell's data object.
func DataDefaults() map[string]any {
	return map[string]any{
		"format": "markdown",
		"text":   "",
		"image":  "",
		"video":  "",
		"audio":  "",
		"json":   nil,
		"blocks": []any{},
	}
}

// ConfigDefaults is the default per-cell permission config.
func ConfigDefaults() map[string]any {
	return map[string]any{
		"shareStatus":            1,
		"likeStatus":             1,
		"commentStatus":          1,
		"commentByVisitorStatus": 1,
		"bulletStatus":           1,
		"price":                  0,
	}
}

// StyleDefaults is the default style for a cell of the given type.
func StyleDefaults(cellType string) map[string]any {
	coverTheme := "listitem"
	if cellType == "book" {
		coverTheme = "book"
	}
	return map[string]any{
		"theme": "default",
		"color": "",
		"background": map[string]any{
			"show":    "none",
			"image":   "",
			"color":   "",
			"blur":    "",
			"opacity": "",
			"repeat":  "",
		},
		"font": map[string]any{
			"fontFamily": "",
			"fontSize":   "",
			"fontWeight": "",
			"color":      "",
		},
		"title": map[string]any{"show": true},
		"cover": map[string]any{
			"show":  true,
			"type":  "single",
			"theme": coverTheme,
			"size":  "",
		},
		"desc": map[string]any{"show": true},
		"icon": map[string]any{"show": true},
	}
}

// Normalize turns a raw payload into a canonical cell. Missing or mistyped
// fields take their defaults, nested objects are completed key by key, and
// unknown fields are kept in Extra. The payload is not modified.
func Normalize(raw map[string]any, now time.Time) *Cell {
	raw = docstore.Document(raw).Clone()
	c := Decode(raw)
	c.Rev = 0
	nowMs := now.UnixMilli()

	if c.TypeGroup == "" {
		c.TypeGroup = DefaultTypeGroup
	}
	if c.Type == "" {
		c.Type = DefaultType
	}
	if status, ok := intField(raw, FieldStatus); ok && validStatus(status) {
		c.Status = int(status)
	} else {
		c.Status = DefaultStatus
	}
	if isRoot, ok := intField(raw, FieldIsRoot); ok && isRoot == 0 {
		c.IsRoot = 0
	} else {
		c.IsRoot = 1
	}
	if c.Encrypted != 1 {
		c.Encrypted = 0
	}
	if c.CreateTime <= 0 {
		c.CreateTime = nowMs
	}
	if c.UpdateTime <= 0 {
		c.UpdateTime = nowMs
	}
	if c.PublishTime < 0 {
		c.PublishTime = 0
	}

	c.Data = fillDefaults(c.Data, DataDefaults())
	c.Config = fillDefaults(c.Config, ConfigDefaults())
	c.Style = fillDefaults(c.Style, StyleDefaults(c.Type))

	if c.Cover == nil {
		c.Cover = []Cover{}
	}
	if c.Statistics.Ratings == nil {
		c.Statistics.Ratings = []any{}
	}
	if c.Children == nil {
		c.Children = []any{}
	}
	return c
}

// fillDefaults completes dst with every key of defaults that is missing or nil,
// descending into nested objects. dst is modified and returned.
func fillDefaults(dst, defaults map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(defaults))
	}
	for k, def := range defaults {
		cur, ok := dst[k]
		if !ok || cur == nil {
			dst[k] = def
			continue
		}
		defMap, defIsMap := def.(map[string]any)
		curMap, curIsMap := cur.(map[string]any)
		switch {
		case defIsMap && curIsMap:
			dst[k] = fillDefaults(curMap, defMap)
		case defIsMap:
			dst[k] = defMap
		}
	}
	return dst
}

func validStatus(s int64) bool {
	return s >= MinStatus && s <= MaxStatus
}
