// Package workspace manages isolated tenants of the cell graph. Each
// workspace owns three collections (cells, structural relations and user
// relations) and is recorded in a registry collection.
package workspace

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/cellgraph/docstore"
)

// Workspace defaults.
const (
	DefaultName            = "UntitledWorkspace"
	DefaultTheme           = "system"
	DefaultLanguage        = "zh-CN"
	DefaultAutoLockTimeout = 5
)

// Palette is the set of colours assigned to new workspaces.
var Palette = []string{"#FF5733", "#33FF57", "#3357FF", "#FF33A1", "#A133FF"}

// Workspace is one tenant. Object-valued settings are kept as plain maps.
type Workspace struct {
	ID          string
	Rev         int64
	Version     int64
	Name        string
	Description string
	Password    string
	Color       string
	Avatar      string
	Icon        string
	CreateTime  int64
	VerifyText  string

	User       map[string]any
	Appearance map[string]any
	Layout     map[string]any
	Config     map[string]any

	// Per-platform settings, keyed by platform name (electron, android, ios, ipados).
	Platforms map[string]map[string]any

	Pages []any
}

var platforms = []string{"electron", "android", "ios", "ipados"}

// Normalize builds a workspace from raw, filling every missing or
// mistyped field with its default. raw is not modified.
func Normalize(raw map[string]any, now time.Time) *Workspace {
	raw = docstore.Document(raw).Clone()

	w := &Workspace{
		ID:          stringOr(raw, "id", ""),
		Name:        stringOr(raw, "name", DefaultName),
		Description: stringOr(raw, "description", ""),
		Password:    stringOr(raw, "password", ""),
		Color:       stringOr(raw, "color", ""),
		Avatar:      stringOr(raw, "avatar", ""),
		Icon:        stringOr(raw, "icon", ""),
		VerifyText:  stringOr(raw, "verifyText", ""),
		User:        objectOr(raw, "user"),
		Appearance:  objectOr(raw, "appearance"),
		Layout:      objectOr(raw, "layout"),
		Config:      objectOr(raw, "config"),
		Platforms:   make(map[string]map[string]any, len(platforms)),
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Color == "" {
		w.Color = Palette[rand.IntN(len(Palette))]
	}
	w.Rev, _ = docstore.AsInt64(raw[docstore.RevField])
	if v, ok := docstore.AsInt64(raw["version"]); ok && v > 0 {
		w.Version = v
	} else {
		w.Version = 1
	}
	if ct, ok := docstore.AsInt64(raw["createTime"]); ok && ct > 0 {
		w.CreateTime = ct
	} else {
		w.CreateTime = now.UnixMilli()
	}

	if s, _ := w.Appearance["theme"].(string); s == "" {
		w.Appearance["theme"] = DefaultTheme
	}
	if s, _ := w.Appearance["lockscreenBg"].(string); s == "" {
		w.Appearance["lockscreenBg"] = ""
	}

	if s, _ := w.Config["language"].(string); s == "" {
		w.Config["language"] = DefaultLanguage
	}
	if _, ok := docstore.AsFloat64(w.Config["autoLockTimeout"]); !ok {
		w.Config["autoLockTimeout"] = DefaultAutoLockTimeout
	}
	if _, ok := w.Config["shortcutKeys"].([]any); !ok {
		w.Config["shortcutKeys"] = []any{}
	}

	for _, p := range platforms {
		w.Platforms[p] = objectOr(raw, p)
	}

	w.Pages = []any{}
	if pages, ok := raw["pages"].([]any); ok {
		for _, p := range pages {
			if page, ok := p.(map[string]any); ok {
				if s, _ := page["path"].(string); s == "" {
					page["path"] = ""
				}
			}
			w.Pages = append(w.Pages, p)
		}
	}
	return w
}

// Document converts the workspace to its registry form.
func (w *Workspace) Document() docstore.Document {
	doc := docstore.Document{
		"version":     w.Version,
		"name":        w.Name,
		"description": w.Description,
		"password":    w.Password,
		"color":       w.Color,
		"avatar":      w.Avatar,
		"icon":        w.Icon,
		"createTime":  w.CreateTime,
		"verifyText":  w.VerifyText,
		"user":        w.User,
		"appearance":  w.Appearance,
		"layout":      w.Layout,
		"config":      w.Config,
		"pages":       w.Pages,
	}
	doc[docstore.KeyField] = w.ID
	if w.Rev > 0 {
		doc[docstore.RevField] = w.Rev
	}
	for p, settings := range w.Platforms {
		doc[p] = settings
	}
	return doc
}

func stringOr(raw map[string]any, key, def string) string {
	if s, ok := raw[key].(string); ok && s != "" {
		return s
	}
	return def
}

func objectOr(raw map[string]any, key string) map[string]any {
	if m, ok := raw[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
