// Package cell defines the content node and relation records of the cell
// graph, and the pure conversions between them and store documents.
package cell

import "encoding/json"

// Persisted field names.
const (
	FieldID          = "id"
	FieldRev         = "_rev"
	FieldName        = "name"
	FieldPartition   = "partition"
	FieldTypeGroup   = "typeGroup"
	FieldType        = "type"
	FieldDescription = "description"
	FieldIcon        = "icon"
	FieldCover       = "cover"
	FieldStatus      = "status"
	FieldHeat        = "heat"
	FieldIsRoot      = "isRoot"
	FieldEncrypted   = "encrypted"
	FieldPassword    = "password"
	FieldCreateTime  = "createTime"
	FieldUpdateTime  = "updateTime"
	FieldPublishTime = "publishTime"
	FieldData        = "data"
	FieldConfig      = "config"
	FieldStyle       = "style"
	FieldStatistics  = "statistics"
	FieldChildren    = "children"

	// Query annotations.
	FieldIsStar              = "isStar"
	FieldIsLike              = "isLike"
	FieldCorrelationParents  = "correlationsParents"
	FieldCorrelationChildren = "correlationsChildren"
)

// Status bounds.
const (
	MinStatus = 0
	MaxStatus = 4

	// PublishedStatus is the first status at which publishTime is stamped.
	PublishedStatus = 3
)

var knownFields = map[string]bool{
	FieldID: true, FieldRev: true, FieldName: true, FieldPartition: true,
	FieldTypeGroup: true, FieldType: true, FieldDescription: true, FieldIcon: true,
	FieldCover: true, FieldStatus: true, FieldHeat: true, FieldIsRoot: true,
	FieldEncrypted: true, FieldPassword: true, FieldCreateTime: true,
	FieldUpdateTime: true, FieldPublishTime: true, FieldData: true,
	FieldConfig: true, FieldStyle: true, FieldStatistics: true, FieldChildren: true,
	FieldIsStar: true, FieldIsLike: true,
	FieldCorrelationParents: true, FieldCorrelationChildren: true,
}

// Cell is a content node.
type Cell struct {
	ID          string
	Rev         int64
	Name        string
	Partition   string
	TypeGroup   string
	Type        string
	Description string
	Icon        string
	Cover       []Cover
	Status      int
	Heat        int64
	IsRoot      int
	Encrypted   int
	Password    string
	CreateTime  int64
	UpdateTime  int64

	// PublishTime is zero until the cell is first published.
	PublishTime int64

	Data       map[string]any
	Config     map[string]any
	Style      map[string]any
	Statistics Statistics
	Children   []any

	// Extra holds payload fields the engine does not interpret.
	Extra map[string]any

	// Set by queries, never persisted.
	IsStar              bool
	IsLike              bool
	CorrelationParents  []*Cell
	CorrelationChildren []*Cell
}

// Cover is one cover image entry.
type Cover struct {
	Image     string `json:"image"`
	Thumbnail string `json:"thumbnail"`
	Text      string `json:"text"`
	HTML      string `json:"html"`

	// Extra holds keys of a stored cover item beyond the four above.
	Extra map[string]any `json:"-"`
}

// Statistics holds the per-cell counters.
type Statistics struct {
	ViewCount     int64
	ViewTime      int64
	LastViewTime  int64
	LikeCount     int64
	StarCount     int64
	ShareCount    int64
	CommentCount  int64
	BulletCount   int64
	DownloadCount int64
	Ratings       []any

	// Extra holds counters other than the ones above.
	Extra map[string]any
}

// statisticsKeys are the statistics entries decoded into named fields.
var statisticsKeys = map[string]bool{
	"viewCount": true, "viewTime": true, "lastViewTime": true,
	"likeCount": true, "starCount": true, "shareCount": true,
	"commentCount": true, "bulletCount": true, "downloadCount": true,
	"ratings": true,
}

var coverKeys = map[string]bool{"image": true, "thumbnail": true, "text": true, "html": true}

// Document converts the cell to its persisted form. Query annotations are dropped.
func (c *Cell) Document() map[string]any {
	doc := make(map[string]any, len(knownFields)+len(c.Extra))
	for k, v := range c.Extra {
		doc[k] = v
	}
	doc[FieldID] = c.ID
	if c.Rev > 0 {
		doc[FieldRev] = c.Rev
	}
	doc[FieldName] = c.Name
	doc[FieldPartition] = c.Partition
	doc[FieldTypeGroup] = c.TypeGroup
	doc[FieldType] = c.Type
	doc[FieldDescription] = c.Description
	doc[FieldIcon] = c.Icon
	doc[FieldCover] = coversDocument(c.Cover)
	doc[FieldStatus] = c.Status
	doc[FieldHeat] = c.Heat
	doc[FieldIsRoot] = c.IsRoot
	doc[FieldEncrypted] = c.Encrypted
	doc[FieldPassword] = c.Password
	doc[FieldCreateTime] = c.CreateTime
	doc[FieldUpdateTime] = c.UpdateTime
	if c.PublishTime > 0 {
		doc[FieldPublishTime] = c.PublishTime
	}
	if c.Data != nil {
		doc[FieldData] = c.Data
	}
	if c.Config != nil {
		doc[FieldConfig] = c.Config
	}
	if c.Style != nil {
		doc[FieldStyle] = c.Style
	}
	doc[FieldStatistics] = c.Statistics.document()
	children := c.Children
	if children == nil {
		children = []any{}
	}
	doc[FieldChildren] = children
	return doc
}

// MarshalJSON renders the persisted form plus query annotations.
func (c *Cell) MarshalJSON() ([]byte, error) {
	doc := c.Document()
	doc[FieldIsStar] = c.IsStar
	doc[FieldIsLike] = c.IsLike
	if c.CorrelationParents != nil {
		doc[FieldCorrelationParents] = c.CorrelationParents
	}
	if c.CorrelationChildren != nil {
		doc[FieldCorrelationChildren] = c.CorrelationChildren
	}
	return json.Marshal(doc)
}

// Decode reads a stored (possibly projected) document without applying
// defaults. Fields of the wrong type decode as zero values.
func Decode(doc map[string]any) *Cell {
	c := &Cell{
		ID:          stringField(doc, FieldID),
		Name:        stringField(doc, FieldName),
		Partition:   stringField(doc, FieldPartition),
		TypeGroup:   stringField(doc, FieldTypeGroup),
		Type:        stringField(doc, FieldType),
		Description: stringField(doc, FieldDescription),
		Icon:        stringField(doc, FieldIcon),
		Password:    stringField(doc, FieldPassword),
		Cover:       decodeCovers(doc[FieldCover]),
		Data:        mapField(doc, FieldData),
		Config:      mapField(doc, FieldConfig),
		Style:       mapField(doc, FieldStyle),
		Statistics:  decodeStatistics(doc[FieldStatistics]),
	}
	c.Rev, _ = intField(doc, FieldRev)
	status, _ := intField(doc, FieldStatus)
	c.Status = int(status)
	c.Heat, _ = intField(doc, FieldHeat)
	isRoot, _ := intField(doc, FieldIsRoot)
	c.IsRoot = int(isRoot)
	encrypted, _ := intField(doc, FieldEncrypted)
	c.Encrypted = int(encrypted)
	c.CreateTime, _ = intField(doc, FieldCreateTime)
	c.UpdateTime, _ = intField(doc, FieldUpdateTime)
	c.PublishTime, _ = intField(doc, FieldPublishTime)
	if children, ok := doc[FieldChildren].([]any); ok {
		c.Children = children
	}
	for k, v := range doc {
		if knownFields[k] {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[k] = v
	}
	return c
}

func (s Statistics) document() map[string]any {
	ratings := s.Ratings
	if ratings == nil {
		ratings = []any{}
	}
	doc := extraCopy(s.Extra, len(statisticsKeys))
	doc["viewCount"] = s.ViewCount
	doc["viewTime"] = s.ViewTime
	doc["likeCount"] = s.LikeCount
	doc["starCount"] = s.StarCount
	doc["shareCount"] = s.ShareCount
	doc["commentCount"] = s.CommentCount
	doc["bulletCount"] = s.BulletCount
	doc["downloadCount"] = s.DownloadCount
	doc["ratings"] = ratings
	if s.LastViewTime > 0 {
		doc["lastViewTime"] = s.LastViewTime
	}
	return doc
}

func decodeStatistics(v any) Statistics {
	m, _ := v.(map[string]any)
	var s Statistics
	s.ViewCount, _ = intField(m, "viewCount")
	s.ViewTime, _ = intField(m, "viewTime")
	s.LastViewTime, _ = intField(m, "lastViewTime")
	s.LikeCount, _ = intField(m, "likeCount")
	s.StarCount, _ = intField(m, "starCount")
	s.ShareCount, _ = intField(m, "shareCount")
	s.CommentCount, _ = intField(m, "commentCount")
	s.BulletCount, _ = intField(m, "bulletCount")
	s.DownloadCount, _ = intField(m, "downloadCount")
	if r, ok := m["ratings"].([]any); ok {
		s.Ratings = r
	}
	s.Extra = unknownKeys(m, statisticsKeys)
	return s
}

func decodeCovers(v any) []Cover {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	covers := make([]Cover, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		covers = append(covers, Cover{
			Image:     stringField(m, "image"),
			Thumbnail: stringField(m, "thumbnail"),
			Text:      stringField(m, "text"),
			HTML:      stringField(m, "html"),
			Extra:     unknownKeys(m, coverKeys),
		})
	}
	return covers
}

func coversDocument(covers []Cover) []any {
	out := make([]any, len(covers))
	for i, c := range covers {
		item := extraCopy(c.Extra, len(coverKeys))
		item["image"] = c.Image
		item["thumbnail"] = c.Thumbnail
		item["text"] = c.Text
		item["html"] = c.HTML
		out[i] = item
	}
	return out
}

// unknownKeys returns the entries of m whose keys are not in known, or nil.
func unknownKeys(m map[string]any, known map[string]bool) map[string]any {
	var out map[string]any
	for k, v := range m {
		if known[k] {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	return out
}

func extraCopy(extra map[string]any, size int) map[string]any {
	out := make(map[string]any, size+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
