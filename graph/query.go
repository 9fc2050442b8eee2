package graph

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jacentio/cellgraph/cell"
)

// Paging defaults.
const (
	DefaultPageSize = 20

	// Unlimited as PageSize returns every matching cell.
	Unlimited = -1
)

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// Order is one sort key of a query.
type Order struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// UnmarshalJSON accepts the sort direction as "direction" or "order".
func (o *Order) UnmarshalJSON(b []byte) error {
	var raw struct {
		Column    string `json:"column"`
		Direction string `json:"direction"`
		Order     string `json:"order"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	o.Column = raw.Column
	o.Direction = raw.Direction
	if o.Direction == "" {
		o.Direction = raw.Order
	}
	return nil
}

func (o Order) ascending() bool {
	return strings.EqualFold(o.Direction, Asc)
}

// TimeBound is a query time limit given either as epoch milliseconds or as
// a local date-time string. A bound that cannot be parsed is ignored.
type TimeBound string

// TimeMillis returns a bound at epoch millisecond ms.
func TimeMillis(ms int64) TimeBound {
	return TimeBound(strconv.FormatInt(ms, 10))
}

// UnmarshalJSON accepts a JSON number or string.
func (t *TimeBound) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = TimeBound(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// Ignored like any other unparsable bound.
		*t = ""
		return nil
	}
	*t = TimeBound(n.String())
	return nil
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// Millis parses the bound. ok is false for an empty or unparsable bound.
func (t TimeBound) Millis() (ms int64, ok bool) {
	s := strings.TrimSpace(string(t))
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f), true
	}
	for _, layout := range timeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts.UnixMilli(), true
		}
	}
	return 0, false
}

// Query selects cells. The zero Query matches every cell with a status in
// [0, 4], first page of DefaultPageSize, summary fields only.
type Query struct {
	// CellID selects one cell and disables category and relation filters.
	CellID string `json:"cid"`

	Partition string `json:"partition"`
	TypeGroup string `json:"typeGroup"`
	Type      string `json:"type"`

	// IsRoot filters on the root flag when set to 0 or 1.
	IsRoot *int `json:"isRoot"`

	MinStatus *int `json:"minStatus"`
	MaxStatus *int `json:"maxStatus"`

	StartTime TimeBound `json:"startTime"`
	EndTime   TimeBound `json:"endTime"`

	// TimeType is the field the time window applies to: createTime
	// (default), updateTime or publishTime.
	TimeType string `json:"timeType"`

	// ParentIDs restricts results to direct children of these cells.
	ParentIDs []string `json:"parentIds"`

	// ChildIDs restricts results to direct parents of these cells.
	ChildIDs []string `json:"childIds"`

	// RelationshipType restricts results to cells holding a user relation
	// of this type.
	RelationshipType string `json:"relationshipType"`

	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
	Orders   []Order `json:"orders"`

	ShowDetail              bool `json:"showDetail"`
	ShowCorrelationParents  bool `json:"showCorrelationParents"`
	ShowCorrelationChildren bool `json:"showCorrelationChildren"`
}

// Page is one page of query results. Total counts the cells of this page.
type Page struct {
	Data  []*cell.Cell `json:"data"`
	Total int          `json:"total"`
}

func emptyPage() *Page {
	return &Page{Data: []*cell.Cell{}}
}

func (q Query) timeField() string {
	for _, f := range cell.TimeFields {
		if q.TimeType == f {
			return f
		}
	}
	return cell.FieldCreateTime
}

func (q Query) statusRange() (int, int) {
	lo, hi := cell.MinStatus, cell.MaxStatus
	if q.MinStatus != nil {
		lo = *q.MinStatus
	}
	if q.MaxStatus != nil {
		hi = *q.MaxStatus
	}
	return lo, hi
}

// window returns skip and limit; limit 0 means no limit.
func (q Query) window() (skip, limit int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size == Unlimited {
		return 0, 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// orders drops entries without a column and resolves directions to ASC or DESC.
func (q Query) orders() []Order {
	var out []Order
	for _, o := range q.Orders {
		if o.Column == "" {
			continue
		}
		dir := Desc
		if o.ascending() {
			dir = Asc
		}
		out = append(out, Order{Column: o.Column, Direction: dir})
	}
	return out
}

func (q Query) fields() []string {
	if q.ShowDetail {
		return nil
	}
	return withOrderColumns(cell.SummaryFields, q.orders())
}
