package graph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/cellgraph/cell"
	"github.com/jacentio/cellgraph/docstore"
)

// --- compareValues ---

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"missing before number", nil, 0, -1},
		{"bool before number", true, 0, -1},
		{"number before string", 99, "a", -1},
		{"string before other", "z", []any{}, -1},
		{"numbers", int64(2), 10.5, -1},
		{"equal numbers across types", 3, float64(3), 0},
		{"strings", "b", "a", 1},
		{"bools", false, true, -1},
		{"others equal", map[string]any{"a": 1}, []any{2}, 0},
		{"both missing", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compareValues(tt.a, tt.b))
			assert.Equal(t, -tt.want, compareValues(tt.b, tt.a))
		})
	}
}

func TestSortDocuments(t *testing.T) {
	docs := []docstore.Document{
		{"id": "1", "status": 1, "name": "b"},
		{"id": "2", "status": 2, "name": "a"},
		{"id": "3", "name": "c"},
		{"id": "4", "status": 1, "name": "a"},
	}
	ids := func() []string {
		out := make([]string, len(docs))
		for i, d := range docs {
			out[i] = d.ID()
		}
		return out
	}

	sortDocuments(docs, nil)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids())

	sortDocuments(docs, []Order{{Column: "status", Direction: Asc}})
	assert.Equal(t, []string{"3", "1", "4", "2"}, ids())

	sortDocuments(docs, []Order{{Column: "status", Direction: Desc}, {Column: "name", Direction: Asc}})
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids())
}

func TestWithOrderColumns(t *testing.T) {
	orders := []Order{{Column: "name"}, {Column: "heat"}, {Column: "createTime"}}
	before := len(cell.TagFields)

	got := withOrderColumns(cell.TagFields, orders)
	assert.Equal(t, append(append([]string{}, cell.TagFields...), "heat", "createTime"), got)
	assert.Len(t, cell.TagFields, before)

	assert.Nil(t, withOrderColumns(nil, orders))
	assert.Equal(t, []string{"id"}, withOrderColumns([]string{"id"}, nil))

	assert.Contains(t, Query{Orders: orders}.fields(), "heat")
	assert.Nil(t, Query{ShowDetail: true, Orders: orders}.fields())
}

// --- Query helpers ---

func TestQueryWindow(t *testing.T) {
	tests := []struct {
		name        string
		page, size  int
		skip, limit int
	}{
		{"zero value", 0, 0, 0, DefaultPageSize},
		{"second page", 2, 10, 10, 10},
		{"negative page", -3, 5, 0, 5},
		{"unlimited", 4, Unlimited, 0, 0},
		{"negative size", 1, -7, 0, DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit := Query{Page: tt.page, PageSize: tt.size}.window()
			assert.Equal(t, tt.skip, skip)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestQueryTimeField(t *testing.T) {
	assert.Equal(t, cell.FieldCreateTime, Query{}.timeField())
	assert.Equal(t, cell.FieldUpdateTime, Query{TimeType: "updateTime"}.timeField())
	assert.Equal(t, cell.FieldPublishTime, Query{TimeType: "publishTime"}.timeField())
	assert.Equal(t, cell.FieldCreateTime, Query{TimeType: "name"}.timeField())
}

func TestQueryOrders(t *testing.T) {
	q := Query{Orders: []Order{
		{Column: "name", Direction: "asc"},
		{Column: "", Direction: Asc},
		{Column: "status", Direction: ""},
		{Column: "heat", Direction: "up"},
	}}
	assert.Equal(t, []Order{
		{Column: "name", Direction: Asc},
		{Column: "status", Direction: Desc},
		{Column: "heat", Direction: Desc},
	}, q.orders())
}

func TestOrderUnmarshalJSON(t *testing.T) {
	var orders []Order
	err := json.Unmarshal([]byte(`[
		{"column": "name", "direction": "ASC"},
		{"column": "status", "order": "asc"},
		{"column": "heat", "direction": "DESC", "order": "ASC"}
	]`), &orders)
	require.NoError(t, err)

	assert.Equal(t, []Order{
		{Column: "name", Direction: "ASC"},
		{Column: "status", Direction: "asc"},
		{Column: "heat", Direction: "DESC"},
	}, orders)
}

func TestTimeBoundMillis(t *testing.T) {
	local := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local).UnixMilli()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local).UnixMilli()

	tests := []struct {
		in     TimeBound
		want   int64
		wantOK bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{"1700000000000", 1_700_000_000_000, true},
		{"1700000000000.9", 1_700_000_000_000, true},
		{"2024-03-01 12:30:00", local, true},
		{"2024-03-01 12:30", local, true},
		{"2024-03-01", day, true},
		{"2024/03/01", day, true},
		{"2024-03-01T12:30:00Z", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC).UnixMilli(), true},
		{"yesterday", 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, ok := tt.in.Millis()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeBoundUnmarshalJSON(t *testing.T) {
	var q Query
	err := json.Unmarshal([]byte(`{"startTime": 1700000000000, "endTime": "2024-03-01"}`), &q)
	require.NoError(t, err)
	assert.Equal(t, TimeMillis(1_700_000_000_000), q.StartTime)
	assert.Equal(t, TimeBound("2024-03-01"), q.EndTime)

	err = json.Unmarshal([]byte(`{"startTime": {"bad": true}}`), &q)
	require.NoError(t, err)
	assert.Equal(t, TimeBound(""), q.StartTime)
}

// --- Candidate sets ---

func TestCandidateSets(t *testing.T) {
	a := newCandidateSet([]string{"x", "", "y", "x", "z"})
	assert.Equal(t, []string{"x", "y", "z"}, a.ids)
	assert.True(t, a.active)

	b := newCandidateSet([]string{"z", "x"})
	assert.Equal(t, []string{"x", "z"}, a.intersect(b).ids)

	tests := []struct {
		name             string
		user, structural candidateSet
		want             candidateSet
	}{
		{"neither", candidateSet{}, candidateSet{}, candidateSet{}},
		{"user only", b, candidateSet{}, b},
		{"structural only", candidateSet{}, a, a},
		{"both", b, a, candidateSet{active: true, ids: []string{"x", "z"}}},
		{"empty user", candidateSet{active: true}, a, candidateSet{active: true, ids: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, combine(tt.user, tt.structural))
		})
	}
}

func TestBaseSelector(t *testing.T) {
	isRoot := 1
	sel := baseSelector(Query{
		TypeGroup: "CONTENT",
		IsRoot:    &isRoot,
		StartTime: TimeMillis(10),
		TimeType:  "updateTime",
	})

	matches := docstore.Document{
		"status": 2, "createTime": 5, "updateTime": 11, "typeGroup": "CONTENT", "isRoot": 1,
	}
	assert.True(t, sel.Matches(matches))

	early := matches.Clone()
	early["updateTime"] = 9
	assert.False(t, sel.Matches(early))

	other := matches.Clone()
	other["typeGroup"] = "TAG"
	assert.False(t, sel.Matches(other))

	byID := baseSelector(Query{CellID: "c1", TypeGroup: "TAG"})
	assert.True(t, byID.Matches(docstore.Document{"id": "c1", "status": 0, "createTime": 0, "typeGroup": "CONTENT"}))
}
