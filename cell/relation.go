package cell

// Relation document fields.
const (
	FieldSourceID = "sourceId"
	FieldTargetID = "targetId"
	FieldCellID   = "cid"
	FieldRelType  = "type"
)

// RelationType is the kind of a user relation.
type RelationType string

const (
	RelationStar        RelationType = "star"
	RelationLike        RelationType = "like"
	RelationCooperation RelationType = "cooperation"
	RelationContactsTag RelationType = "contactsTag"
)

// RelationTypes lists every valid user relation type.
var RelationTypes = []RelationType{
	RelationStar,
	RelationLike,
	RelationCooperation,
	RelationContactsTag,
}

// Valid reports whether t is one of RelationTypes.
func (t RelationType) Valid() bool {
	for _, rt := range RelationTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// StructuralRelation is a directed edge from a parent cell to a child cell.
type StructuralRelation struct {
	ID       string `json:"id"`
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// Document converts the relation to its persisted form.
func (r StructuralRelation) Document() map[string]any {
	return map[string]any{
		FieldID:       r.ID,
		FieldSourceID: r.SourceID,
		FieldTargetID: r.TargetID,
	}
}

// DecodeStructuralRelation reads a stored structural relation.
func DecodeStructuralRelation(doc map[string]any) StructuralRelation {
	return StructuralRelation{
		ID:       stringField(doc, FieldID),
		SourceID: stringField(doc, FieldSourceID),
		TargetID: stringField(doc, FieldTargetID),
	}
}

// UserRelation records a user interaction of one type with a cell.
type UserRelation struct {
	ID     string       `json:"id"`
	CellID string       `json:"cid"`
	Type   RelationType `json:"type"`
}

// Document converts the relation to its persisted form.
func (r UserRelation) Document() map[string]any {
	return map[string]any{
		FieldID:      r.ID,
		FieldCellID:  r.CellID,
		FieldRelType: string(r.Type),
	}
}

// DecodeUserRelation reads a stored user relation.
func DecodeUserRelation(doc map[string]any) UserRelation {
	return UserRelation{
		ID:     stringField(doc, FieldID),
		CellID: stringField(doc, FieldCellID),
		Type:   RelationType(stringField(doc, FieldRelType)),
	}
}
