package cell

// SummaryFields is the list projection: everything but the bulk payload.
var SummaryFields = []string{
	FieldID, FieldName, FieldDescription, FieldTypeGroup, FieldType,
	FieldPartition, FieldIcon, FieldCover, FieldStatus, FieldEncrypted,
	FieldIsRoot, FieldStyle, FieldConfig, FieldStatistics,
	FieldCreateTime, FieldUpdateTime, FieldPublishTime,
}

// TagFields is the projection used for neighbor cells attached to query results.
var TagFields = []string{
	FieldID, FieldName, FieldDescription, FieldTypeGroup, FieldType,
	FieldIcon, FieldCover, FieldStatus,
}

// TimeFields are the fields a query time window may apply to.
var TimeFields = []string{FieldCreateTime, FieldUpdateTime, FieldPublishTime}
