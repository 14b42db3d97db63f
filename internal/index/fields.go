package index

// Field names shared by the write path (indexer) and the read path
// (compiler, engine). The two sides must stay bit-compatible: a document is
// only reconstructable because both use exactly these names and encodings.
const (
	// FieldKey holds the node's uuid key (stored, not analyzed).
	FieldKey = "key"
	// FieldType holds the node type: content, media or member.
	FieldType = "type"
	// FieldAlias holds the node's type alias.
	FieldAlias = "alias"
	// FieldName holds the display name, analyzed for matching.
	FieldName = "name"
	// FieldNameSorted holds the lowercased name as a single keyword term,
	// used for lexicographic sorting and name clauses.
	FieldNameSorted = "name_sorted"
	// FieldDate holds the node date as RFC3339; indexed numerically by the
	// datetime mapping, stored as the string form.
	FieldDate = "date"
	// FieldText holds the searchable text, analyzed with the standard
	// analyzer. The same analyzer drives highlighting at read time.
	FieldText = "text"
	// FieldLocation stores "lat,lon" for read-side reconstruction.
	FieldLocation = "location"
	// FieldLocationPoint is the indexed geopoint backing radius filters
	// and distance sorts; not stored.
	FieldLocationPoint = "location_point"
	// FieldDetached flags nodes outside the repository tree.
	FieldDetached = "detached"

	// FieldHasTags is written once per tagged document ("1").
	FieldHasTags = "has_tags"
	// FieldAllTags collects every tag in serialized form; the result
	// assembler reconstructs tags exclusively from this field.
	FieldAllTags = "tags_all"
	// FieldTagPrefix prefixes one searchable field per tag group; the
	// field value is the tag name, enabling group-scoped queries.
	FieldTagPrefix = "tag_"
	// FieldTagGroupPrefix prefixes one existence flag per tag group ("1").
	FieldTagGroupPrefix = "tag_group_"
)

// TagField returns the group-scoped searchable field name for a tag group.
func TagField(group string) string {
	return FieldTagPrefix + group
}

// TagGroupField returns the group-existence flag field name for a tag group.
func TagGroupField(group string) string {
	return FieldTagGroupPrefix + group
}

// FlagValue is the value written to presence/existence flag fields.
const FlagValue = "1"
