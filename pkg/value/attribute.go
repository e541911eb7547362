package value

// Cardinality controls how many live values an (entity, attribute) pair
// may hold at once.
type Cardinality uint8

const (
	// CardinalityOne means a new assertion retracts whatever value the
	// entity previously held for this attribute.
	CardinalityOne Cardinality = iota
	// CardinalityMany means an entity may hold any number of distinct
	// live values for this attribute simultaneously.
	CardinalityMany
)

// ValueType constrains what Kind of DataValue an attribute's values hold.
// EntityRef-typed attributes additionally maintain the VAET index.
type ValueType uint8

const (
	ValueTypeAny ValueType = iota
	ValueTypeBool
	ValueTypeInt
	ValueTypeFloat
	ValueTypeString
	ValueTypeBytes
	ValueTypeKeyword
	ValueTypeEntityRef
	ValueTypeList
)

// Attribute is a catalog entry describing the schema of one attribute id.
type Attribute struct {
	Id          AttrId
	Name        string
	Cardinality Cardinality
	ValueType   ValueType

	// Indexed, when true, causes the AVET index to be maintained for
	// this attribute, supporting value-first lookups and backward joins.
	Indexed bool

	// Unique, when true, rejects an assertion that would give two
	// distinct live entities the same value for this attribute.
	Unique bool

	// WithHistory is stored in the catalog. The write path does not
	// consult it: every assertion and retraction is kept, whatever its
	// value, and stays visible to reads as of earlier validities.
	WithHistory bool
}

// NeedsVAET reports whether this attribute's value index should be
// maintained. VAET only makes sense for attributes whose values are
// entity references, since its purpose is walking an edge backward from
// value to entity.
func (a Attribute) NeedsVAET() bool {
	return a.ValueType == ValueTypeEntityRef
}
