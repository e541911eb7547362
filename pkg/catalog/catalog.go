// Package catalog manages the attribute schema: the mapping from
// keyword name to attribute id, cardinality, value type, and index
// flags that the rest of the engine consults before reading or writing
// a triple.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/faktum/pkg/codec"
	"github.com/cuemby/faktum/pkg/storage"
	"github.com/cuemby/faktum/pkg/value"
)

// record is the on-disk shape of an Attribute; a plain JSON envelope,
// the same serialization discipline the storage layer uses everywhere
// else.
type record struct {
	Id          value.AttrId
	Name        string
	Cardinality value.Cardinality
	ValueType   value.ValueType
	Indexed     bool
	Unique      bool
	WithHistory bool
	Retracted   bool
}

func toRecord(a value.Attribute, retracted bool) record {
	return record{
		Id: a.Id, Name: a.Name, Cardinality: a.Cardinality, ValueType: a.ValueType,
		Indexed: a.Indexed, Unique: a.Unique, WithHistory: a.WithHistory, Retracted: retracted,
	}
}

func (r record) toAttribute() value.Attribute {
	return value.Attribute{
		Id: r.Id, Name: r.Name, Cardinality: r.Cardinality, ValueType: r.ValueType,
		Indexed: r.Indexed, Unique: r.Unique, WithHistory: r.WithHistory,
	}
}

// Catalog is the per-transaction view of the attribute schema. It
// lazily populates two caches, by_id and by_keyword, that additionally
// reflect any attribute installed or retracted earlier within the same
// transaction, so a freshly created attribute is immediately visible to
// subsequent lookups without a round trip to storage.
type Catalog struct {
	tx        storage.Tx
	byId      map[value.AttrId]*value.Attribute
	byKeyword map[string]*value.Attribute
}

// New wraps tx with a fresh, empty cache.
func New(tx storage.Tx) *Catalog {
	return &Catalog{
		tx:        tx,
		byId:      make(map[value.AttrId]*value.Attribute),
		byKeyword: make(map[string]*value.Attribute),
	}
}

// Lookup returns the attribute registered under id, or (nil, nil) if no
// live attribute has that id.
func (c *Catalog) Lookup(id value.AttrId) (*value.Attribute, error) {
	if attr, ok := c.byId[id]; ok {
		return attr, nil
	}
	raw, err := c.tx.Get(codec.EncodeAttrByIdKey(id))
	if err != nil {
		return nil, fmt.Errorf("catalog: get attribute %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("catalog: decode attribute %s: %w", id, err)
	}
	if rec.Retracted {
		c.byId[id] = nil
		return nil, nil
	}
	attr := rec.toAttribute()
	c.byId[id] = &attr
	c.byKeyword[attr.Name] = &attr
	return &attr, nil
}

// LookupByKeyword returns the attribute registered under name, or
// (nil, nil) if no live attribute has that name.
func (c *Catalog) LookupByKeyword(name string) (*value.Attribute, error) {
	if attr, ok := c.byKeyword[name]; ok {
		return attr, nil
	}
	raw, err := c.tx.Get(codec.EncodeAttrByKeywordKey(name))
	if err != nil {
		return nil, fmt.Errorf("catalog: get attribute %q: %w", name, err)
	}
	if raw == nil {
		c.byKeyword[name] = nil
		return nil, nil
	}
	id := value.AttrId(0)
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("catalog: decode attribute id for %q: %w", name, err)
	}
	return c.Lookup(id)
}

// Install registers a new attribute under a caller-chosen id (allocated
// by the transaction layer's attribute id allocator). It fails if name
// is already registered to a live attribute.
func (c *Catalog) Install(id value.AttrId, attr value.Attribute) (*value.Attribute, error) {
	existing, err := c.LookupByKeyword(attr.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("catalog: attribute %q already registered as %s", attr.Name, existing.Id)
	}
	attr.Id = id
	rec := toRecord(attr, false)
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode attribute %q: %w", attr.Name, err)
	}
	if err := c.tx.Put(codec.EncodeAttrByIdKey(id), raw); err != nil {
		return nil, fmt.Errorf("catalog: put attribute %s: %w", id, err)
	}
	idRaw, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode attribute id for %q: %w", attr.Name, err)
	}
	if err := c.tx.Put(codec.EncodeAttrByKeywordKey(attr.Name), idRaw); err != nil {
		return nil, fmt.Errorf("catalog: put attribute keyword %q: %w", attr.Name, err)
	}
	c.byId[id] = &attr
	c.byKeyword[attr.Name] = &attr
	return &attr, nil
}

// Retract marks id as hidden. The id is never reused and never returned
// by Lookup or LookupByKeyword again, but existing triples referencing
// it remain on disk.
func (c *Catalog) Retract(id value.AttrId) error {
	attr, err := c.Lookup(id)
	if err != nil {
		return err
	}
	if attr == nil {
		return fmt.Errorf("catalog: cannot retract unknown attribute %s", id)
	}
	rec := toRecord(*attr, true)
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("catalog: encode retraction of %s: %w", id, err)
	}
	if err := c.tx.Put(codec.EncodeAttrByIdKey(id), raw); err != nil {
		return fmt.Errorf("catalog: put retraction of %s: %w", id, err)
	}
	if err := c.tx.Delete(codec.EncodeAttrByKeywordKey(attr.Name)); err != nil {
		return fmt.Errorf("catalog: delete keyword mapping for %q: %w", attr.Name, err)
	}
	c.byId[id] = nil
	c.byKeyword[attr.Name] = nil
	return nil
}
