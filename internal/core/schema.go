package core

import "fmt"

// NestedSeparator joins a nested record's prefix and its field names, so a
// "Stats" record with a "Health" field is populated from the header
// "Stats.Health".
const NestedSeparator = "."

// Field binds one header name to a typed location on T.
type Field[T any] struct {
	Name string
	Type CellType
	set  func(rec *T, v any)
}

// Set stores an already-parsed value. v must have the Go type that Parse
// returns for f.Type.
func (f Field[T]) Set(rec *T, v any) {
	f.set(rec, v)
}

// Schema is the field-descriptor table of one element type. It replaces
// runtime field lookup: headers resolve against Names, and each Field knows
// how to store its parsed value.
type Schema[T any] struct {
	name   string
	fields map[string]Field[T]
	order  []string
}

// NewSchema builds a schema from field descriptors.
// Panics on duplicate or empty names, which are programming errors.
func NewSchema[T any](name string, fields ...Field[T]) *Schema[T] {
	s := &Schema[T]{
		name:   name,
		fields: make(map[string]Field[T], len(fields)),
	}
	for _, f := range fields {
		s.add(f)
	}
	return s
}

func (s *Schema[T]) add(f Field[T]) {
	if f.Name == "" || f.set == nil {
		panic(fmt.Sprintf("schema %s: field must have a name and a setter", s.name))
	}
	if _, exists := s.fields[f.Name]; exists {
		panic(fmt.Sprintf("schema %s: duplicate field %q", s.name, f.Name))
	}
	s.fields[f.Name] = f
	s.order = append(s.order, f.Name)
}

// Name returns the element type name used in diagnostics.
func (s *Schema[T]) Name() string {
	return s.name
}

// Field resolves a header name. Matching is exact and case-sensitive.
func (s *Schema[T]) Field(name string) (Field[T], bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Names returns field names in declaration order.
func (s *Schema[T]) Names() []string {
	return append([]string(nil), s.order...)
}

// Nest adds every field of inner to outer under prefix, so nested records
// are populated from "prefix.field" headers. Returns outer.
func Nest[T, U any](outer *Schema[T], prefix string, inner *Schema[U], ptr func(*T) *U) *Schema[T] {
	for _, name := range inner.order {
		f := inner.fields[name]
		outer.add(Field[T]{
			Name: prefix + NestedSeparator + f.Name,
			Type: f.Type,
			set:  func(rec *T, v any) { f.set(ptr(rec), v) },
		})
	}
	return outer
}

// StringField binds a string field. The cell is stored as-is.
func StringField[T any](name string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindString},
		set:  func(rec *T, v any) { *ptr(rec) = v.(string) },
	}
}

// IntField binds an int field.
func IntField[T any](name string, ptr func(*T) *int) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindInt},
		set:  func(rec *T, v any) { *ptr(rec) = v.(int) },
	}
}

// FloatField binds a float64 field.
func FloatField[T any](name string, ptr func(*T) *float64) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindFloat},
		set:  func(rec *T, v any) { *ptr(rec) = v.(float64) },
	}
}

// BoolField binds a bool field.
func BoolField[T any](name string, ptr func(*T) *bool) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindBool},
		set:  func(rec *T, v any) { *ptr(rec) = v.(bool) },
	}
}

// IntListField binds a []int field.
func IntListField[T any](name string, ptr func(*T) *[]int) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindIntList},
		set:  func(rec *T, v any) { *ptr(rec) = v.([]int) },
	}
}

// EnumField binds a scalar enum field.
func EnumField[T any, E ~int](name string, enum *Enum[E], ptr func(*T) *E) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindEnum, Enum: enum},
		set:  func(rec *T, v any) { *ptr(rec) = v.(E) },
	}
}

// EnumListField binds a []E field.
func EnumListField[T any, E ~int](name string, enum *Enum[E], ptr func(*T) *[]E) Field[T] {
	return Field[T]{
		Name: name,
		Type: CellType{Kind: KindEnumList, Enum: enum},
		set:  func(rec *T, v any) { *ptr(rec) = v.([]E) },
	}
}
