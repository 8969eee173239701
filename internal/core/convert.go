package core

// convert.go turns raw page cells into typed field values.
//
// Every parser reports failure per cell and never aborts the import. A
// failed cell degrades its field to the value returned alongside the error:
//   - ints and floats fall back to 0, bools to false
//   - int lists keep every item that did parse
//   - enum lists are all-or-nothing and return nil on the first bad item
//   - scalar enums never fail: unknown names map to the zero value
//
// The int-list and enum-list policies differ on purpose and are kept as two
// separate rules.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCell is wrapped by every ParseError.
var ErrInvalidCell = errors.New("invalid cell value")

// ParseError describes a cell that could not be converted.
type ParseError struct {
	Input string // Raw cell content
	Type  string // Target type name
	Item  string // Offending list item, empty for scalar cells
}

func (e *ParseError) Error() string {
	if e.Item != "" {
		return fmt.Sprintf("invalid %s item %q in %q", e.Type, e.Item, e.Input)
	}
	return fmt.Sprintf("invalid %s %q", e.Type, e.Input)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidCell
}

// ValueKind identifies the target type of a cell.
type ValueKind int

const (
	KindUnsupported ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindIntList
	KindEnumList
	KindEnum
)

var kindNames = [...]string{
	KindUnsupported: "unsupported",
	KindString:      "string",
	KindInt:         "integer",
	KindFloat:       "float",
	KindBool:        "boolean",
	KindIntList:     "integer list",
	KindEnumList:    "enum list",
	KindEnum:        "enum",
}

func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// CellType is the parse target of one field.
// Enum is required for KindEnum and KindEnumList.
type CellType struct {
	Kind ValueKind
	Enum EnumType
}

func (t CellType) String() string {
	if t.Enum != nil && (t.Kind == KindEnum || t.Kind == KindEnumList) {
		return t.Kind.String() + " " + t.Enum.Name()
	}
	return t.Kind.String()
}

// Parse converts a cell to the Go value for t.
//
// Dispatch order: string, int, float, bool, int list, enum list, enum.
// Unsupported types yield (nil, nil), which is distinct from a handled cell
// that failed. On failure the returned value is the documented fallback and
// is still meant to be stored.
func Parse(cell string, t CellType) (any, error) {
	switch t.Kind {
	case KindString:
		return cell, nil
	case KindInt:
		return ParseInt(cell)
	case KindFloat:
		return ParseFloat(cell)
	case KindBool:
		return ParseBool(cell)
	case KindIntList:
		return ParseIntList(cell)
	case KindEnumList:
		if t.Enum == nil {
			return nil, nil
		}
		return t.Enum.parseValues(cell)
	case KindEnum:
		if t.Enum == nil {
			return nil, nil
		}
		return t.Enum.parseValue(cell), nil
	default:
		return nil, nil
	}
}

// ParseInt parses a base-10 signed integer. Surrounding whitespace is
// ignored. Returns 0 and an error when the cell does not fully parse.
func ParseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Input: s, Type: KindInt.String()}
	}
	return n, nil
}

// ParseFloat parses a decimal number independent of process locale.
// A decimal comma is accepted in place of the decimal point. NaN, infinities
// and hex floats are rejected; the result must be encodable as JSON.
func ParseFloat(s string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if isHexFloat(normalized) {
		return 0, &ParseError{Input: s, Type: KindFloat.String()}
	}
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ParseError{Input: s, Type: KindFloat.String()}
	}
	return f, nil
}

func isHexFloat(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Recognized boolean spellings, compared case-insensitively.
var (
	TrueOptions  = []string{"true", "yes"}
	FalseOptions = []string{"false", "no"}
)

// ParseBool accepts true/yes and false/no in any case.
// Anything else returns false and an error.
func ParseBool(s string) (bool, error) {
	for _, opt := range TrueOptions {
		if strings.EqualFold(s, opt) {
			return true, nil
		}
	}
	for _, opt := range FalseOptions {
		if strings.EqualFold(s, opt) {
			return false, nil
		}
	}
	return false, &ParseError{Input: s, Type: KindBool.String()}
}

// ParseIntList parses a comma-separated list of integers.
//
// Unparseable items are skipped and flagged: the result holds every item
// that did parse, and the error names the first one that did not.
func ParseIntList(s string) ([]int, error) {
	items := strings.Split(s, ",")
	list := make([]int, 0, len(items))

	var firstErr error
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			if firstErr == nil {
				firstErr = &ParseError{Input: s, Type: KindIntList.String(), Item: item}
			}
			continue
		}
		list = append(list, n)
	}

	return list, firstErr
}

// EnumType is the type-erased view of an Enum used by Parse.
type EnumType interface {
	Name() string
	Names() []string
	parseValue(s string) any
	parseValues(s string) (any, error)
}

// Enum is a named set of values for an int-backed Go enum.
// The value of each name is its position in the declaration.
type Enum[E ~int] struct {
	name  string
	names []string
}

// NewEnum declares an enum whose values are 0..len(names)-1.
func NewEnum[E ~int](name string, names ...string) *Enum[E] {
	if len(names) == 0 {
		panic(fmt.Sprintf("enum %s declares no names", name))
	}
	return &Enum[E]{name: name, names: names}
}

// Name returns the enum's type name.
func (e *Enum[E]) Name() string {
	return e.name
}

// Names returns the declared names in value order.
func (e *Enum[E]) Names() []string {
	return append([]string(nil), e.names...)
}

// String returns the declared name of v, or its number if undeclared.
func (e *Enum[E]) String(v E) string {
	if int(v) >= 0 && int(v) < len(e.names) {
		return e.names[v]
	}
	return strconv.Itoa(int(v))
}

// Lookup resolves a name case-insensitively.
func (e *Enum[E]) Lookup(s string) (E, bool) {
	for i, name := range e.names {
		if strings.EqualFold(name, s) {
			return E(i), true
		}
	}
	return 0, false
}

// Parse resolves a scalar enum cell. Unknown names silently map to the zero
// value; scalar enum cells never report an error.
func (e *Enum[E]) Parse(s string) E {
	v, _ := e.Lookup(strings.TrimSpace(s))
	return v
}

// ParseList parses a comma-separated list of names.
//
// The first unknown item aborts the whole cell: the result is nil and items
// parsed before it are discarded. An empty cell is an error.
func (e *Enum[E]) ParseList(s string) ([]E, error) {
	items := strings.Split(s, ",")
	list := make([]E, 0, len(items))

	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		v, ok := e.Lookup(trimmed)
		if !ok {
			return nil, &ParseError{Input: s, Type: KindEnumList.String() + " " + e.name, Item: trimmed}
		}
		list = append(list, v)
	}

	return list, nil
}

func (e *Enum[E]) parseValue(s string) any {
	return e.Parse(s)
}

func (e *Enum[E]) parseValues(s string) (any, error) {
	return e.ParseList(s)
}
