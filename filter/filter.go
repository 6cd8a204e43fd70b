// Package filter builds RediSearch predicate expressions over tag,
// numeric, text and geo fields. Expressions are immutable trees combined
// with And/Or and rendered into query-string fragments by Render.
package filter

import (
	"strconv"
	"strings"
)

// Expression is a node in a boolean filter tree. The variant set is
// closed; Render dispatches over it exhaustively.
type Expression interface {
	node()
}

type tagFilter struct {
	field   string
	values  []string
	negated bool
}

type numericOp int

const (
	numEq numericOp = iota
	numNe
	numGt
	numGe
	numLt
	numLe
)

type numericFilter struct {
	field string
	op    numericOp
	value float64
}

type textMode int

const (
	textExact textMode = iota
	textNotExact
	textPattern
)

type textFilter struct {
	field string
	mode  textMode
	value string
}

// Unit is a geo radius unit accepted by RediSearch.
type Unit string

// Geo radius units.
const (
	Meters     Unit = "m"
	Kilometers Unit = "km"
	Miles      Unit = "mi"
	Feet       Unit = "ft"
)

type geoFilter struct {
	field   string
	lon     float64
	lat     float64
	radius  float64
	unit    Unit
	negated bool
}

type compositeOp int

const (
	opAnd compositeOp = iota
	opOr
)

type composite struct {
	left  Expression
	right Expression
	op    compositeOp
}

type wildcard struct{}

func (tagFilter) node()     {}
func (numericFilter) node() {}
func (textFilter) node()    {}
func (geoFilter) node()     {}
func (composite) node()     {}
func (wildcard) node()      {}

// Wildcard returns the match-everything filter. It is the neutral
// element: combining any expression with it yields that expression.
func Wildcard() Expression { return wildcard{} }

// And intersects two expressions.
func And(left, right Expression) Expression {
	return composite{left: left, right: right, op: opAnd}
}

// Or unions two expressions.
func Or(left, right Expression) Expression {
	return composite{left: left, right: right, op: opOr}
}

// TagField builds membership filters over a TAG field.
type TagField struct {
	name string
}

// Tag starts a filter over a TAG field.
func Tag(name string) TagField { return TagField{name: name} }

// Eq matches records whose tag equals any of the given values.
// With no values the filter is neutral and matches everything.
func (f TagField) Eq(values ...string) Expression {
	return tagFilter{field: f.name, values: values}
}

// Ne matches records whose tag equals none of the given values.
func (f TagField) Ne(values ...string) Expression {
	return tagFilter{field: f.name, values: values, negated: true}
}

// NumField builds comparison filters over a NUMERIC field.
type NumField struct {
	name string
}

// Num starts a filter over a NUMERIC field.
func Num(name string) NumField { return NumField{name: name} }

// Eq matches records where the field equals v.
func (f NumField) Eq(v float64) Expression {
	return numericFilter{field: f.name, op: numEq, value: v}
}

// Ne matches records where the field does not equal v.
func (f NumField) Ne(v float64) Expression {
	return numericFilter{field: f.name, op: numNe, value: v}
}

// Gt matches records where the field is strictly greater than v.
func (f NumField) Gt(v float64) Expression {
	return numericFilter{field: f.name, op: numGt, value: v}
}

// Ge matches records where the field is greater than or equal to v.
func (f NumField) Ge(v float64) Expression {
	return numericFilter{field: f.name, op: numGe, value: v}
}

// Lt matches records where the field is strictly less than v.
func (f NumField) Lt(v float64) Expression {
	return numericFilter{field: f.name, op: numLt, value: v}
}

// Le matches records where the field is less than or equal to v.
func (f NumField) Le(v float64) Expression {
	return numericFilter{field: f.name, op: numLe, value: v}
}

// TextField builds full-text filters over a TEXT field.
type TextField struct {
	name string
}

// Text starts a filter over a TEXT field.
func Text(name string) TextField { return TextField{name: name} }

// Eq matches records containing the exact phrase. An empty value is
// neutral and matches everything.
func (f TextField) Eq(value string) Expression {
	return textFilter{field: f.name, mode: textExact, value: value}
}

// Ne matches records not containing the exact phrase.
func (f TextField) Ne(value string) Expression {
	return textFilter{field: f.name, mode: textNotExact, value: value}
}

// Match matches records against a raw RediSearch pattern. Wildcard
// (enginee*), union (engine*|doctor) and fuzzy (%%engine%%) syntax all
// pass through unescaped. An empty pattern is neutral.
func (f TextField) Match(pattern string) Expression {
	return textFilter{field: f.name, mode: textPattern, value: pattern}
}

// GeoField builds radius filters over a GEO field.
type GeoField struct {
	name string
}

// Geo starts a filter over a GEO field.
func Geo(name string) GeoField { return GeoField{name: name} }

// Within matches records within radius of the point (lon, lat).
func (f GeoField) Within(lon, lat, radius float64, unit Unit) Expression {
	return geoFilter{field: f.name, lon: lon, lat: lat, radius: radius, unit: unit}
}

// NotWithin matches records outside the given radius.
func (f GeoField) NotWithin(lon, lat, radius float64, unit Unit) Expression {
	return geoFilter{field: f.name, lon: lon, lat: lat, radius: radius, unit: unit, negated: true}
}

// --- Rendering ---

// Render produces the RediSearch query fragment for an expression.
// A nil expression renders as the wildcard. Degenerate leaves (empty tag
// value set, empty text value) render as the wildcard rather than
// matching nothing.
func Render(e Expression) string {
	switch f := e.(type) {
	case nil:
		return "*"
	case wildcard:
		return "*"
	case tagFilter:
		return renderTag(f)
	case numericFilter:
		return renderNumeric(f)
	case textFilter:
		return renderText(f)
	case geoFilter:
		return renderGeo(f)
	case composite:
		return renderComposite(f)
	}
	return "*"
}

func renderTag(f tagFilter) string {
	vals := make([]string, 0, len(f.values))
	for _, v := range f.values {
		if v == "" {
			continue
		}
		vals = append(vals, tagEscaper.Replace(v))
	}
	if len(vals) == 0 {
		return "*"
	}
	body := "@" + f.field + ":{" + strings.Join(vals, "|") + "}"
	if f.negated {
		return "(-" + body + ")"
	}
	return body
}

func renderNumeric(f numericFilter) string {
	v := formatNum(f.value)
	switch f.op {
	case numEq:
		return "@" + f.field + ":[" + v + " " + v + "]"
	case numNe:
		return "(-@" + f.field + ":[" + v + " " + v + "])"
	case numGt:
		return "@" + f.field + ":[(" + v + " +inf]"
	case numGe:
		return "@" + f.field + ":[" + v + " +inf]"
	case numLt:
		return "@" + f.field + ":[-inf (" + v + "]"
	case numLe:
		return "@" + f.field + ":[-inf " + v + "]"
	}
	return "*"
}

func renderText(f textFilter) string {
	if f.value == "" {
		return "*"
	}
	switch f.mode {
	case textExact:
		return "@" + f.field + `:("` + textEscaper.Replace(f.value) + `")`
	case textNotExact:
		return "(-@" + f.field + `:"` + textEscaper.Replace(f.value) + `")`
	case textPattern:
		return "@" + f.field + ":(" + f.value + ")"
	}
	return "*"
}

func renderGeo(f geoFilter) string {
	body := "@" + f.field + ":[" +
		formatNum(f.lon) + " " + formatNum(f.lat) + " " +
		formatNum(f.radius) + " " + string(f.unit) + "]"
	if f.negated {
		return "(-" + body + ")"
	}
	return body
}

// renderComposite joins two sides with the operator, absorbing wildcard
// sides and parenthesizing a side only when it is itself composite.
func renderComposite(c composite) string {
	left := Render(c.left)
	right := Render(c.right)

	if left == "*" && right == "*" {
		return "*"
	}
	if left == "*" {
		return right
	}
	if right == "*" {
		return left
	}

	if _, ok := c.left.(composite); ok {
		left = "(" + left + ")"
	}
	if _, ok := c.right.(composite); ok {
		right = "(" + right + ")"
	}

	sep := " "
	if c.op == opOr {
		sep = " | "
	}
	return left + sep + right
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// --- Escaping ---

// tagEscaper covers characters with syntactic meaning inside TAG values.
var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)

// textEscaper keeps exact phrases inside their surrounding quotes.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)
