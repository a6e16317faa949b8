package tp

import (
	"strconv"
	"unicode/utf8"

	"tlog.app/go/errors"
)

type (
	// Type is a value type of the language.
	// Class instances are not values: they only appear as symbol types.
	Type int
)

const (
	Invalid Type = iota
	Int
	Float
	Char
	Bool
	String
	Void
	Class
)

var names = [...]string{
	Invalid: "invalid",
	Int:     "int",
	Float:   "float",
	Char:    "char",
	Bool:    "bool",
	String:  "string",
	Void:    "void",
	Class:   "class",
}

var ErrBadValue = errors.New("bad value")

// Primitives lists value types in layout order.
var Primitives = []Type{Int, Float, Char, Bool, String}

// Lookup maps a type keyword to its Type.
// Class names and unknown words return Invalid.
func Lookup(name string) Type {
	switch name {
	case "int":
		return Int
	case "float":
		return Float
	case "char":
		return Char
	case "bool", "boolean":
		return Bool
	case "string":
		return String
	case "void":
		return Void
	}

	return Invalid
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return "type(" + strconv.Itoa(int(t)) + ")"
	}

	return names[t]
}

// Parse reads one line of input as a value of type t.
func (t Type) Parse(s string) (any, error) {
	switch t {
	case Int:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrap(ErrBadValue, "int %q", s)
		}

		return v, nil
	case Float:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrap(ErrBadValue, "float %q", s)
		}

		return v, nil
	case Char:
		r, _ := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return nil, errors.Wrap(ErrBadValue, "char %q", s)
		}

		return r, nil
	case Bool:
		return s != "false", nil
	case String:
		return s, nil
	}

	return nil, errors.New("can't read %v", t)
}

// Convert coerces a numeric value to the representation of t.
// Non-numeric values are returned as is.
func (t Type) Convert(v any) any {
	switch t {
	case Int:
		switch v := v.(type) {
		case float64:
			return int64(v)
		case rune:
			return int64(v)
		}
	case Float:
		switch v := v.(type) {
		case int64:
			return float64(v)
		case rune:
			return float64(v)
		}
	case Char:
		switch v := v.(type) {
		case int64:
			return rune(v)
		case float64:
			return rune(v)
		}
	}

	return v
}

// Format renders a value the way WRITE prints it.
func Format(v any) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case rune:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case nil:
		return "<nil>"
	}

	return "<?>"
}
