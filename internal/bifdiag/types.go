package bifdiag

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeCode classifies a point along a branch using the AUTO numbering.
type TypeCode int

const (
	TypeNone       TypeCode = 0
	TypeBP         TypeCode = 1
	TypeLP         TypeCode = 2
	TypeHB         TypeCode = 3
	TypeRG         TypeCode = 4
	TypeUZ         TypeCode = -4
	TypeLPPeriodic TypeCode = 5
	TypeBPPeriodic TypeCode = 6
	TypePD         TypeCode = 7
	TypeTR         TypeCode = 8
	TypeEP         TypeCode = 9
	TypeMX         TypeCode = -9
)

var typeNames = map[TypeCode]string{
	TypeBP:         "BP",
	TypeLP:         "LP",
	TypeHB:         "HB",
	TypeRG:         "RG",
	TypeUZ:         "UZ",
	TypeLPPeriodic: "LP",
	TypeBPPeriodic: "BP",
	TypePD:         "PD",
	TypeTR:         "TR",
	TypeEP:         "EP",
	TypeMX:         "MX",
}

// SpecialTypes is the default selection for label filtering: every
// classified type except regular points and UZ.
var SpecialTypes = []string{"BP", "LP", "HB", "PD", "TR", "EP", "MX"}

// Name returns the two letter type name, or "" for TypeNone.
// Unknown codes render as TY<n>.
func (t TypeCode) Name() string {
	if t == TypeNone {
		return ""
	}
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "TY" + strconv.Itoa(int(t))
}

func (t TypeCode) String() string {
	if t == TypeNone {
		return "--"
	}
	return t.Name()
}

// ParseTypeName converts a type name back into its canonical code. For BP and
// LP the algebraic variant is returned.
func ParseTypeName(name string) (TypeCode, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "", "--":
		return TypeNone, nil
	case "BP":
		return TypeBP, nil
	case "LP":
		return TypeLP, nil
	case "HB":
		return TypeHB, nil
	case "RG":
		return TypeRG, nil
	case "UZ":
		return TypeUZ, nil
	case "PD":
		return TypePD, nil
	case "TR":
		return TypeTR, nil
	case "EP":
		return TypeEP, nil
	case "MX":
		return TypeMX, nil
	}
	return TypeNone, fmt.Errorf("bifdiag: unknown type name %q", name)
}

// Label identifies one point within a branch.
type Label struct {
	// ID is the caller visible label number; 0 means unlabeled.
	ID int
	// Type is the point classification.
	Type TypeCode
	// Branch is the branch number (BR) the point was produced on.
	Branch int
	// Point is the ordinal position (PT) along the branch, always positive.
	Point int
}

// Labeled reports whether the point carries a label number.
func (l Label) Labeled() bool { return l.ID != 0 }

// Marker reports whether the label is a zero-weight type marker: a type is
// recorded but the label number and solution data have been removed.
func (l Label) Marker() bool { return l.ID == 0 && l.Type != TypeNone }

func (l Label) String() string {
	if l.ID == 0 {
		return fmt.Sprintf("BR%d PT%d %s", l.Branch, l.Point, l.Type)
	}
	return fmt.Sprintf("BR%d PT%d %s LAB%d", l.Branch, l.Point, l.Type, l.ID)
}
