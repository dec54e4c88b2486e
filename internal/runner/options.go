package runner

import (
	"fmt"
	"strings"

	"autoctl/internal/autofile"
	"autoctl/internal/bifdiag"
)

// Role is a file role of the run configuration.
type Role string

const (
	RoleEquation  Role = "equation"
	RoleConstants Role = "constants"
	RoleSolution  Role = "solution"
	RoleHomCont   Role = "homcont"
)

// Roles lists the file roles in resolution order.
var Roles = []Role{RoleEquation, RoleConstants, RoleSolution, RoleHomCont}

// Run-control keys.
const (
	KeySaveAs   = "sv"
	KeyAppendTo = "ap"
)

// aliases maps every accepted spelling of a role key to its role.
var aliases = map[string]Role{
	"e": RoleEquation, "equation": RoleEquation,
	"c": RoleConstants, "constants": RoleConstants,
	"s": RoleSolution, "solution": RoleSolution,
	"h": RoleHomCont, "homcont": RoleHomCont,
}

// FileValue is the value of a file role: either a name still to be read
// through the namer, or an object supplied directly.
type FileValue struct {
	Name      string
	Constants *bifdiag.Constants // constants and homcont roles
	Solution  *bifdiag.Solution  // solution role
}

// Named returns a FileValue resolved through the namer.
func Named(name string) FileValue { return FileValue{Name: name} }

// ConstantsValue supplies a constants or homcont object directly.
func ConstantsValue(c *bifdiag.Constants) FileValue { return FileValue{Constants: c} }

// SolutionValue supplies a start solution directly.
func SolutionValue(s *bifdiag.Solution) FileValue { return FileValue{Solution: s} }

// IsName reports whether the value still needs reading.
func (v FileValue) IsName() bool {
	return v.Constants == nil && v.Solution == nil
}

// Setting assigns one AUTO constant.
type Setting struct {
	Name  string
	Value any
}

// Options is the typed option set of configure, load and run.
type Options struct {
	Files     map[Role]FileValue
	Constants []Setting // applied in order
	SaveAs    string
	AppendTo  string
}

// With returns a copy of o with role set to v.
func (o Options) With(role Role, v FileValue) Options {
	files := make(map[Role]FileValue, len(o.Files)+1)
	for r, fv := range o.Files {
		files[r] = fv
	}
	files[role] = v
	o.Files = files
	return o
}

// Set returns a copy of o with one more constant setting.
func (o Options) Set(name string, value any) Options {
	o.Constants = append(append([]Setting(nil), o.Constants...), Setting{Name: name, Value: value})
	return o
}

// ParseOptions reads "key=value" arguments. The keys e, c, s and h and
// their long forms name file roles; when both spellings of a role are
// given the long one wins. sv and ap set the save and append targets.
// Every other key is an AUTO constant whose value uses the constants file
// syntax.
func ParseOptions(args []string) (Options, error) {
	opts := Options{Files: make(map[Role]FileValue)}
	long := make(map[Role]bool)
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Options{}, &ConfigurationError{Err: fmt.Errorf("option %q is not key=value", arg)}
		}
		value = strings.TrimSpace(value)

		if role, isRole := aliases[key]; isRole {
			isLong := key == string(role)
			if long[role] && !isLong {
				continue
			}
			long[role] = long[role] || isLong
			opts.Files[role] = Named(value)
			continue
		}
		switch key {
		case KeySaveAs:
			opts.SaveAs = value
			continue
		case KeyAppendTo:
			opts.AppendTo = value
			continue
		}
		v, err := autofile.ParseValue(value)
		if err != nil {
			return Options{}, &ConfigurationError{Name: key, Err: err}
		}
		opts.Constants = append(opts.Constants, Setting{Name: key, Value: v})
	}
	return opts, nil
}
