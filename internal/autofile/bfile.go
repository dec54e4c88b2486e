package autofile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"autoctl/internal/bifdiag"
)

// ParseBranches reads a bifurcation diagram file.
//
// Lines whose first field is 0 are headers: "0 PT TY LAB <names>" names the
// columns, other header lines echo constants as "0 KEY = VALUE" and are
// attached to the branch that follows. Data rows are "BR PT TY LAB
// values...", with a negative PT marking a stable point. A header following
// data, or a change of BR, starts a new branch.
func ParseBranches(r io.Reader) ([]*bifdiag.Branch, error) {
	var (
		branches []*bifdiag.Branch
		cur      *bifdiag.Branch
		columns  []string
		consts   *bifdiag.Constants
		lineNo   int
	)
	finish := func() {
		if cur != nil {
			branches = append(branches, cur)
			cur = nil
			consts = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		br, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: branch number %q: %w", lineNo, fields[0], err)
		}

		if br == 0 {
			if cur != nil && cur.Len() > 0 {
				finish()
			}
			if len(fields) >= 4 && fields[1] == "PT" && fields[2] == "TY" && fields[3] == "LAB" {
				columns = append([]string(nil), fields[4:]...)
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "0"))
			key, value, ok := strings.Cut(rest, "=")
			if !ok {
				continue
			}
			v, err := ParseValue(value)
			if err != nil {
				// echo lines are informational
				continue
			}
			if consts == nil {
				consts = bifdiag.NewConstants()
			}
			consts.Set(strings.TrimSpace(key), v)
			continue
		}

		if columns == nil {
			return nil, fmt.Errorf("line %d: data row before column header", lineNo)
		}
		if cur != nil && cur.Number != br {
			next := consts
			finish()
			consts = next
		}
		p, err := parseRow(br, fields, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if cur == nil {
			cur = &bifdiag.Branch{Number: br, Columns: append([]string(nil), columns...), Constants: consts}
		}
		p.Constants = cur.Constants
		cur.Points = append(cur.Points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	finish()
	return branches, nil
}

func parseRow(br int, fields, columns []string) (*bifdiag.Solution, error) {
	if len(fields) != 4+len(columns) {
		return nil, fmt.Errorf("expected %d fields, got %d", 4+len(columns), len(fields))
	}
	ints := make([]int, 3)
	for i := range ints {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %w", i+2, fields[i+1], err)
		}
		ints[i] = n
	}
	pt, ty, lab := ints[0], ints[1], ints[2]
	p := &bifdiag.Solution{
		Label:   bifdiag.Label{ID: lab, Type: bifdiag.TypeCode(ty), Branch: br, Point: abs(pt)},
		Stable:  pt < 0,
		Columns: make([]bifdiag.Field, len(columns)),
	}
	for i, name := range columns {
		v, err := parseFloat(fields[4+i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		p.Columns[i] = bifdiag.Field{Name: name, Value: v}
	}
	return p, nil
}

// EncodeBranches writes branches in the layout ParseBranches reads.
func EncodeBranches(w io.Writer, branches []*bifdiag.Branch) error {
	bw := bufio.NewWriter(w)
	for _, b := range branches {
		if b.Constants != nil {
			for _, k := range b.Constants.Keys() {
				v, _ := b.Constants.Get(k)
				fmt.Fprintf(bw, "   0   %s = %s\n", k, bifdiag.FormatValue(v))
			}
		}
		fmt.Fprintf(bw, "   0    PT  TY  LAB")
		for _, c := range b.Columns {
			fmt.Fprintf(bw, " %19s", c)
		}
		bw.WriteByte('\n')
		for _, p := range b.Points {
			pt := p.Label.Point
			if p.Stable {
				pt = -pt
			}
			fmt.Fprintf(bw, "%4d %5d %3d %4d", b.Number, pt, int(p.Label.Type), p.Label.ID)
			for _, c := range b.Columns {
				v, _ := p.Field(c)
				fmt.Fprintf(bw, " %19.10E", v)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(fortranExponent.ReplaceAllString(s, "${1}E${2}"), 64)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
