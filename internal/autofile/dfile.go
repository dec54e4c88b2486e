package autofile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"autoctl/internal/bifdiag"
)

const sectionSeparator = "====="

// DiagnosticSection is the diagnostics text of one branch.
type DiagnosticSection struct {
	Branch int
	Lines  []bifdiag.DiagnosticLine
}

// ParseDiagnostics splits a diagnostics file into per-branch sections. A
// line starting with "=====" opens a new section. Files without separators
// are grouped by the leading branch number of each line; lines without one
// stay with the current group.
func ParseDiagnostics(r io.Reader) ([]DiagnosticSection, error) {
	var (
		sections  []DiagnosticSection
		separated bool
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		text := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(text), sectionSeparator) {
			separated = true
			sections = append(sections, DiagnosticSection{})
			continue
		}
		line := parseDiagnosticLine(text)
		n := len(sections)
		switch {
		case n == 0:
			sections = append(sections, DiagnosticSection{Branch: line.Branch})
		case !separated && line.Branch != 0 && sections[n-1].Branch != 0 && line.Branch != sections[n-1].Branch:
			sections = append(sections, DiagnosticSection{Branch: line.Branch})
		}
		cur := &sections[len(sections)-1]
		if cur.Branch == 0 {
			cur.Branch = line.Branch
		}
		cur.Lines = append(cur.Lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sections, nil
}

// parseDiagnosticLine picks up "BR PT" when the line starts with two
// integers.
func parseDiagnosticLine(text string) bifdiag.DiagnosticLine {
	line := bifdiag.DiagnosticLine{Text: text}
	fields := strings.Fields(text)
	if len(fields) >= 1 {
		if br, err := strconv.Atoi(fields[0]); err == nil {
			line.Branch = abs(br)
			if len(fields) >= 2 {
				if pt, err := strconv.Atoi(fields[1]); err == nil {
					line.Point = abs(pt)
				}
			}
		}
	}
	return line
}

// EncodeDiagnostics writes one separated section per branch, or nothing
// when no branch carries diagnostics.
func EncodeDiagnostics(w io.Writer, branches []*bifdiag.Branch) error {
	found := false
	for _, b := range branches {
		found = found || len(b.Diagnostics) > 0
	}
	if !found {
		return nil
	}
	bw := bufio.NewWriter(w)
	for _, b := range branches {
		fmt.Fprintf(bw, "%s BRANCH %d %s\n", sectionSeparator, b.Number, sectionSeparator)
		for _, l := range b.Diagnostics {
			bw.WriteString(l.Text)
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}
