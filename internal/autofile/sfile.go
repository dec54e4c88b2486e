package autofile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"autoctl/internal/bifdiag"
)

// sHeaderLen is the number of integers heading each solution record:
// IBR NTOT ITP LAB NFPR ISW NTPL NAR NROWPR NTST NCOL NPAR.
const sHeaderLen = 12

// valuesPerLine is the wrap width for parameter lines.
const valuesPerLine = 7

// tokenReader yields whitespace separated tokens.
type tokenReader struct {
	sc    *bufio.Scanner
	count int
}

func newTokenReader(r io.Reader) *tokenReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)
	return &tokenReader{sc: sc}
}

func (t *tokenReader) next() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	t.count++
	return t.sc.Text(), nil
}

func (t *tokenReader) ints(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		tok, err := t.next()
		if err != nil {
			return nil, err
		}
		if out[i], err = strconv.Atoi(tok); err != nil {
			return nil, fmt.Errorf("token %d: %w", t.count, err)
		}
	}
	return out, nil
}

func (t *tokenReader) floats(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		tok, err := t.next()
		if err != nil {
			return nil, err
		}
		if out[i], err = parseFloat(tok); err != nil {
			return nil, fmt.Errorf("token %d: %w", t.count, err)
		}
	}
	return out, nil
}

// ParseSolutions reads every solution record of an s-file.
func ParseSolutions(r io.Reader) ([]*bifdiag.Solution, error) {
	tr := newTokenReader(r)
	var out []*bifdiag.Solution
	for {
		start := tr.count
		hdr, err := tr.ints(sHeaderLen)
		if errors.Is(err, io.EOF) && tr.count == start {
			return out, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("solution %d header: %w", len(out)+1, err)
		}
		s, err := readRecord(tr, hdr)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("solution %d (label %d): %w", len(out)+1, hdr[3], err)
		}
		out = append(out, s)
	}
}

func readRecord(tr *tokenReader, hdr []int) (*bifdiag.Solution, error) {
	ibr, ntot, itp, lab := hdr[0], hdr[1], hdr[2], hdr[3]
	nfpr, isw, ntpl, nar := hdr[4], hdr[5], hdr[6], hdr[7]
	ntst, ncol, npar := hdr[9], hdr[10], hdr[11]
	if nfpr < 0 || ntpl < 0 || nar < 0 || npar < 0 {
		return nil, fmt.Errorf("negative size in header %v", hdr)
	}

	s := &bifdiag.Solution{
		Label:  bifdiag.Label{ID: lab, Type: bifdiag.TypeCode(itp), Branch: ibr, Point: abs(ntot)},
		Stable: ntot < 0,
		ISW:    isw,
		NTST:   ntst,
		NCOL:   ncol,
	}
	var err error
	if s.Profile, err = readRows(tr, ntpl, nar); err != nil {
		return nil, err
	}
	if s.FreeParams, err = tr.ints(nfpr); err != nil {
		return nil, err
	}
	if ntst > 0 && nar > 1 {
		if s.Derivatives, err = readRows(tr, ntpl, nar-1); err != nil {
			return nil, err
		}
	}
	if s.Params, err = tr.floats(npar); err != nil {
		return nil, err
	}
	return s, nil
}

func readRows(tr *tokenReader, rows, width int) ([][]float64, error) {
	if rows == 0 {
		return nil, nil
	}
	out := make([][]float64, rows)
	for i := range out {
		row, err := tr.floats(width)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

// ReadSolutions reads and concatenates the solution files at paths, in
// order.
func ReadSolutions(paths ...string) ([]*bifdiag.Solution, error) {
	var out []*bifdiag.Solution
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		sols, err := ParseSolutions(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, sols...)
	}
	return out, nil
}

// EncodeSolutions writes solution records in the layout ParseSolutions
// reads.
func EncodeSolutions(w io.Writer, sols []*bifdiag.Solution) error {
	bw := bufio.NewWriter(w)
	for _, s := range sols {
		encodeSolution(bw, s)
	}
	return bw.Flush()
}

func encodeSolution(w *bufio.Writer, s *bifdiag.Solution) {
	ntpl := len(s.Profile)
	nar := 0
	if ntpl > 0 {
		nar = len(s.Profile[0])
	}
	derivs := s.NTST > 0 && nar > 1 && len(s.Derivatives) == ntpl
	ntst := s.NTST
	if !derivs {
		ntst = 0
	}
	nrowpr := ntpl + 1 + (len(s.Params)+valuesPerLine-1)/valuesPerLine
	if derivs {
		nrowpr += ntpl
	}
	ntot := s.Label.Point
	if s.Stable {
		ntot = -ntot
	}
	fmt.Fprintf(w, "%5d %5d %4d %5d %4d %4d %7d %4d %7d %4d %4d %4d\n",
		s.Label.Branch, ntot, int(s.Label.Type), s.Label.ID, len(s.FreeParams),
		s.ISW, ntpl, nar, nrowpr, ntst, s.NCOL, len(s.Params))

	writeRows(w, s.Profile)
	for _, icp := range s.FreeParams {
		fmt.Fprintf(w, " %5d", icp)
	}
	w.WriteByte('\n')
	if derivs {
		writeRows(w, s.Derivatives)
	}
	for i, p := range s.Params {
		fmt.Fprintf(w, " %19.10E", p)
		if (i+1)%valuesPerLine == 0 || i == len(s.Params)-1 {
			w.WriteByte('\n')
		}
	}
}

func writeRows(w *bufio.Writer, rows [][]float64) {
	for _, row := range rows {
		for _, v := range row {
			fmt.Fprintf(w, " %19.10E", v)
		}
		w.WriteByte('\n')
	}
}
