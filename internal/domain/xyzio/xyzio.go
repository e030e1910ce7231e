package xyzio

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// Read parses a standard XYZ document into a fresh atomic.AtomicStructure.
// The atom-count line decides how many records are read after the comment
// line: fewer records than that, or a blank line in their place, is an
// error, and any lines after the last counted record are ignored.
func Read(doc string) (*atomic.AtomicStructure, error) {
	scanner := bufio.NewScanner(strings.NewReader(doc))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return nil, errors.New(errors.CodeXYZParseError, "empty XYZ document")
	}
	countLine := strings.TrimSpace(scanner.Text())
	count, err := strconv.Atoi(countLine)
	if err != nil {
		return nil, errors.New(errors.CodeXYZParseError, "malformed atom count line: "+countLine)
	}

	if !scanner.Scan() {
		return nil, errors.New(errors.CodeXYZParseError, "XYZ document missing comment line")
	}
	// Comment line is read and discarded; spec.md's format carries no
	// structured metadata in it.

	structure := atomic.New()
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, errors.New(errors.CodeXYZParseError,
				fmt.Sprintf("expected %d atom lines, found %d", count, i)).
				WithDetail("XYZ atom count line did not match the number of atom records present")
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil, errors.New(errors.CodeXYZParseError,
				fmt.Sprintf("blank line where atom record %d was expected", i+1))
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, errors.New(errors.CodeXYZParseError, "malformed atom record: "+line)
		}

		atomicNumber, err := parseSpecies(fields[0])
		if err != nil {
			return nil, err
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		z, errZ := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil || errZ != nil {
			return nil, errors.New(errors.CodeXYZParseError, "malformed coordinates in atom record: "+line)
		}

		structure.AddAtom(atomicNumber, types.Vec3{X: x, Y: y, Z: z})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.CodeXYZParseError, "error scanning XYZ document").WithCause(err)
	}
	return structure, nil
}

// parseSpecies accepts either an element symbol ("C") or a bare atomic
// number ("6"), so round trips of files this package wrote and files
// written by tools that literally emit "Z" both work.
func parseSpecies(field string) (int16, error) {
	if z, ok := atomic.AtomicNumberForSymbol(field); ok {
		return z, nil
	}
	if n, err := strconv.Atoi(field); err == nil {
		return int16(n), nil
	}
	return 0, errors.New(errors.CodeXYZParseError, "unrecognized element symbol or atomic number: "+field)
}

// Write renders structure as a standard XYZ document: atom count, a
// generated comment line, then one "Symbol x y z" line per live atom in
// ascending id order. Bonds, selection state, and the frame transform are
// not part of the XYZ format and are silently dropped, matching spec.md §6
// ("No bonds are preserved on round trip").
func Write(structure *atomic.AtomicStructure, comment string) string {
	atoms := structure.Atoms()

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d\n", len(atoms))
	sb.WriteString(comment)
	sb.WriteString("\n")

	for _, a := range atoms {
		symbol := atomic.Symbol(a.AtomicNumber)
		if symbol == "" {
			symbol = strconv.Itoa(int(a.AtomicNumber))
		}
		fmt.Fprintf(&sb, "%s %s %s %s\n", symbol,
			formatCoord(a.Position.X), formatCoord(a.Position.Y), formatCoord(a.Position.Z))
	}
	return sb.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
