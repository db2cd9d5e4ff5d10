// parse.go -- This file is part of the hartree project.
//
//	hartree is distributed in the hope that it will be useful,
//	but WITHOUT ANY WARRANTY; without even the implied warranty
//	of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//	See the GNU General Public License for more details.
//
//	You should have received a copy of the GNU General Public License
//	along with this program.  If not, see http://www.gnu.org/licenses/
//
// ------------------------------------------------
package basis

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrBadBasisFile reports a malformed basis-set file.
var ErrBadBasisFile = fmt.Errorf("basis: bad basis file")

func readFileLines(fname string) ([]string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var result []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result, scanner.Err()
}

// ParseLibraryFile reads a basis library in block format. Each element block
// starts with a marker line "**** <Symbol>", followed by a title line, the
// shell count, and per shell a "<n> <l> <nprim>" header with nprim
// "<exponent> <coefficient>" lines.
func ParseLibraryFile(path string) (Library, error) {
	data, err := readFileLines(path)
	if err != nil {
		return nil, fmt.Errorf("basis: cannot read basis file %s: %w", path, err)
	}
	lib := Library{}
	for i := 0; i < len(data); i++ {
		words := strings.Fields(data[i])
		if len(words) < 2 || len(words[0]) < 3 || !strings.HasPrefix(words[0], "*") {
			continue
		}
		sym := CanonicalSymbol(words[1])
		if sym == "" {
			return nil, fmt.Errorf("%w: line %d: %w: %q", ErrBadBasisFile, i+1, ErrUnknownElement, words[1])
		}
		specs, next, err := parseElementBlock(data, i+2)
		if err != nil {
			return nil, fmt.Errorf("%w: element %s: %v", ErrBadBasisFile, sym, err)
		}
		lib[sym] = specs
		i = next - 1
	}
	if len(lib) == 0 {
		return nil, fmt.Errorf("%w: no element blocks in %s", ErrBadBasisFile, path)
	}
	return lib, nil
}

// CanonicalSymbol matches s against the element table without case
// sensitivity and returns the canonical spelling, or "" for no match.
func CanonicalSymbol(s string) string {
	for _, sym := range symbols[1:] {
		if strings.EqualFold(sym, s) {
			return sym
		}
	}
	return ""
}

func parseElementBlock(data []string, pos int) ([]ShellSpec, int, error) {
	if pos >= len(data) {
		return nil, pos, fmt.Errorf("truncated block")
	}
	nShells, err := strconv.Atoi(strings.Fields(data[pos])[0])
	if err != nil {
		return nil, pos, fmt.Errorf("shell count: %v", err)
	}
	pos++
	var specs []ShellSpec
	for k := 0; k < nShells; k++ {
		if pos >= len(data) {
			return nil, pos, fmt.Errorf("truncated shell header")
		}
		hdr := strings.Fields(data[pos])
		if len(hdr) < 3 {
			return nil, pos, fmt.Errorf("shell header %q", data[pos])
		}
		l, err := strconv.Atoi(hdr[1])
		if err != nil {
			return nil, pos, fmt.Errorf("angular momentum: %v", err)
		}
		nPrim, err := strconv.Atoi(hdr[2])
		if err != nil {
			return nil, pos, fmt.Errorf("primitive count: %v", err)
		}
		pos++
		spec := ShellSpec{L: l}
		for p := 0; p < nPrim; p++ {
			if pos >= len(data) {
				return nil, pos, fmt.Errorf("truncated primitives")
			}
			words := strings.Fields(data[pos])
			if len(words) < 2 {
				return nil, pos, fmt.Errorf("primitive line %q", data[pos])
			}
			zeta, err1 := strconv.ParseFloat(words[0], 64)
			coef, err2 := strconv.ParseFloat(words[1], 64)
			if err1 != nil || err2 != nil {
				return nil, pos, fmt.Errorf("primitive line %q", data[pos])
			}
			spec.Exps = append(spec.Exps, zeta)
			spec.Coefs = append(spec.Coefs, coef)
			pos++
		}
		specs = append(specs, spec)
	}
	return specs, pos, nil
}
