package atomic

// covalentRadii holds single-bond covalent radii (Å) for the elements
// AtomFill's hydrogen passivation and bond-length heuristics need; atomic
// numbers outside this table fall back to defaultCovalentRadius. Values are
// the standard Cordero et al. single-bond radii.
var covalentRadii = map[int16]float64{
	1:  0.31, // H
	5:  0.84, // B
	6:  0.76, // C
	7:  0.71, // N
	8:  0.66, // O
	9:  0.57, // F
	13: 1.21, // Al
	14: 1.11, // Si
	15: 1.07, // P
	16: 1.05, // S
	17: 1.02, // Cl
	31: 1.22, // Ga
	32: 1.20, // Ge
	33: 1.19, // As
	34: 1.20, // Se
	49: 1.42, // In
	50: 1.39, // Sn
	51: 1.39, // Sb
}

const defaultCovalentRadius = 0.7

// CovalentRadius returns the single-bond covalent radius, in Angstroms, for
// the given atomic number, falling back to defaultCovalentRadius for
// elements outside the table.
func CovalentRadius(atomicNumber int16) float64 {
	if r, ok := covalentRadii[atomicNumber]; ok {
		return r
	}
	return defaultCovalentRadius
}

// elementSymbols is the standard IUPAC periodic table, indexed by atomic
// number (index 0 unused). xyzio uses it for the element-symbol column of
// the XYZ format.
var elementSymbols = [...]string{
	"", "H", "He", "Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar", "K", "Ca",
	"Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr", "Rb", "Sr", "Y", "Zr",
	"Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd", "In", "Sn",
	"Sb", "Te", "I", "Xe", "Cs", "Ba", "La", "Ce", "Pr", "Nd",
	"Pm", "Sm", "Eu", "Gd", "Tb", "Dy", "Ho", "Er", "Tm", "Yb",
	"Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt", "Au", "Hg",
	"Tl", "Pb", "Bi", "Po", "At", "Rn", "Fr", "Ra", "Ac", "Th",
	"Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf", "Es", "Fm",
	"Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

var symbolToAtomicNumber = func() map[string]int16 {
	m := make(map[string]int16, len(elementSymbols))
	for z, sym := range elementSymbols {
		if sym != "" {
			m[sym] = int16(z)
		}
	}
	return m
}()

// Symbol returns the element symbol for atomicNumber, or "" if it's out of
// the table's 1-118 range (including the DeletedSiteAtomicNumber sentinel).
func Symbol(atomicNumber int16) string {
	if atomicNumber < 1 || int(atomicNumber) >= len(elementSymbols) {
		return ""
	}
	return elementSymbols[atomicNumber]
}

// AtomicNumberForSymbol looks up an element symbol, case-sensitively as
// written (e.g. "Cl", not "CL").
func AtomicNumberForSymbol(symbol string) (int16, bool) {
	z, ok := symbolToAtomicNumber[symbol]
	return z, ok
}
