// Package xyzio implements standard XYZ atom-file read/write (spec.md §6),
// grounded on the atom model in
// original_source/rust/src/crystolecule/atomic_structure/mod.rs: one line
// per atom, "Symbol x y z", preceded by an atom count and a free-form
// comment line. No bonds are preserved on round trip — spec.md's open
// question of whether "Z" denotes the atomic number or the element symbol
// is resolved in favor of the symbol, since that is what every XYZ reader
// in general use actually expects (see DESIGN.md).
package xyzio
