// Package svgio implements the SVG 2D import/export format of spec.md §6,
// grounded on csgrs/src/io/svg.rs: a subset of the SVG Paths and basic-shapes
// specs parsed into a 2D geotree.GeoNode (a Union2D of Polygon leaves), and
// the symmetric writer that emits one <path> per polygon inside a single
// top-level <g>.
package svgio
