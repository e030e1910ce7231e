package svgio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// Write renders a 2D geometry (as produced by Parse, or any Union2D-of-
// Polygon tree) to an SVG document: a single <svg> with one <g> containing
// one fill-rule="evenodd" <path> per polygon (spec.md §6). Any non-Polygon
// leaf (HalfPlane, Circle never tessellated into a Polygon, ...) is outside
// the exporter's scope, mirroring to_svg()'s "unimplemented" treatment of
// point/nested-collection geometry.
func Write(root *geotree.GeoNode) (string, error) {
	polygons, err := collectPolygons(root)
	if err != nil {
		return "", err
	}

	minX, minY, maxX, maxY := boundingRect(polygons)

	var g strings.Builder
	g.WriteString("<g>")
	for _, poly := range polygons {
		g.WriteString(pathElement(poly))
	}
	g.WriteString("</g>")

	var doc strings.Builder
	fmt.Fprintf(&doc, `<svg viewBox="%s %s %s %s" xmlns="http://www.w3.org/2000/svg">`,
		formatNum(minX), formatNum(minY), formatNum(maxX-minX), formatNum(maxY-minY))
	doc.WriteString(g.String())
	doc.WriteString("</svg>")
	return doc.String(), nil
}

// collectPolygons flattens a Union2D's direct children (the shape a Parse
// call always produces) or accepts a single bare Polygon.
func collectPolygons(root *geotree.GeoNode) ([][]types.Vec2, error) {
	if root == nil {
		return nil, nil
	}

	var leaves []*geotree.GeoNode
	if root.Kind() == geotree.KindUnion2D {
		leaves = root.Shapes()
	} else {
		leaves = []*geotree.GeoNode{root}
	}

	polygons := make([][]types.Vec2, 0, len(leaves))
	for _, leaf := range leaves {
		if leaf.Kind() != geotree.KindPolygon {
			return nil, errors.New(errors.CodeSVGParseError,
				fmt.Sprintf("SVG export only supports polygon geometry; got kind %d", leaf.Kind()))
		}
		polygons = append(polygons, leaf.Vertices())
	}
	return polygons, nil
}

func boundingRect(polygons [][]types.Vec2) (minX, minY, maxX, maxY float64) {
	minX, minY = 0, 0
	maxX, maxY = 1, 1
	first := true
	for _, poly := range polygons {
		for _, v := range poly {
			if first {
				minX, maxX = v.X, v.X
				minY, maxY = v.Y, v.Y
				first = false
				continue
			}
			minX = math.Min(minX, v.X)
			maxX = math.Max(maxX, v.X)
			minY = math.Min(minY, v.Y)
			maxY = math.Max(maxY, v.Y)
		}
	}
	return minX, minY, maxX, maxY
}

func pathElement(poly []types.Vec2) string {
	var d strings.Builder
	for i, v := range poly {
		if i == 0 {
			d.WriteString("M")
		} else {
			d.WriteString(",")
		}
		fmt.Fprintf(&d, "%s,%s", formatNum(v.X), formatNum(v.Y))
	}
	d.WriteString(" z")
	return fmt.Sprintf(`<path d="%s" fill="black" fill-rule="evenodd" stroke="none"/>`, d.String())
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
