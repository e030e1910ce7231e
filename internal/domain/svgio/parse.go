package svgio

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/latticeforge/kernel/internal/domain/geotree"
	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// minSegments matches csgrs's circle/ellipse tessellation floor: at least 6
// segments regardless of how small the radius is.
const minSegments = 6

// Parse reads an SVG document and returns the 2D geometry it describes: a
// Union2D of Polygon nodes, one per closed subpath/basic shape found at the
// top level or inside <g> groups. <line> elements and open subpaths are
// accepted but contribute nothing (spec.md §6: "ignored pending stroke
// support" / "currently discarded").
func Parse(doc string) (*geotree.GeoNode, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	var shapes []*geotree.GeoNode

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.New(errors.CodeSVGParseError, "malformed SVG XML").WithCause(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		attrs := attrMap(start)
		switch start.Name.Local {
		case "svg", "g", "desc", "title", "defs", "metadata":
			// Structural/descriptive elements: children are visited in turn
			// by the same token loop, no transform/style tracking (matching
			// the original's TODOs around group transforms and styles).
		case "path":
			d, ok := attrs["d"]
			if !ok {
				return nil, errors.New(errors.CodeSVGParseError, "<path> missing required \"d\" attribute")
			}
			subpaths, err := parsePathData(d)
			if err != nil {
				return nil, err
			}
			for _, sp := range subpaths {
				if sp.closed && len(sp.points) >= 2 {
					shapes = append(shapes, geotree.Polygon(sp.points))
				}
			}
		case "circle":
			cx, err1 := attrFloat(attrs, "cx")
			cy, err2 := attrFloat(attrs, "cy")
			r, err3 := attrFloat(attrs, "r")
			if err := firstErr(err1, err2, err3); err != nil {
				return nil, err
			}
			shapes = append(shapes, tessellateEllipse(types.Vec2{X: cx, Y: cy}, r, r))
		case "ellipse":
			cx, err1 := attrFloat(attrs, "cx")
			cy, err2 := attrFloat(attrs, "cy")
			rx, err3 := attrFloat(attrs, "rx")
			ry, err4 := attrFloat(attrs, "ry")
			if err := firstErr(err1, err2, err3, err4); err != nil {
				return nil, err
			}
			shapes = append(shapes, tessellateEllipse(types.Vec2{X: cx, Y: cy}, rx, ry))
		case "rect":
			x, err1 := attrFloat(attrs, "x")
			y, err2 := attrFloat(attrs, "y")
			w, err3 := attrFloat(attrs, "width")
			h, err4 := attrFloat(attrs, "height")
			if err := firstErr(err1, err2, err3, err4); err != nil {
				return nil, err
			}
			rx := attrFloatOr(attrs, "rx", 0)
			ry := attrFloatOr(attrs, "ry", 0)
			shapes = append(shapes, tessellateRect(x, y, w, h, (rx+ry)/2))
		case "polygon":
			points, ok := attrs["points"]
			if !ok {
				return nil, errors.New(errors.CodeSVGParseError, "<polygon> missing required \"points\" attribute")
			}
			verts, err := parsePointsList(points)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, geotree.Polygon(verts))
		case "polyline":
			// Stroke-only, no fill: validated for well-formedness but
			// discarded (spec.md §6 "ignored pending stroke support").
			if points, ok := attrs["points"]; ok {
				if _, err := parsePointsList(points); err != nil {
					return nil, err
				}
			}
		case "line":
			// Ignored outright: spec.md §6 "ignored pending stroke support".
		default:
			return nil, errors.New(errors.CodeSVGParseError, "unsupported SVG element: <"+start.Name.Local+">")
		}
	}

	return geotree.Union2D(shapes), nil
}

func attrMap(start xml.StartElement) map[string]string {
	m := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		m[a.Name.Local] = a.Value
	}
	return m
}

func attrFloat(attrs map[string]string, name string) (float64, error) {
	v, ok := attrs[name]
	if !ok {
		return 0, errors.New(errors.CodeSVGParseError, "missing required attribute \""+name+"\"")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New(errors.CodeSVGParseError, "malformed numeric attribute \""+name+"\": "+v)
	}
	return f, nil
}

func attrFloatOr(attrs map[string]string, name string, def float64) float64 {
	v, ok := attrs[name]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// tessellateEllipse approximates a circle/ellipse as a regular polygon,
// segment count matching csgrs's max(radius.ceil(), 6) floor.
func tessellateEllipse(center types.Vec2, rx, ry float64) *geotree.GeoNode {
	segments := int(math.Ceil(math.Max(rx, ry)))
	if segments < minSegments {
		segments = minSegments
	}
	verts := make([]types.Vec2, segments)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		verts[i] = types.Vec2{X: center.X + rx*math.Cos(theta), Y: center.Y + ry*math.Sin(theta)}
	}
	return geotree.Polygon(verts)
}

// tessellateRect approximates a rounded rectangle; r == 0 yields a sharp
// four-corner rectangle.
func tessellateRect(x, y, w, h, r float64) *geotree.GeoNode {
	if r <= 0 {
		return geotree.Polygon([]types.Vec2{
			{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h},
		})
	}
	if r > w/2 {
		r = w / 2
	}
	if r > h/2 {
		r = h / 2
	}
	segments := int(math.Ceil(r))
	if segments < minSegments {
		segments = minSegments
	}
	corner := func(cx, cy, fromDeg, toDeg float64) []types.Vec2 {
		pts := make([]types.Vec2, 0, segments+1)
		for i := 0; i <= segments; i++ {
			t := fromDeg + (toDeg-fromDeg)*float64(i)/float64(segments)
			theta := t * math.Pi / 180
			pts = append(pts, types.Vec2{X: cx + r*math.Cos(theta), Y: cy + r*math.Sin(theta)})
		}
		return pts
	}
	var verts []types.Vec2
	verts = append(verts, corner(x+w-r, y+r, 270, 360)...)
	verts = append(verts, corner(x+w-r, y+h-r, 0, 90)...)
	verts = append(verts, corner(x+r, y+h-r, 90, 180)...)
	verts = append(verts, corner(x+r, y+r, 180, 270)...)
	return geotree.Polygon(verts)
}
