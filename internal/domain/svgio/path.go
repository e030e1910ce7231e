package svgio

import (
	"strconv"

	"github.com/latticeforge/kernel/pkg/errors"
	"github.com/latticeforge/kernel/pkg/types"
)

// subpath is one moveto-started run of points within a <path> "d" attribute,
// mirroring csgrs's PathBuilder: a path is closed once a "Z"/"z" command is
// seen, and the next drawing command after a closed, 2+-point path starts a
// fresh subpath at the current position.
type subpath struct {
	points []types.Vec2
	closed bool
}

type pathBuilder struct {
	paths []*subpath
}

func (b *pathBuilder) pos() types.Vec2 {
	if len(b.paths) == 0 {
		return types.Vec2{}
	}
	last := b.paths[len(b.paths)-1]
	if len(last.points) == 0 {
		return types.Vec2{}
	}
	return last.points[len(last.points)-1]
}

func (b *pathBuilder) moveTo(p types.Vec2) {
	b.paths = append(b.paths, &subpath{points: []types.Vec2{p}})
}

func (b *pathBuilder) moveBy(d types.Vec2) {
	b.moveTo(b.pos().Add(d))
}

// current returns the subpath to extend, starting a new one (at the current
// position) if the last subpath is already closed with at least two points.
func (b *pathBuilder) current() (*subpath, error) {
	if len(b.paths) > 0 {
		last := b.paths[len(b.paths)-1]
		if last.closed && len(last.points) >= 2 {
			b.paths = append(b.paths, &subpath{points: []types.Vec2{b.pos()}})
		}
	}
	if len(b.paths) == 0 {
		return nil, errors.New(errors.CodeSVGParseError, "path data extends a subpath before any moveto")
	}
	return b.paths[len(b.paths)-1], nil
}

func (b *pathBuilder) lineTo(p types.Vec2) error {
	sp, err := b.current()
	if err != nil {
		return err
	}
	sp.points = append(sp.points, p)
	return nil
}

func (b *pathBuilder) lineBy(d types.Vec2) error { return b.lineTo(b.pos().Add(d)) }

func (b *pathBuilder) hlineTo(x float64) error {
	return b.lineTo(types.Vec2{X: x, Y: b.pos().Y})
}

func (b *pathBuilder) hlineBy(dx float64) error {
	pos := b.pos()
	return b.lineTo(types.Vec2{X: pos.X + dx, Y: pos.Y})
}

func (b *pathBuilder) vlineTo(y float64) error {
	return b.lineTo(types.Vec2{X: b.pos().X, Y: y})
}

func (b *pathBuilder) vlineBy(dy float64) error {
	pos := b.pos()
	return b.lineTo(types.Vec2{X: pos.X, Y: pos.Y + dy})
}

func (b *pathBuilder) close() error {
	sp, err := b.current()
	if err != nil {
		return err
	}
	sp.closed = true
	return nil
}

// unimplementedCommands yield IoError::Unimplemented in the original; curves
// and arcs are never rasterized into polygon vertices here.
var unimplementedCommands = map[byte]string{
	'C': "cubic curveto", 'c': "cubic curveby",
	'S': "smooth cubic curveto", 's': "smooth cubic curveby",
	'Q': "quadratic curveto", 'q': "quadratic curveby",
	'T': "smooth quadratic curveto", 't': "smooth quadratic curveby",
	'A': "elliptical arc to", 'a': "elliptical arc by",
}

// parsePathData parses an SVG <path> "d" attribute's moveto/lineto/
// horizontal-line/vertical-line/close commands into subpaths.
func parsePathData(d string) ([]*subpath, error) {
	b := &pathBuilder{}
	s := &scanner{src: d}
	for {
		s.skipSep()
		if s.eof() {
			break
		}
		cmd := s.next()
		if msg, unimpl := unimplementedCommands[cmd]; unimpl {
			return nil, errors.New(errors.CodeSVGParseError, "unimplemented SVG path command: "+msg)
		}
		relative := cmd >= 'a' && cmd <= 'z'

		switch upper(cmd) {
		case 'M':
			first := true
			for {
				x, y, ok, err := s.tryPair()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				if first {
					if relative {
						b.moveBy(types.Vec2{X: x, Y: y})
					} else {
						b.moveTo(types.Vec2{X: x, Y: y})
					}
					first = false
					continue
				}
				// Follow-up coordinate pairs after M/m are implicit linetos.
				if relative {
					if err := b.lineBy(types.Vec2{X: x, Y: y}); err != nil {
						return nil, err
					}
				} else if err := b.lineTo(types.Vec2{X: x, Y: y}); err != nil {
					return nil, err
				}
			}
		case 'L':
			for {
				x, y, ok, err := s.tryPair()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				if relative {
					err = b.lineBy(types.Vec2{X: x, Y: y})
				} else {
					err = b.lineTo(types.Vec2{X: x, Y: y})
				}
				if err != nil {
					return nil, err
				}
			}
		case 'H':
			for {
				v, ok, err := s.tryNumber()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				if relative {
					err = b.hlineBy(v)
				} else {
					err = b.hlineTo(v)
				}
				if err != nil {
					return nil, err
				}
			}
		case 'V':
			for {
				v, ok, err := s.tryNumber()
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				if relative {
					err = b.vlineBy(v)
				} else {
					err = b.vlineTo(v)
				}
				if err != nil {
					return nil, err
				}
			}
		case 'Z':
			if err := b.close(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.New(errors.CodeSVGParseError, "unknown SVG path command: "+string(cmd))
		}
	}
	return b.paths, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// scanner walks an SVG path-data or points-list string, tolerating the
// format's optional commas and run-together negative numbers (e.g. "1-2").
type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.src) }

func (s *scanner) next() byte {
	c := s.src[s.pos]
	s.pos++
	return c
}

func (s *scanner) skipSep() {
	for !s.eof() {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' {
			s.pos++
			continue
		}
		break
	}
}

// tryNumber attempts to scan one float at the current position, returning
// ok=false (without consuming input) if the next byte can't start a number.
func (s *scanner) tryNumber() (float64, bool, error) {
	s.skipSep()
	if s.eof() {
		return 0, false, nil
	}
	start := s.pos
	i := s.pos
	if s.src[i] == '+' || s.src[i] == '-' {
		i++
	}
	digitsStart := i
	for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
		i++
	}
	if i < len(s.src) && s.src[i] == '.' {
		i++
		for i < len(s.src) && s.src[i] >= '0' && s.src[i] <= '9' {
			i++
		}
	}
	if i == digitsStart || (i == digitsStart+1 && s.src[digitsStart] == '.') {
		return 0, false, nil
	}
	if i < len(s.src) && (s.src[i] == 'e' || s.src[i] == 'E') {
		j := i + 1
		if j < len(s.src) && (s.src[j] == '+' || s.src[j] == '-') {
			j++
		}
		if j < len(s.src) && s.src[j] >= '0' && s.src[j] <= '9' {
			for j < len(s.src) && s.src[j] >= '0' && s.src[j] <= '9' {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(s.src[start:i], 64)
	if err != nil {
		return 0, false, errors.New(errors.CodeSVGParseError, "malformed number in SVG path/points data: "+s.src[start:i])
	}
	s.pos = i
	return v, true, nil
}

func (s *scanner) tryPair() (float64, float64, bool, error) {
	x, ok, err := s.tryNumber()
	if err != nil || !ok {
		return 0, 0, false, err
	}
	s.skipSep()
	y, ok, err := s.tryNumber()
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		return 0, 0, false, errors.New(errors.CodeSVGParseError, "SVG path command expected a coordinate pair")
	}
	return x, y, true, nil
}

// parsePointsList parses the "points" attribute of <polygon>/<polyline>.
func parsePointsList(points string) ([]types.Vec2, error) {
	s := &scanner{src: points}
	var out []types.Vec2
	for {
		x, y, ok, err := s.tryPair()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, types.Vec2{X: x, Y: y})
	}
	if len(out) == 0 {
		return nil, errors.New(errors.CodeSVGParseError, "points attribute has no coordinate pairs")
	}
	return out, nil
}
