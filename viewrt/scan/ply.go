// Package scan reads room scans stored as PLY point clouds.
package scan

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnsupportedFormat = errors.New("scan: unsupported PLY format")
	ErrEmptyCloud        = errors.New("scan: point cloud has no vertices")
)

type Format string

const (
	BinaryLittleEndian Format = "binary_little_endian"
	BinaryBigEndian    Format = "binary_big_endian"
	ASCII              Format = "ascii"
)

type Options struct {
	// FixUpAxis converts scans captured Z-up into the viewer's Y-up frame:
	// (x, y, z) -> (x, z, -y).
	FixUpAxis bool
	// KeepPoints retains positions and colours. Without it only the bounds
	// are accumulated.
	KeepPoints bool
}

// Cloud is a parsed point cloud. Colors are in [0,1] and parallel Points;
// vertices without colour properties get white.
type Cloud struct {
	Format      Format
	VertexCount int
	Bounds      core.BoundingVolume
	Points      []mgl32.Vec3
	Colors      []mgl32.Vec3
}

type property struct {
	name string
	typ  string
	// list properties carry a count type and an item type
	list      bool
	countType string
}

type header struct {
	format   Format
	vertices int
	props    []property
}

func LoadPLYFile(path string, opts Options) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return ReadPLY(f, opts)
}

func ReadPLY(r io.Reader, opts Options) (*Cloud, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	if h.vertices == 0 {
		return nil, ErrEmptyCloud
	}

	cols := columns{x: -1, y: -1, z: -1, r: -1, g: -1, b: -1}
	for i, p := range h.props {
		switch p.name {
		case "x":
			cols.x = i
		case "y":
			cols.y = i
		case "z":
			cols.z = i
		case "red", "r":
			cols.r = i
		case "green", "g":
			cols.g = i
		case "blue", "b":
			cols.b = i
		}
	}
	if cols.x < 0 || cols.y < 0 || cols.z < 0 {
		return nil, fmt.Errorf("%w: vertex element lacks x, y or z", ErrUnsupportedFormat)
	}

	var next func() ([]float64, error)
	switch h.format {
	case BinaryLittleEndian:
		next = binaryRows(br, h.props, binary.LittleEndian)
	case BinaryBigEndian:
		next = binaryRows(br, h.props, binary.BigEndian)
	case ASCII:
		for _, p := range h.props {
			if p.list {
				return nil, fmt.Errorf("%w: ascii list property %q", ErrUnsupportedFormat, p.name)
			}
		}
		next = asciiRows(br, len(h.props))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, h.format)
	}

	cloud := &Cloud{Format: h.format, VertexCount: h.vertices}
	if opts.KeepPoints {
		cloud.Points = make([]mgl32.Vec3, 0, h.vertices)
		cloud.Colors = make([]mgl32.Vec3, 0, h.vertices)
	}

	inf := float32(math.Inf(1))
	lo := mgl32.Vec3{inf, inf, inf}
	hi := mgl32.Vec3{-inf, -inf, -inf}

	for i := 0; i < h.vertices; i++ {
		row, err := next()
		if err != nil {
			return nil, fmt.Errorf("vertex %d of %d: %w", i, h.vertices, err)
		}
		p := mgl32.Vec3{float32(row[cols.x]), float32(row[cols.y]), float32(row[cols.z])}
		if opts.FixUpAxis {
			p = mgl32.Vec3{p[0], p[2], -p[1]}
		}
		for a := 0; a < 3; a++ {
			lo[a] = minf(lo[a], p[a])
			hi[a] = maxf(hi[a], p[a])
		}
		if opts.KeepPoints {
			cloud.Points = append(cloud.Points, p)
			cloud.Colors = append(cloud.Colors, cols.color(row, h.props))
		}
	}

	cloud.Bounds = core.BoundingVolume{Min: lo, Max: hi}
	return cloud, nil
}

func readHeader(br *bufio.Reader) (header, error) {
	var h header

	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return h, fmt.Errorf("%w: missing ply magic", ErrUnsupportedFormat)
	}

	inVertex := false
	seenVertex := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return h, fmt.Errorf("%w: header ends before end_header", ErrUnsupportedFormat)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return h, fmt.Errorf("%w: bad format line", ErrUnsupportedFormat)
			}
			h.format = Format(fields[1])
		case "comment", "obj_info":
		case "element":
			if len(fields) < 3 {
				return h, fmt.Errorf("%w: bad element line %q", ErrUnsupportedFormat, strings.TrimSpace(line))
			}
			inVertex = fields[1] == "vertex"
			if inVertex {
				n, err := strconv.Atoi(fields[2])
				if err != nil || n < 0 {
					return h, fmt.Errorf("%w: bad vertex count %q", ErrUnsupportedFormat, fields[2])
				}
				h.vertices = n
				seenVertex = true
			} else if !seenVertex {
				// Data is read in element order, so vertices must come first.
				return h, fmt.Errorf("%w: element %q precedes vertex", ErrUnsupportedFormat, fields[1])
			}
		case "property":
			if !inVertex {
				continue
			}
			p, err := parseProperty(fields)
			if err != nil {
				return h, err
			}
			h.props = append(h.props, p)
		case "end_header":
			if !seenVertex {
				return h, fmt.Errorf("%w: no vertex element", ErrUnsupportedFormat)
			}
			return h, nil
		}
	}
}

func parseProperty(fields []string) (property, error) {
	if len(fields) >= 5 && fields[1] == "list" {
		p := property{list: true, countType: fields[2], typ: fields[3], name: fields[4]}
		if typeSize(p.countType) == 0 || typeSize(p.typ) == 0 {
			return p, fmt.Errorf("%w: property %q", ErrUnsupportedFormat, strings.Join(fields, " "))
		}
		return p, nil
	}
	if len(fields) < 3 {
		return property{}, fmt.Errorf("%w: property %q", ErrUnsupportedFormat, strings.Join(fields, " "))
	}
	p := property{typ: fields[1], name: fields[2]}
	if typeSize(p.typ) == 0 {
		return p, fmt.Errorf("%w: property type %q", ErrUnsupportedFormat, p.typ)
	}
	return p, nil
}

func typeSize(t string) int {
	switch t {
	case "char", "uchar", "int8", "uint8":
		return 1
	case "short", "ushort", "int16", "uint16":
		return 2
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}

func binaryRows(r io.Reader, props []property, order binary.ByteOrder) func() ([]float64, error) {
	row := make([]float64, len(props))
	var buf [8]byte
	read := func(t string) (float64, error) {
		n := typeSize(t)
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return 0, err
		}
		return decode(buf[:n], t, order), nil
	}

	return func() ([]float64, error) {
		for i, p := range props {
			if p.list {
				count, err := read(p.countType)
				if err != nil {
					return nil, err
				}
				// list values are skipped; only scalar vertex properties are used
				for j := 0; j < int(count); j++ {
					if _, err := read(p.typ); err != nil {
						return nil, err
					}
				}
				row[i] = count
				continue
			}
			v, err := read(p.typ)
			if err != nil {
				return nil, err
			}
			row[i] = v
		}
		return row, nil
	}
}

func decode(b []byte, t string, order binary.ByteOrder) float64 {
	switch t {
	case "char", "int8":
		return float64(int8(b[0]))
	case "uchar", "uint8":
		return float64(b[0])
	case "short", "int16":
		return float64(int16(order.Uint16(b)))
	case "ushort", "uint16":
		return float64(order.Uint16(b))
	case "int", "int32":
		return float64(int32(order.Uint32(b)))
	case "uint", "uint32":
		return float64(order.Uint32(b))
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(b)))
	default:
		return math.Float64frombits(order.Uint64(b))
	}
}

// asciiRows reads one vertex per line of scalar values.
func asciiRows(br *bufio.Reader, n int) func() ([]float64, error) {
	row := make([]float64, n)
	return func() ([]float64, error) {
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) < n {
			return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
		}
		for i := 0; i < n; i++ {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("value %d: %w", i, err)
			}
			row[i] = v
		}
		return row, nil
	}
}

type columns struct {
	x, y, z, r, g, b int
}

func (c columns) color(row []float64, props []property) mgl32.Vec3 {
	if c.r < 0 || c.g < 0 || c.b < 0 {
		return mgl32.Vec3{1, 1, 1}
	}
	ch := func(i int) float32 {
		v := float32(row[i])
		switch props[i].typ {
		case "uchar", "uint8":
			return v / 255
		case "ushort", "uint16":
			return v / 65535
		}
		return v
	}
	return mgl32.Vec3{ch(c.r), ch(c.g), ch(c.b)}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
