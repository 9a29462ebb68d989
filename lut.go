package darkroom

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LUT size limits. Size is the grid resolution per axis of the color cube.
const (
	MinLUTSize = 2
	MaxLUTSize = 64
)

// ErrLUTSize is returned when a color LUT has an unsupported grid size.
var ErrLUTSize = errors.New("darkroom: lut size out of range")

// ErrLUTData is returned when color LUT data does not match its stated size.
var ErrLUTData = errors.New("darkroom: lut data length mismatch")

// ColorLUT is an imported N×N×N color cube linearized into 2-D strips:
// the encoded texture is (Size·Size) wide and Size tall, with the blue axis
// selecting one of Size horizontal N×N strips. Each texel is RGBA8.
type ColorLUT struct {
	// Data is the raw RGBA8 texel data, row-major over the strip texture.
	Data []byte
	// Size is the grid resolution per axis.
	Size int
}

// Validate checks the size range and the data length against the strip
// layout.
func (l *ColorLUT) Validate() error {
	if l.Size < MinLUTSize || l.Size > MaxLUTSize {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrLUTSize, l.Size, MinLUTSize, MaxLUTSize)
	}
	want := l.Size * l.Size * l.Size * 4
	if len(l.Data) != want {
		return fmt.Errorf("%w: have %d bytes, want %d for size %d", ErrLUTData, len(l.Data), want, l.Size)
	}
	return nil
}

// stripIndex returns the byte offset of grid cell (r, g, b) in the strip
// texture. Rows run across all strips, so green is the slowest axis.
func stripIndex(size, r, g, b int) int {
	return (g*size*size + b*size + r) * 4
}

// ParseCubeLUT parses an Adobe/Resolve ".cube" text document into a
// ColorLUT. Only LUT_3D_SIZE tables are supported; 1-D cube files return an
// error. Domain min/max directives are read but must be the default [0,1]
// range.
func ParseCubeLUT(text string) (*ColorLUT, error) {
	var (
		lut   *ColorLUT
		next  int // number of data rows consumed
		size  int
		scale [2]float32 = [2]float32{0, 1}
	)
	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		fields := strings.Fields(raw)
		keyword := strings.ToUpper(fields[0])
		switch keyword {
		case "TITLE":
			continue
		case "LUT_1D_SIZE":
			return nil, errors.New("darkroom: 1-D cube files are not supported")
		case "DOMAIN_MIN", "DOMAIN_MAX":
			for _, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fmt.Errorf("darkroom: cube line %d: %w", line, err)
				}
				want := scale[0]
				if keyword == "DOMAIN_MAX" {
					want = scale[1]
				}
				if float32(v) != want {
					return nil, errors.New("darkroom: non-unit cube domain is not supported")
				}
			}
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("darkroom: cube line %d: malformed LUT_3D_SIZE", line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("darkroom: cube line %d: %w", line, err)
			}
			if n < MinLUTSize || n > MaxLUTSize {
				return nil, fmt.Errorf("%w: %d", ErrLUTSize, n)
			}
			size = n
			lut = &ColorLUT{
				Data: make([]byte, n*n*n*4),
				Size: n,
			}
		default:
			if lut == nil {
				return nil, fmt.Errorf("darkroom: cube line %d: data before LUT_3D_SIZE", line)
			}
			if len(fields) != 3 {
				return nil, fmt.Errorf("darkroom: cube line %d: want 3 components, have %d", line, len(fields))
			}
			if next >= size*size*size {
				return nil, errors.New("darkroom: cube file has too many data rows")
			}
			// Cube data orders red fastest, then green, then blue.
			r := next % size
			g := (next / size) % size
			b := next / (size * size)
			off := stripIndex(size, r, g, b)
			for c, f := range fields {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, fmt.Errorf("darkroom: cube line %d: %w", line, err)
				}
				lut.Data[off+c] = byte(clamp01(float32(v))*255 + 0.5)
			}
			lut.Data[off+3] = 0xFF
			next++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("darkroom: reading cube file: %w", err)
	}
	if lut == nil {
		return nil, errors.New("darkroom: cube file has no LUT_3D_SIZE")
	}
	if next != size*size*size {
		return nil, fmt.Errorf("darkroom: cube file has %d data rows, want %d", next, size*size*size)
	}
	return lut, nil
}
