// Package npy reads and writes NumPy .npy files (format version 1.0) holding
// little-endian float64 arrays of rank 0, 1 or 2. The embedding store keeps
// its persisted layout compatible with data written by numpy.save, so sample
// matrices, centroids and scalar thresholds all round-trip through this codec.
package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// ErrFormat is returned for data that is not a parseable .npy float64 array.
var ErrFormat = errors.New("invalid npy data")

func writeHeader(buf *bytes.Buffer, shape []int) {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	var shapeStr string
	switch len(shape) {
	case 0:
		shapeStr = "()"
	case 1:
		shapeStr = "(" + dims[0] + ",)"
	default:
		shapeStr = "(" + strings.Join(dims, ", ") + ")"
	}

	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': %s, }", shapeStr)

	// Pad with spaces so magic+version+len+header is a multiple of 64,
	// terminated by a newline, as numpy.save does.
	total := len(magic) + 2 + 2 + len(header) + 1
	pad := (64 - total%64) % 64
	header = header + strings.Repeat(" ", pad) + "\n"

	buf.Write(magic)
	buf.WriteByte(1) // major version
	buf.WriteByte(0) // minor version
	binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
}

// MarshalScalar encodes a single float64 as a rank-0 array.
func MarshalScalar(v float64) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, nil)
	binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
	return buf.Bytes()
}

// Marshal1D encodes a vector.
func Marshal1D(v []float64) []byte {
	var buf bytes.Buffer
	writeHeader(&buf, []int{len(v)})
	for _, x := range v {
		binary.Write(&buf, binary.LittleEndian, math.Float64bits(x))
	}
	return buf.Bytes()
}

// Marshal2D encodes a matrix in C (row-major) order. All rows must share a length.
func Marshal2D(m [][]float64) ([]byte, error) {
	cols := 0
	if len(m) > 0 {
		cols = len(m[0])
	}
	var buf bytes.Buffer
	writeHeader(&buf, []int{len(m), cols})
	for _, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("ragged matrix: row has %d columns, want %d", len(row), cols)
		}
		for _, x := range row {
			binary.Write(&buf, binary.LittleEndian, math.Float64bits(x))
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a float64 .npy payload, returning its shape and values
// in row-major order. A rank-0 array returns an empty shape and one value.
func Unmarshal(data []byte) (shape []int, values []float64, err error) {
	if len(data) < len(magic)+4 || !bytes.Equal(data[:len(magic)], magic) {
		return nil, nil, ErrFormat
	}
	if data[len(magic)] != 1 {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, data[len(magic)])
	}
	headerLen := int(binary.LittleEndian.Uint16(data[len(magic)+2:]))
	headerStart := len(magic) + 4
	if len(data) < headerStart+headerLen {
		return nil, nil, ErrFormat
	}
	header := string(data[headerStart : headerStart+headerLen])

	if !strings.Contains(header, "'<f8'") {
		return nil, nil, fmt.Errorf("%w: dtype is not little-endian float64", ErrFormat)
	}
	if strings.Contains(header, "'fortran_order': True") {
		return nil, nil, fmt.Errorf("%w: fortran order not supported", ErrFormat)
	}

	shape, err = parseShape(header)
	if err != nil {
		return nil, nil, err
	}

	body := data[headerStart+headerLen:]

	// Bound the element count by the bytes actually present, so corrupt
	// headers with huge dimensions cannot overflow or over-allocate.
	maxCount := len(body) / 8
	count := 1
	for _, d := range shape {
		if d == 0 {
			count = 0
			break
		}
		if count > maxCount/d {
			return nil, nil, fmt.Errorf("%w: truncated data", ErrFormat)
		}
		count *= d
	}
	if len(body) < count*8 {
		return nil, nil, fmt.Errorf("%w: truncated data", ErrFormat)
	}

	values = make([]float64, count)
	for i := 0; i < count; i++ {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(body[i*8:]))
	}
	return shape, values, nil
}

// UnmarshalScalar decodes a rank-0 (or single-element) array into one value.
func UnmarshalScalar(data []byte) (float64, error) {
	shape, values, err := Unmarshal(data)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("%w: expected scalar, got shape %v", ErrFormat, shape)
	}
	return values[0], nil
}

// Unmarshal1D decodes a vector.
func Unmarshal1D(data []byte) ([]float64, error) {
	shape, values, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("%w: expected rank-1 array, got shape %v", ErrFormat, shape)
	}
	return values, nil
}

// Unmarshal2D decodes a matrix into rows.
func Unmarshal2D(data []byte) ([][]float64, error) {
	shape, values, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: expected rank-2 array, got shape %v", ErrFormat, shape)
	}
	rows := make([][]float64, shape[0])
	for i := range rows {
		rows[i] = values[i*shape[1] : (i+1)*shape[1]]
	}
	return rows, nil
}

func parseShape(header string) ([]int, error) {
	open := strings.Index(header, "'shape':")
	if open < 0 {
		return nil, ErrFormat
	}
	rest := header[open:]
	lp := strings.Index(rest, "(")
	rp := strings.Index(rest, ")")
	if lp < 0 || rp < 0 || rp < lp {
		return nil, ErrFormat
	}
	inner := strings.TrimSpace(rest[lp+1 : rp])
	if inner == "" {
		return nil, nil // rank-0
	}
	parts := strings.Split(inner, ",")
	var shape []int
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue // trailing comma in 1-tuples
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: bad shape %q", ErrFormat, inner)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
