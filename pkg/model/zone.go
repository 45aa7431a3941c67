package model

// NoLED marks an empty matrix cell.
const NoLED = -1

// Zone is a contiguous range of a device's LEDs with a geometry.
type Zone struct {
	Name     string
	Type     ZoneType
	LEDsMin  uint32
	LEDsMax  uint32
	LEDCount int

	// Start is the index of the zone's first LED in the device LED array.
	Start int

	// Matrix is set for MATRIX zones that report a map.
	Matrix *MatrixMap

	Segments []Segment
}

// End returns one past the zone's last device-level LED index.
func (z *Zone) End() int {
	return z.Start + z.LEDCount
}

// Contains reports whether device-level LED index i belongs to the zone.
func (z *Zone) Contains(i int) bool {
	return i >= z.Start && i < z.End()
}

// HasMap reports whether the zone is a MATRIX zone with a non-empty map.
// A map with a zero dimension lays out like a strip.
func (z *Zone) HasMap() bool {
	return z.Type == ZoneMatrix && z.Matrix != nil && len(z.Matrix.Cells) > 0
}

// Columns returns the width used when laying the zone out horizontally:
// the matrix width for mapped MATRIX zones, the LED count otherwise.
func (z *Zone) Columns() int {
	if z.HasMap() {
		return z.Matrix.Width
	}
	return z.LEDCount
}

// MatrixMap is a height x width grid of device-level LED indices.
type MatrixMap struct {
	Height int
	Width  int

	// Cells is row-major; empty cells hold NoLED.
	Cells []int
}

// At returns the LED index at (row, col), or NoLED.
func (m *MatrixMap) At(row, col int) int {
	if row < 0 || row >= m.Height || col < 0 || col >= m.Width {
		return NoLED
	}
	return m.Cells[row*m.Width+col]
}

// Column returns the LED indices of column col from top to bottom,
// including NoLED cells.
func (m *MatrixMap) Column(col int) []int {
	out := make([]int, m.Height)
	for row := range out {
		out[row] = m.At(row, col)
	}
	return out
}

// Segment is a named sub-range of a zone.
type Segment struct {
	Name  string
	Type  ZoneType
	Start uint32
	Count uint32
}
