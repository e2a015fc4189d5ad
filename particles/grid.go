package particles

// Grid is the particle layout derived from a captured image. The index buffer holds the
// linear particle indices in ascending order; the shaders decode an index back into a cell
// with column = index mod Columns and row = floor(index / Columns), so the two must change together.
type Grid struct {
	Columns      int
	Rows         int
	Count        int
	ParticleSize int
	Indices      []float32
}

// MaxParticles bounds a grid so every index stays exact as a float32 vertex attribute.
const MaxParticles = 1 << 24

// BuildGrid covers a width x height source with particleSize blocks. Partial blocks on the right
// and bottom edges still get one particle each.
func BuildGrid(width, height, particleSize int) (Grid, error) {
	if particleSize <= 0 || width <= 0 || height <= 0 {
		return Grid{}, &InvalidGridError{Width: width, Height: height, ParticleSize: particleSize}
	}

	cols := ceilDiv(width, particleSize)
	rows := ceilDiv(height, particleSize)
	if cols > MaxParticles || rows > MaxParticles || int64(cols)*int64(rows) > MaxParticles {
		return Grid{}, &InvalidGridError{Width: width, Height: height, ParticleSize: particleSize, TooMany: true}
	}
	count := cols * rows

	indices := make([]float32, count)
	for i := range indices {
		indices[i] = float32(i)
	}

	return Grid{
		Columns:      cols,
		Rows:         rows,
		Count:        count,
		ParticleSize: particleSize,
		Indices:      indices,
	}, nil
}

// Cell returns the column and row of the particle with the given index.
func (g Grid) Cell(index int) (col, row int) {
	return index % g.Columns, index / g.Columns
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
