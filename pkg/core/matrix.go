package core

import (
	"errors"
	"runtime"
	"sync"
)

var ErrDimension = errors.New("core: dimension mismatch")

// Matrix is a dense row-major matrix.
type Matrix struct {
	R, C int
	Data []float64
}

// NewMatrix allocates a zero matrix.
func NewMatrix(r, c int) *Matrix {
	return &Matrix{R: r, C: c, Data: make([]float64, r*c)}
}

// FromSlice creates a Matrix from a nested slice (copies).
func FromSlice(a [][]float64) *Matrix {
	r := len(a)
	if r == 0 {
		return &Matrix{}
	}
	c := len(a[0])
	m := NewMatrix(r, c)
	for i := 0; i < r; i++ {
		copy(m.Data[i*c:(i+1)*c], a[i])
	}
	return m
}

// At returns element (i, j)
func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.C+j] }

// Set sets element (i, j)
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.C+j] = v }

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float64 { return m.Data[i*m.C : (i+1)*m.C] }

func (m *Matrix) Clone() *Matrix {
	n := &Matrix{R: m.R, C: m.C, Data: make([]float64, len(m.Data))}
	copy(n.Data, m.Data)
	return n
}

// Zero resets every element to 0.
func (m *Matrix) Zero() {
	clear(m.Data)
}

// MulVecAdd computes dst += m * x.
func (m *Matrix) MulVecAdd(dst, x []float64) error {
	if len(x) != m.C || len(dst) != m.R {
		return ErrDimension
	}
	for i := 0; i < m.R; i++ {
		row := m.Data[i*m.C : (i+1)*m.C]
		s := 0.0
		for j, v := range row {
			s += v * x[j]
		}
		dst[i] += s
	}
	return nil
}

// MulTVecAdd computes dst += mᵀ * v.
func (m *Matrix) MulTVecAdd(dst, v []float64) error {
	if len(v) != m.R || len(dst) != m.C {
		return ErrDimension
	}
	for i := 0; i < m.R; i++ {
		vi := v[i]
		if vi == 0 {
			continue
		}
		row := m.Data[i*m.C : (i+1)*m.C]
		for j, w := range row {
			dst[j] += vi * w
		}
	}
	return nil
}

// AddOuter computes m += u * vᵀ.
func (m *Matrix) AddOuter(u, v []float64) error {
	if len(u) != m.R || len(v) != m.C {
		return ErrDimension
	}
	for i, ui := range u {
		if ui == 0 {
			continue
		}
		row := m.Data[i*m.C : (i+1)*m.C]
		for j, vj := range v {
			row[j] += ui * vj
		}
	}
	return nil
}

// MatMul returns A * B, splitting rows of A across workers.
func MatMul(A, B *Matrix) (*Matrix, error) {
	if A.C != B.R {
		return nil, ErrDimension
	}

	C := NewMatrix(A.R, B.C)
	workers := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	rowsPerWorker := (A.R + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, A.R)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(rs, re int) {
			defer wg.Done()
			for i := rs; i < re; i++ {
				for k := 0; k < A.C; k++ {
					ai := A.Data[i*A.C+k]
					for j := 0; j < B.C; j++ {
						C.Data[i*C.C+j] += ai * B.Data[k*B.C+j]
					}
				}
			}
		}(start, end)
	}
	wg.Wait()
	return C, nil
}

func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.C, m.R)
	for i := 0; i < m.R; i++ {
		for j := 0; j < m.C; j++ {
			t.Data[j*t.C+i] = m.Data[i*m.C+j]
		}
	}
	return t
}

// Apply applies f element-wise in place.
func (m *Matrix) Apply(f func(float64) float64) {
	for i := range m.Data {
		m.Data[i] = f(m.Data[i])
	}
}
