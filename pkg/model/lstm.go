package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	nn "salesforecast/pkg/NeuralNetwork"
	"salesforecast/pkg/core"
	"salesforecast/pkg/data"
	"salesforecast/pkg/loader"
	"salesforecast/pkg/optim"
)

// LSTM is a single-layer long short-term memory network with a dense
// output unit. Each sample is a window of SeqLen consecutive feature rows
// ending at the row being predicted; windows reaching before the first row
// are zero-padded.
//
// Gates are stacked in the order input, forget, cell, output: W is
// 4H x F, U is 4H x H and B has 4H entries.
type LSTM struct {
	Units        int
	Epochs       int
	BatchSize    int
	LearningRate float64
	SeqLen       int
	Activation   string // cell and hidden activation
	Optimizer    string // "adam" or "sgd"
	Seed         int64

	Features  int
	W         *core.Matrix
	U         *core.Matrix
	B         []float64
	Dense     []float64
	DenseBias float64
	Loss      []float64 // mean training loss per epoch
}

// LSTMOption functional config for LSTM
type LSTMOption func(*LSTM)

func WithUnits(n int) LSTMOption                 { return func(m *LSTM) { m.Units = n } }
func WithEpochs(n int) LSTMOption                { return func(m *LSTM) { m.Epochs = n } }
func WithBatchSize(n int) LSTMOption             { return func(m *LSTM) { m.BatchSize = n } }
func WithLSTMLearningRate(lr float64) LSTMOption { return func(m *LSTM) { m.LearningRate = lr } }
func WithSeqLen(n int) LSTMOption                { return func(m *LSTM) { m.SeqLen = n } }
func WithSeed(seed int64) LSTMOption             { return func(m *LSTM) { m.Seed = seed } }
func WithOptimizer(name string) LSTMOption       { return func(m *LSTM) { m.Optimizer = name } }

func NewLSTM(opts ...LSTMOption) *LSTM {
	m := &LSTM{
		Units:        50,
		Epochs:       20,
		BatchSize:    32,
		LearningRate: 0.001,
		SeqLen:       1,
		Activation:   "relu",
		Optimizer:    "adam",
		Seed:         42,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *LSTM) Name() string { return KindLSTM }

// stepCache keeps what backprop needs from one time step.
type stepCache struct {
	x, hPrev, cPrev []float64
	i, f, g, o      []float64
	zg, c           []float64
}

// parameter blocks handed to the optimizer
const (
	paramW = iota
	paramU
	paramB
	paramDense
	paramDenseBias
)

func (m *LSTM) init(features int, rng *rand.Rand) {
	h := m.Units
	m.Features = features
	glorot := func(fanIn, fanOut int) func(float64) float64 {
		limit := math.Sqrt(6 / float64(fanIn+fanOut))
		return func(float64) float64 { return (rng.Float64()*2 - 1) * limit }
	}
	m.W = core.NewMatrix(4*h, features)
	m.W.Apply(glorot(features, 4*h))
	m.U = core.NewMatrix(4*h, h)
	m.U.Apply(glorot(h, 4*h))
	m.B = make([]float64, 4*h)
	for k := h; k < 2*h; k++ {
		m.B[k] = 1
	}
	dense := core.NewMatrix(1, h)
	dense.Apply(glorot(h, 1))
	m.Dense = dense.Data
	m.DenseBias = 0
}

func (m *LSTM) activation() nn.Activation {
	if a, ok := nn.Lookup(m.Activation); ok {
		return a
	}
	a, _ := nn.Lookup("relu")
	return a
}

// window flattens the SeqLen rows ending at row i.
func (m *LSTM) window(X [][]float64, i int) []float64 {
	F := m.Features
	out := make([]float64, m.SeqLen*F)
	for t := 0; t < m.SeqLen; t++ {
		src := i - m.SeqLen + 1 + t
		if src >= 0 {
			copy(out[t*F:(t+1)*F], X[src])
		}
	}
	return out
}

// forward runs one window and returns the output, the last hidden state
// and the per-step cache. proj, when non-nil, holds W*x for each step and
// seq may be nil.
func (m *LSTM) forward(seq []float64, proj [][]float64, keep bool) (float64, []float64, []stepCache) {
	h := m.Units
	act := m.activation()
	hPrev := make([]float64, h)
	cPrev := make([]float64, h)
	var cache []stepCache
	if keep {
		cache = make([]stepCache, 0, m.SeqLen)
	}
	for t := 0; t < m.SeqLen; t++ {
		var x []float64
		if seq != nil {
			x = seq[t*m.Features : (t+1)*m.Features]
		}
		z := make([]float64, 4*h)
		copy(z, m.B)
		if proj != nil {
			for k, v := range proj[t] {
				z[k] += v
			}
		} else {
			_ = m.W.MulVecAdd(z, x)
		}
		_ = m.U.MulVecAdd(z, hPrev)

		ig, fg, gg, og := make([]float64, h), make([]float64, h), make([]float64, h), make([]float64, h)
		c, hNew := make([]float64, h), make([]float64, h)
		for k := 0; k < h; k++ {
			ig[k] = nn.Sigmoid(z[k])
			fg[k] = nn.Sigmoid(z[h+k])
			gg[k] = act.F(z[2*h+k])
			og[k] = nn.Sigmoid(z[3*h+k])
			c[k] = fg[k]*cPrev[k] + ig[k]*gg[k]
			hNew[k] = og[k] * act.F(c[k])
		}
		if keep {
			cache = append(cache, stepCache{
				x: x, hPrev: hPrev, cPrev: cPrev,
				i: ig, f: fg, g: gg, o: og,
				zg: z[2*h : 3*h], c: c,
			})
		}
		hPrev, cPrev = hNew, c
	}
	y := m.DenseBias
	for k, w := range m.Dense {
		y += w * hPrev[k]
	}
	return y, hPrev, cache
}

type lstmGrads struct {
	W, U      *core.Matrix
	B, Dense  []float64
	DenseBias float64
}

func (m *LSTM) newGrads() *lstmGrads {
	return &lstmGrads{
		W:     core.NewMatrix(m.W.R, m.W.C),
		U:     core.NewMatrix(m.U.R, m.U.C),
		B:     make([]float64, len(m.B)),
		Dense: make([]float64, len(m.Dense)),
	}
}

// backward accumulates the gradients of one window given dL/dy.
func (m *LSTM) backward(dy float64, hLast []float64, cache []stepCache, g *lstmGrads) {
	h := m.Units
	act := m.activation()
	g.DenseBias += dy
	dh := make([]float64, h)
	for k := range dh {
		g.Dense[k] += dy * hLast[k]
		dh[k] = dy * m.Dense[k]
	}
	dc := make([]float64, h)
	dz := make([]float64, 4*h)
	for t := len(cache) - 1; t >= 0; t-- {
		s := cache[t]
		for k := 0; k < h; k++ {
			ac := act.F(s.c[k])
			dc[k] += dh[k] * s.o[k] * act.Prime(s.c[k])
			do := dh[k] * ac
			di := dc[k] * s.g[k]
			dgg := dc[k] * s.i[k]
			df := dc[k] * s.cPrev[k]
			dz[k] = di * s.i[k] * (1 - s.i[k])
			dz[h+k] = df * s.f[k] * (1 - s.f[k])
			dz[2*h+k] = dgg * act.Prime(s.zg[k])
			dz[3*h+k] = do * s.o[k] * (1 - s.o[k])
			dc[k] *= s.f[k]
		}
		_ = g.W.AddOuter(dz, s.x)
		_ = g.U.AddOuter(dz, s.hPrev)
		for k, v := range dz {
			g.B[k] += v
		}
		clear(dh)
		_ = m.U.MulTVecAdd(dh, dz)
	}
}

func (m *LSTM) Fit(X [][]float64, y []float64) error {
	if err := checkXY("lstm", X, y); err != nil {
		return err
	}
	if m.Units <= 0 || m.SeqLen <= 0 || m.BatchSize <= 0 {
		return errors.New("lstm: units, sequence length and batch size must be positive")
	}
	var opt optim.Optimizer
	switch m.Optimizer {
	case "", "adam":
		opt = optim.NewAdam(m.LearningRate)
	case "sgd":
		opt = optim.NewSGD(m.LearningRate)
	default:
		return fmt.Errorf("lstm: unknown optimizer %q", m.Optimizer)
	}
	rng := rand.New(rand.NewSource(m.Seed))
	m.init(len(X[0]), rng)

	windows := make([][]float64, len(X))
	for i := range X {
		windows[i] = m.window(X, i)
	}

	m.Loss = m.Loss[:0]
	for ep := 0; ep < m.Epochs; ep++ {
		samples := make(chan data.Sample, m.BatchSize)
		batches := make(chan data.Batch, 1)
		data.StreamSamples(windows, y, loader.ShuffleIndices(len(windows), rng), samples)
		data.Batcher(samples, m.BatchSize, batches)

		total := 0.0
		for batch := range batches {
			total += m.trainBatch(batch, opt) * float64(len(batch.Y))
		}
		m.Loss = append(m.Loss, total/float64(len(X)))
		log.Debugf("lstm epoch %d/%d loss %.6f", ep+1, m.Epochs, m.Loss[ep])
		if math.IsNaN(m.Loss[ep]) {
			return fmt.Errorf("lstm: loss diverged at epoch %d", ep+1)
		}
	}
	return nil
}

func (m *LSTM) trainBatch(batch data.Batch, opt optim.Optimizer) float64 {
	n := len(batch.Y)
	preds := make([]float64, n)
	lasts := make([][]float64, n)
	caches := make([][]stepCache, n)
	for i, seq := range batch.X {
		preds[i], lasts[i], caches[i] = m.forward(seq, nil, true)
	}
	loss, dy := nn.MSE(batch.Y, preds)

	g := m.newGrads()
	for i := range batch.X {
		m.backward(dy[i], lasts[i], caches[i], g)
	}
	opt.Step(paramW, m.W.Data, g.W.Data)
	opt.Step(paramU, m.U.Data, g.U.Data)
	opt.Step(paramB, m.B, g.B)
	opt.Step(paramDense, m.Dense, g.Dense)
	bias := []float64{m.DenseBias}
	opt.Step(paramDenseBias, bias, []float64{g.DenseBias})
	m.DenseBias = bias[0]
	return loss
}

// Predict runs every row's window through the network, split across CPU
// cores. Input projections are computed for all rows up front.
func (m *LSTM) Predict(X [][]float64) []float64 {
	if len(X) == 0 || m.W == nil {
		return nil
	}
	proj, err := core.MatMul(core.FromSlice(X), m.W.Transpose())
	if err != nil {
		return nil
	}
	zero := make([]float64, 4*m.Units)
	pred := make([]float64, len(X))
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			steps := make([][]float64, m.SeqLen)
			for i := s; i < e; i++ {
				for t := range steps {
					src := i - m.SeqLen + 1 + t
					if src >= 0 {
						steps[t] = proj.Row(src)
					} else {
						steps[t] = zero
					}
				}
				pred[i], _, _ = m.forward(nil, steps, false)
			}
		}(s, e)
	}
	wg.Wait()
	return pred
}
