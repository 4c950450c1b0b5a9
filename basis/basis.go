// Package basis fits a principal component basis to flattened feature
// vectors and projects new vectors onto it.
package basis

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-features/logging"
	"github.com/RyanBlaney/sonido-features/tableio"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNoFeatures       = errors.New("no feature vectors")
	ErrInconsistentDims = errors.New("inconsistent feature dimensions")
	ErrInvalidDims      = errors.New("invalid number of dimensions")
	ErrEigenFailed      = errors.New("eigen decomposition failed")
)

// Artifact extensions written next to the basis stem.
const (
	ScreeExt = ".scree"
	BasisExt = ".basis"
	MeanExt  = ".mean"
)

// Basis is the eigen-decomposition of the population covariance of a set of
// feature vectors. Eigenvalues are ascending and column i of Eigenvectors
// belongs to Eigenvalues[i].
type Basis struct {
	Mean         []float64
	Eigenvalues  []float64
	Eigenvectors *mat.Dense
}

// Dim is the dimensionality of the feature space.
func (b *Basis) Dim() int {
	return len(b.Mean)
}

// Fit computes the mean, the covariance normalized by N and its symmetric
// eigen-decomposition. Every vector must have the same length.
func Fit(features [][]float64) (*Basis, error) {
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	dim := len(features[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero-length feature", ErrInconsistentDims)
	}

	n := len(features)
	x := mat.NewDense(n, dim, nil)
	for i, f := range features {
		if len(f) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrInconsistentDims, i, len(f), dim)
		}
		x.SetRow(i, f)
	}

	mean := make([]float64, dim)
	col := make([]float64, n)
	for j := range dim {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
	}

	centered := mat.NewDense(n, dim, nil)
	centered.Apply(func(i, j int, v float64) float64 { return v - mean[j] }, x)

	cov := mat.NewSymDense(dim, nil)
	cov.SymOuterK(1/float64(n), centered.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return nil, ErrEigenFailed
	}

	vectors := mat.NewDense(dim, dim, nil)
	eig.VectorsTo(vectors)

	logging.Debug("Fitted basis", logging.Fields{
		"component": "basis",
		"vectors":   n,
		"dims":      dim,
	})

	return &Basis{
		Mean:         mean,
		Eigenvalues:  eig.Values(nil),
		Eigenvectors: vectors,
	}, nil
}

// Reduce projects feature - mean onto the dims components with the largest
// eigenvalues. Output order follows the ascending eigenvalue order, so the
// last coordinate belongs to the largest component.
func (b *Basis) Reduce(feature []float64, dims int) ([]float64, error) {
	d := b.Dim()
	if len(feature) != d {
		return nil, fmt.Errorf("%w: feature has %d values, basis has %d", ErrInconsistentDims, len(feature), d)
	}
	if dims < 1 || dims > d {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidDims, dims, d)
	}

	centered := mat.NewVecDense(d, nil)
	for i, v := range feature {
		centered.SetVec(i, v-b.Mean[i])
	}

	top := b.Eigenvectors.Slice(0, d, d-dims, d)
	var out mat.VecDense
	out.MulVec(top.T(), centered)

	reduced := make([]float64, dims)
	for i := range reduced {
		reduced[i] = out.AtVec(i)
	}
	return reduced, nil
}

// Save writes stem.scree, stem.basis and stem.mean.
func (b *Basis) Save(stem string) error {
	if err := tableio.SaveColumn(stem+ScreeExt, b.Eigenvalues); err != nil {
		return err
	}

	d := b.Dim()
	rows := make([][]float64, d)
	for i := range rows {
		rows[i] = mat.Row(nil, i, b.Eigenvectors)
	}
	if err := tableio.SaveCSV(stem+BasisExt, rows); err != nil {
		return err
	}

	return tableio.SaveColumn(stem+MeanExt, b.Mean)
}

// Load reads the artifacts written by Save. The scree file is optional since
// reduction only needs the basis and the mean.
func Load(stem string) (*Basis, error) {
	mean, err := tableio.LoadVector(stem + MeanExt)
	if err != nil {
		return nil, err
	}

	rows, err := tableio.LoadCSV(stem+BasisExt, 0)
	if err != nil {
		return nil, err
	}
	d := len(mean)
	if len(rows) != d || d == 0 || len(rows[0]) != d {
		return nil, fmt.Errorf("%w: basis is %d rows for a %d-value mean", ErrInconsistentDims, len(rows), d)
	}

	vectors := mat.NewDense(d, d, nil)
	for i, row := range rows {
		vectors.SetRow(i, row)
	}

	b := &Basis{Mean: mean, Eigenvectors: vectors}
	if scree, err := tableio.LoadVector(stem + ScreeExt); err == nil && len(scree) == d {
		b.Eigenvalues = scree
	}
	return b, nil
}
