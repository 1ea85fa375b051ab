package dataset

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"anglegrid/internal/models"
)

// Summary describes the angle distribution of a dataset.
type Summary struct {
	Count int `json:"count"`

	AlphaMin  float64 `json:"alphaMin"`
	AlphaMax  float64 `json:"alphaMax"`
	AlphaMean float64 `json:"alphaMean"`

	BetaMin  float64 `json:"betaMin"`
	BetaMax  float64 `json:"betaMax"`
	BetaMean float64 `json:"betaMean"`

	// DistinctKeys is the number of different rounded angle pairs.
	DistinctKeys int `json:"distinctKeys"`

	// Shadowed is the number of records whose rounded pair is reused by a
	// later record and therefore not reachable by navigation.
	Shadowed int `json:"shadowed"`
}

// Summarize computes a Summary over the first min(len(alphas), len(betas)) records.
func Summarize(alphas, betas []float64) Summary {
	n := len(alphas)
	if len(betas) < n {
		n = len(betas)
	}
	s := Summary{Count: n}
	if n == 0 {
		return s
	}
	alphas, betas = alphas[:n], betas[:n]

	s.AlphaMin = floats.Min(alphas)
	s.AlphaMax = floats.Max(alphas)
	s.AlphaMean = stat.Mean(alphas, nil)
	s.BetaMin = floats.Min(betas)
	s.BetaMax = floats.Max(betas)
	s.BetaMean = stat.Mean(betas, nil)

	keys := make(map[models.Key]struct{}, n)
	for i := 0; i < n; i++ {
		keys[models.KeyFor(alphas[i], betas[i])] = struct{}{}
	}
	s.DistinctKeys = len(keys)
	s.Shadowed = n - len(keys)
	return s
}
