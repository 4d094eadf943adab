package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"frauddetect/pkg/dataprep"
	"frauddetect/pkg/model"
)

// Featurizer turns a frame into dense rows, fit on train and applied to both partitions.
type Featurizer interface {
	Fit(df dataframe.DataFrame) error
	Transform(df dataframe.DataFrame) ([][]float64, error)
}

// Estimator is a classifier over frames. Probabilities are p(y=1).
type Estimator interface {
	Fit(df dataframe.DataFrame, y []int) error
	Predict(df dataframe.DataFrame) ([]int, error)
	PredictProba(df dataframe.DataFrame) ([]float64, error)
}

// Pipeline chains a featurizer and a classifier.
type Pipeline struct {
	Featurizer Featurizer
	Model      model.Classifier
}

// NewPipeline uses an OrdinalFrame when f is nil.
func NewPipeline(f Featurizer, m model.Classifier) *Pipeline {
	if f == nil {
		f = dataprep.NewOrdinalFrame()
	}
	return &Pipeline{Featurizer: f, Model: m}
}

func (p *Pipeline) Fit(df dataframe.DataFrame, y []int) error {
	if df.Nrow() != len(y) {
		return fmt.Errorf("pipeline: %d rows but %d labels", df.Nrow(), len(y))
	}
	if err := p.Featurizer.Fit(df); err != nil {
		return fmt.Errorf("pipeline: fit features: %w", err)
	}
	X, err := p.Featurizer.Transform(df)
	if err != nil {
		return fmt.Errorf("pipeline: transform: %w", err)
	}
	if err := p.Model.Fit(X, y); err != nil {
		return fmt.Errorf("pipeline: fit model: %w", err)
	}
	return nil
}

func (p *Pipeline) Predict(df dataframe.DataFrame) ([]int, error) {
	X, err := p.Featurizer.Transform(df)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform: %w", err)
	}
	return p.Model.Predict(X), nil
}

func (p *Pipeline) PredictProba(df dataframe.DataFrame) ([]float64, error) {
	X, err := p.Featurizer.Transform(df)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform: %w", err)
	}
	return p.Model.PredictProba(X), nil
}

// FeatureNames returns the model input names when the featurizer knows them.
func (p *Pipeline) FeatureNames() []string {
	if n, ok := p.Featurizer.(interface{ FeatureNames() []string }); ok {
		return n.FeatureNames()
	}
	return nil
}

// ErrNoProba is returned by PredictProba of a hard-voting ensemble.
var ErrNoProba = errors.New("hard voting has no probabilities")

// Named is an ensemble member.
type Named struct {
	Name      string
	Estimator Estimator
}

// Voting combines fitted members by weighted soft or hard voting.
type Voting struct {
	Estimators []Named
	Voting     string // "soft" or "hard"
	Weights    []float64
}

// NewVoting validates the member list and weights.
func NewVoting(estimators []Named, voting string, weights []float64) (*Voting, error) {
	if len(estimators) == 0 {
		return nil, errors.New("voting: provide at least one estimator")
	}
	if voting != "soft" && voting != "hard" {
		return nil, fmt.Errorf("voting: unknown voting %q", voting)
	}
	if weights != nil && len(weights) != len(estimators) {
		return nil, fmt.Errorf("voting: %d weights for %d estimators", len(weights), len(estimators))
	}
	return &Voting{Estimators: estimators, Voting: voting, Weights: weights}, nil
}

// Fit refits every member on the same data.
func (v *Voting) Fit(df dataframe.DataFrame, y []int) error {
	for _, e := range v.Estimators {
		if err := e.Estimator.Fit(df, y); err != nil {
			return fmt.Errorf("voting: %s: %w", e.Name, err)
		}
	}
	return nil
}

func (v *Voting) weight(i int) float64 {
	if v.Weights == nil {
		return 1
	}
	return v.Weights[i]
}

// PredictProba is the weighted mean of the member probabilities.
func (v *Voting) PredictProba(df dataframe.DataFrame) ([]float64, error) {
	if v.Voting == "hard" {
		return nil, ErrNoProba
	}
	var out []float64
	total := 0.0
	for i, e := range v.Estimators {
		p, err := e.Estimator.PredictProba(df)
		if err != nil {
			return nil, fmt.Errorf("voting: %s: %w", e.Name, err)
		}
		if out == nil {
			out = make([]float64, len(p))
		}
		w := v.weight(i)
		for r, pr := range p {
			out[r] += w * pr
		}
		total += w
	}
	for r := range out {
		out[r] /= total
	}
	return out, nil
}

// Predict is p > 0.5 for soft voting and the weighted majority label for hard voting.
// Hard-voting ties go to 0.
func (v *Voting) Predict(df dataframe.DataFrame) ([]int, error) {
	if v.Voting == "soft" {
		p, err := v.PredictProba(df)
		if err != nil {
			return nil, err
		}
		out := make([]int, len(p))
		for i, pr := range p {
			if pr > 0.5 {
				out[i] = 1
			}
		}
		return out, nil
	}
	var pos, neg []float64
	for i, e := range v.Estimators {
		pred, err := e.Estimator.Predict(df)
		if err != nil {
			return nil, fmt.Errorf("voting: %s: %w", e.Name, err)
		}
		if pos == nil {
			pos, neg = make([]float64, len(pred)), make([]float64, len(pred))
		}
		for r, c := range pred {
			if c == 1 {
				pos[r] += v.weight(i)
			} else {
				neg[r] += v.weight(i)
			}
		}
	}
	out := make([]int, len(pos))
	for r := range out {
		if pos[r] > neg[r] {
			out[r] = 1
		}
	}
	return out, nil
}
