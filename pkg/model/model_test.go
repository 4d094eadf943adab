package model

import (
	"math"
	"testing"

	"frauddetect/pkg/optim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separable returns rows [v, 2v] for v in -10..10 without 0, labelled v > 0.
func separable() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for v := -10; v <= 10; v++ {
		if v == 0 {
			continue
		}
		X = append(X, []float64{float64(v), float64(2 * v)})
		label := 0
		if v > 0 {
			label = 1
		}
		y = append(y, label)
	}
	return X, y
}

func TestBalancedClassWeights(t *testing.T) {
	cw := BalancedClassWeights([]int{0, 0, 0, 1})
	assert.InDelta(t, 4.0/6, cw[0], 1e-12)
	assert.InDelta(t, 2.0, cw[1], 1e-12)
}

func TestValidate(t *testing.T) {
	_, err := validate(nil, nil, nil)
	assert.ErrorIs(t, err, errEmptyX)
	_, err = validate([][]float64{{1}}, []int{0, 1}, nil)
	assert.Error(t, err)
	_, err = validate([][]float64{{1}, {1, 2}}, []int{0, 1}, nil)
	assert.Error(t, err)
	p, err := validate([][]float64{{1, 2}}, []int{0}, []float64{1})
	require.NoError(t, err)
	assert.Equal(t, 2, p)
}

func TestDecisionTree_Threshold(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
	y := []int{0, 0, 0, 1, 1, 1}
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))

	root := tree.Root()
	require.False(t, root.Leaf)
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 6.5, root.Threshold)
	assert.False(t, root.Categorical)
	assert.Equal(t, []int{0, 1}, tree.Classes())

	assert.Equal(t, []int{0, 1}, tree.Predict([][]float64{{2.5}, {10.5}}))
	assert.Equal(t, []float64{0, 1}, tree.PredictProba([][]float64{{2.5}, {10.5}}))
}

func TestDecisionTree_MissingValuesLearnASide(t *testing.T) {
	X := [][]float64{{1}, {math.NaN()}, {10}, {11}}
	y := []int{0, 0, 1, 1}
	tree := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))

	assert.True(t, tree.Root().MissingLeft)
	assert.Equal(t, []int{0, 1}, tree.Predict([][]float64{{math.NaN()}, {12}}))
}

func TestDecisionTree_MaxDepth(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []int{0, 1, 0, 1}
	tree := NewDecisionTreeClassifier(WithMaxDepth(1), WithRandomState(1))
	require.NoError(t, tree.Fit(X, y))

	root := tree.Root()
	require.False(t, root.Leaf)
	assert.True(t, root.Left.Leaf)
	assert.True(t, root.Right.Leaf)
}

func TestDecisionTree_BalancedClassWeight(t *testing.T) {
	X := [][]float64{{0}, {0}, {0}, {0}}
	y := []int{0, 0, 0, 1}

	plain := NewDecisionTreeClassifier(WithRandomState(1))
	require.NoError(t, plain.Fit(X, y))
	assert.InDelta(t, 0.25, plain.PredictProba(X)[0], 1e-12)

	balanced := NewDecisionTreeClassifier(WithClassWeight("balanced"), WithRandomState(1))
	require.NoError(t, balanced.Fit(X, y))
	assert.InDelta(t, 0.5, balanced.PredictProba(X)[0], 1e-12)
	assert.Equal(t, 0, balanced.Predict(X)[0])
}

func TestDecisionTree_Errors(t *testing.T) {
	tree := NewDecisionTreeClassifier()
	assert.Error(t, tree.Fit(nil, nil))
	assert.Error(t, tree.FitWeighted([][]float64{{1}, {2}}, []int{0, 1}, []float64{0, 0}))
}

func TestDecisionTree_EntropyAndSqrtFeatures(t *testing.T) {
	X, y := separable()
	tree := NewDecisionTreeClassifier(WithCriterion("entropy"), WithMaxFeatures(-1), WithRandomState(7))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, y, tree.Predict(X))
}

func TestLogisticRegression_Separable(t *testing.T) {
	X := [][]float64{{-2}, {-1}, {-0.5}, {0.5}, {1}, {2}}
	y := []int{0, 0, 0, 1, 1, 1}
	m := NewLogisticRegression()
	require.NoError(t, m.Fit(X, y))

	assert.Greater(t, m.W[0], 0.0)
	assert.InDelta(t, 0, m.B, 1e-9)
	assert.Equal(t, y, m.Predict(X))
	assert.Equal(t, []int{0, 1}, m.Predict([][]float64{{-3}, {3}}))

	p := m.PredictProba([][]float64{{-1}, {0}, {1}})
	assert.Less(t, p[0], p[1])
	assert.Less(t, p[1], p[2])
	assert.InDelta(t, 0.5, p[1], 1e-9)
}

func TestLogisticRegression_ShapeError(t *testing.T) {
	m := NewLogisticRegression()
	assert.Error(t, m.Fit([][]float64{{1}}, []int{0, 1}))
}

func TestKNN_DistanceWeights(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}}
	y := []int{1, 0, 0, 1}
	m := NewKNN(3, "")
	require.NoError(t, m.Fit(X, y))
	assert.Equal(t, "distance", m.Weights)

	p := m.PredictProba([][]float64{{0}, {1.2}})
	assert.Equal(t, 1.0, p[0], "an exact match takes all the weight")
	want := (1 / 1.2) / (1/0.2 + 1/0.8 + 1/1.2)
	assert.InDelta(t, want, p[1], 1e-9)
	assert.Equal(t, []int{1, 0}, m.Predict([][]float64{{0}, {1.2}}))
}

func TestKNN_Uniform(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {10}}
	y := []int{1, 0, 0, 1}
	m := NewKNN(3, "uniform")
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, 1.0/3, m.PredictProba([][]float64{{1.2}})[0], 1e-12)

	all := NewKNN(10, "uniform")
	require.NoError(t, all.Fit(X, y))
	assert.InDelta(t, 0.5, all.PredictProba([][]float64{{1.2}})[0], 1e-12)
}

func TestKNN_Errors(t *testing.T) {
	assert.Error(t, NewKNN(0, "").Fit([][]float64{{1}}, []int{0}))
	assert.Error(t, NewKNN(1, "cosine").Fit([][]float64{{1}}, []int{0}))
}

func TestRandomForest_SeededAndAccurate(t *testing.T) {
	X, y := separable()
	fit := func() *RandomForest {
		rf := NewRandomForest(WithNEstimators(10), WithForestRandomState(42), WithForestClassWeight("balanced"))
		require.NoError(t, rf.Fit(X, y))
		return rf
	}
	a, b := fit(), fit()
	require.Len(t, a.Trees, 10)

	query := [][]float64{{-20, -40}, {20, 40}, {-3, -6}, {4, 8}}
	assert.Equal(t, a.PredictProba(query), b.PredictProba(query))
	assert.Equal(t, []int{0, 1}, a.Predict(query[:2]))
}

func TestBagging(t *testing.T) {
	X, y := separable()
	bg := NewBagging(NewDecisionTreeClassifier(WithCriterion("entropy")), 5)
	bg.RandomState = 3
	require.NoError(t, bg.Fit(X, y))
	require.Len(t, bg.Trees, 5)
	assert.Equal(t, []int{0, 1}, bg.Predict([][]float64{{-20, -40}, {20, 40}}))
	assert.Error(t, NewBagging(nil, 0).Fit(X, y))
}

func TestAdaBoost_PerfectFirstLearnerStops(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []int{0, 0, 1, 1}
	ab := NewAdaBoost(nil, 30)
	ab.RandomState = 0
	require.NoError(t, ab.Fit(X, y))

	require.Len(t, ab.Trees, 1)
	assert.Equal(t, []float64{1}, ab.Alphas)
	assert.Equal(t, y, ab.Predict(X))
	p := ab.PredictProba(X)
	assert.InDelta(t, optim.Sigmoid(1), p[3], 1e-12)
	assert.InDelta(t, optim.Sigmoid(-1), p[0], 1e-12)
}

func TestAdaBoost_ChanceLearnerFails(t *testing.T) {
	X := [][]float64{{0}, {0}, {0}, {0}}
	y := []int{0, 1, 0, 1}
	ab := NewAdaBoost(nil, 10)
	assert.Error(t, ab.Fit(X, y))
}

func TestClassifiersSatisfyWeightedFitter(t *testing.T) {
	var _ WeightedFitter = NewDecisionTreeClassifier()
	var _ WeightedFitter = NewRandomForest()
	var _ WeightedFitter = NewAdaBoost(nil, 1)
	var _ WeightedFitter = NewBagging(nil, 1)
	var _ WeightedFitter = NewLogisticRegression()
	var _ Classifier = NewKNN(1, "")
}
