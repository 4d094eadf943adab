package experiments

import (
	"frauddetect/pkg/dataprep"
	"frauddetect/pkg/model"
	"frauddetect/pkg/pipeline"
)

// seed pins every randomized builder so repeated runs produce the same models.
const seed = 42

// featurizer scales numeric and one-hot encodes categorical columns. With no
// columns at all it falls back to the ordinal encoding of the whole frame.
func featurizer(num, cat []string) pipeline.Featurizer {
	if len(num) == 0 && len(cat) == 0 {
		return dataprep.NewOrdinalFrame()
	}
	return dataprep.NewColumnTransformer(num, cat)
}

// BuildLogisticPipeline returns scaled, balanced logistic regression.
func BuildLogisticPipeline(num, cat []string) *pipeline.Pipeline {
	return pipeline.NewPipeline(featurizer(num, cat), model.NewLogisticRegression(
		model.WithLogisticClassWeight("balanced"),
		model.WithMaxIter(1000),
	))
}

// BuildKNNPipeline returns scaled k-nearest neighbours. k <= 0 means 5 and an
// empty weights means "distance".
func BuildKNNPipeline(num, cat []string, k int, weights string) *pipeline.Pipeline {
	if k <= 0 {
		k = 5
	}
	if weights == "" {
		weights = "distance"
	}
	return pipeline.NewPipeline(featurizer(num, cat), model.NewKNN(k, weights))
}

// BuildTree returns a balanced entropy tree that considers every feature.
func BuildTree() *model.DecisionTreeClassifier {
	return model.NewDecisionTreeClassifier(
		model.WithCriterion("entropy"),
		model.WithClassWeight("balanced"),
		model.WithRandomState(seed),
	)
}

// BuildRandomForest returns 200 balanced trees with sqrt feature sampling.
func BuildRandomForest() *model.RandomForest {
	return model.NewRandomForest(
		model.WithNEstimators(200),
		model.WithForestClassWeight("balanced"),
		model.WithForestRandomState(seed),
	)
}

// BuildAdaBoost boosts copies of base, a stump when nil.
func BuildAdaBoost(base *model.DecisionTreeClassifier, n int) *model.AdaBoost {
	ab := model.NewAdaBoost(base, n)
	ab.RandomState = seed
	return ab
}

// BuildBagging bags copies of base, an unpruned tree when nil.
func BuildBagging(base *model.DecisionTreeClassifier, n int) *model.Bagging {
	bg := model.NewBagging(base, n)
	bg.RandomState = seed
	return bg
}

// BuildVoting combines estimators. voting defaults to "soft".
func BuildVoting(estimators []pipeline.Named, voting string, weights []float64) (*pipeline.Voting, error) {
	if voting == "" {
		voting = "soft"
	}
	return pipeline.NewVoting(estimators, voting, weights)
}

// Builder is a named factory for an unfitted estimator over the split columns.
type Builder struct {
	Name  string
	Build func(num, cat []string) pipeline.Estimator
}

// DefaultBuilders lists the models trained by RunAll, in order.
func DefaultBuilders() []Builder {
	return []Builder{
		{Name: "logistic", Build: func(num, cat []string) pipeline.Estimator {
			return BuildLogisticPipeline(num, cat)
		}},
		{Name: "knn", Build: func(num, cat []string) pipeline.Estimator {
			return BuildKNNPipeline(num, cat, 5, "distance")
		}},
		{Name: "tree", Build: func(_, _ []string) pipeline.Estimator {
			return pipeline.NewPipeline(nil, BuildTree())
		}},
		{Name: "random_forest", Build: func(_, _ []string) pipeline.Estimator {
			return pipeline.NewPipeline(nil, BuildRandomForest())
		}},
		{Name: "adaboost", Build: func(_, _ []string) pipeline.Estimator {
			return pipeline.NewPipeline(nil, BuildAdaBoost(nil, 50))
		}},
		{Name: "bagging", Build: func(_, _ []string) pipeline.Estimator {
			return pipeline.NewPipeline(nil, BuildBagging(nil, 10))
		}},
	}
}
