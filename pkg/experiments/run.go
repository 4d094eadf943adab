package experiments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"frauddetect/pkg/artifact"
	"frauddetect/pkg/data"
	"frauddetect/pkg/evaluation"
	"frauddetect/pkg/model"
	"frauddetect/pkg/pipeline"
)

// Env carries the inputs and sinks shared by every experiment.
type Env struct {
	DataPath   string
	ResultsDir string
	Options    data.Options
	Plots      bool
	TreeDepth  int // depth of the rendered tree, 0 disables rendering
	Out        io.Writer
	Logger     *zap.Logger
	RunID      string
}

func (env Env) withDefaults() Env {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if env.RunID == "" {
		env.RunID = uuid.NewString()
	}
	if env.ResultsDir == "" {
		env.ResultsDir = "results"
	}
	env.Logger = env.Logger.With(zap.String("run_id", env.RunID))
	return env
}

// dataset is a loaded split with integer labels.
type dataset struct {
	split    *data.Split
	yTrain   []int
	yTest    []int
	num, cat []string
	schema   pipeline.Schema
}

func load(env Env) (*dataset, error) {
	split, err := data.LoadAndSplit(env.DataPath, env.Options)
	if err != nil {
		return nil, err
	}
	yTrain, err := data.Labels(split.YTrain)
	if err != nil {
		return nil, err
	}
	yTest, err := data.Labels(split.YTest)
	if err != nil {
		return nil, err
	}
	num, cat := data.NumCatColumns(split.XTrain)
	env.Logger.Info("dataset split",
		zap.String("path", env.DataPath),
		zap.Int("train_rows", split.XTrain.Nrow()),
		zap.Int("test_rows", split.XTest.Nrow()),
		zap.Int("numeric", len(num)),
		zap.Int("categorical", len(cat)),
	)
	return &dataset{
		split:  split,
		yTrain: yTrain,
		yTest:  yTest,
		num:    num,
		cat:    cat,
		schema: pipeline.SchemaOf(split.XTrain),
	}, nil
}

// experiment describes one single-model run.
type experiment struct {
	artifact string
	build    func(num, cat []string) (pipeline.Estimator, error)
	// thresholdProba predicts proba > 0.5 instead of calling Predict.
	thresholdProba bool
	after          func(env Env, est pipeline.Estimator) error
}

func runExperiment(ctx context.Context, env Env, exp experiment) error {
	env = env.withDefaults()
	ds, err := load(env)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	est, err := exp.build(ds.num, ds.cat)
	if err != nil {
		return err
	}
	scores, proba, err := fitAndScore(env, exp.artifact, est, ds, exp.thresholdProba)
	if err != nil {
		return err
	}
	if err := evaluation.PrintScores(env.Out, scores); err != nil {
		return err
	}
	if err := persist(env, exp.artifact, est, ds, scores, proba); err != nil {
		return err
	}
	if exp.after != nil {
		return exp.after(env, est)
	}
	return nil
}

// fitAndScore fits est on the training partition and scores it on the test partition.
func fitAndScore(env Env, name string, est pipeline.Estimator, ds *dataset, thresholdProba bool) (evaluation.Scores, []float64, error) {
	start := time.Now()
	if err := est.Fit(ds.split.XTrain, ds.yTrain); err != nil {
		return evaluation.Scores{}, nil, fmt.Errorf("%s: fit: %w", name, err)
	}
	env.Logger.Info("model fitted", zap.String("model", name), zap.Duration("took", time.Since(start)))

	proba, err := est.PredictProba(ds.split.XTest)
	if err != nil && !errors.Is(err, pipeline.ErrNoProba) {
		return evaluation.Scores{}, nil, fmt.Errorf("%s: predict proba: %w", name, err)
	}

	var pred []int
	if thresholdProba && proba != nil {
		pred = make([]int, len(proba))
		for i, p := range proba {
			if p > 0.5 {
				pred[i] = 1
			}
		}
	} else {
		pred, err = est.Predict(ds.split.XTest)
		if err != nil {
			return evaluation.Scores{}, nil, fmt.Errorf("%s: predict: %w", name, err)
		}
	}

	scores, err := evaluation.Score(ds.yTest, pred, proba)
	if err != nil {
		return evaluation.Scores{}, nil, fmt.Errorf("%s: %w", name, err)
	}
	fields := []zap.Field{
		zap.String("model", name),
		zap.Float64("precision", scores.Precision),
		zap.Float64("recall", scores.Recall),
		zap.Float64("f1", scores.F1),
	}
	if scores.AUPRC != nil {
		fields = append(fields, zap.Float64("auprc", *scores.AUPRC))
	}
	env.Logger.Info("model scored", fields...)
	return scores, proba, nil
}

// persist writes <name>.gob, <name>_metrics.json and, with plots on, <name>_pr.png.
func persist(env Env, name string, est pipeline.Estimator, ds *dataset, scores evaluation.Scores, proba []float64) error {
	path := filepath.Join(env.ResultsDir, name+".gob")
	err := artifact.Save(path, &artifact.Bundle{
		Name:      name,
		RunID:     env.RunID,
		CreatedAt: time.Now().UTC(),
		Schema:    ds.schema,
		Estimator: est,
		Scores:    scores,
	})
	if err != nil {
		return err
	}
	if err := evaluation.SaveMetrics(filepath.Join(env.ResultsDir, name+"_metrics.json"), scores); err != nil {
		return err
	}
	env.Logger.Info("artifact saved", zap.String("model", name), zap.String("path", path))

	if env.Plots && len(proba) > 0 {
		plot := filepath.Join(env.ResultsDir, name+"_pr.png")
		if err := evaluation.PlotPRCurve(plot, ds.yTest, proba); err != nil {
			return err
		}
		env.Logger.Debug("pr curve saved", zap.String("path", plot))
	}
	return nil
}

func runLogistic(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "logistic_pipeline",
		build: func(num, cat []string) (pipeline.Estimator, error) {
			return BuildLogisticPipeline(num, cat), nil
		},
		thresholdProba: true,
	})
}

func runRandomForest(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "random_forest",
		build: func(_, _ []string) (pipeline.Estimator, error) {
			return pipeline.NewPipeline(nil, BuildRandomForest()), nil
		},
	})
}

func runKNN(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "knn_pipeline",
		build: func(num, cat []string) (pipeline.Estimator, error) {
			return BuildKNNPipeline(num, cat, 5, "distance"), nil
		},
	})
}

func runTree(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "tree",
		build: func(_, _ []string) (pipeline.Estimator, error) {
			return pipeline.NewPipeline(nil, BuildTree()), nil
		},
		after: renderTree,
	})
}

// renderTree draws the top TreeDepth levels of a fitted tree pipeline to tree.svg.
func renderTree(env Env, est pipeline.Estimator) error {
	if env.TreeDepth <= 0 {
		return nil
	}
	p, ok := est.(*pipeline.Pipeline)
	if !ok {
		return nil
	}
	tree, ok := p.Model.(*model.DecisionTreeClassifier)
	if !ok {
		return nil
	}
	path := filepath.Join(env.ResultsDir, "tree.svg")
	if err := artifact.RenderTree(tree, p.FeatureNames(), env.TreeDepth, path); err != nil {
		return err
	}
	env.Logger.Info("tree rendered", zap.String("path", path), zap.Int("depth", env.TreeDepth))
	return nil
}

func runAdaBoost(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "adaboost",
		build: func(_, _ []string) (pipeline.Estimator, error) {
			return pipeline.NewPipeline(nil, BuildAdaBoost(BuildTree(), 30)), nil
		},
	})
}

func runBagging(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "bagging",
		build: func(_, _ []string) (pipeline.Estimator, error) {
			return pipeline.NewPipeline(nil, BuildBagging(BuildTree(), 10)), nil
		},
	})
}

func runVoting(ctx context.Context, env Env) error {
	return runExperiment(ctx, env, experiment{
		artifact: "voting",
		build: func(num, cat []string) (pipeline.Estimator, error) {
			return votingEnsemble(num, cat)
		},
	})
}

// votingEnsemble is soft voting over logistic regression and a random forest.
func votingEnsemble(num, cat []string) (*pipeline.Voting, error) {
	return BuildVoting([]pipeline.Named{
		{Name: "lr", Estimator: BuildLogisticPipeline(num, cat)},
		{Name: "rf", Estimator: pipeline.NewPipeline(nil, BuildRandomForest())},
	}, "soft", nil)
}

// RunAll trains every default builder, then the logistic + random forest
// voting ensemble, on one split. ctx is checked between models.
func RunAll(ctx context.Context, env Env) error {
	env = env.withDefaults()
	ds, err := load(env)
	if err != nil {
		return err
	}

	for _, b := range DefaultBuilders() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Training %s ...\n", b.Name)
		est := b.Build(ds.num, ds.cat)
		scores, proba, err := fitAndScore(env, b.Name, est, ds, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Results for %s:\n", b.Name)
		if err := evaluation.PrintScores(env.Out, scores); err != nil {
			return err
		}
		if err := persist(env, b.Name, est, ds, scores, proba); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Training voting ensemble ...")
	vc, err := votingEnsemble(ds.num, ds.cat)
	if err != nil {
		return err
	}
	scores, proba, err := fitAndScore(env, "voting", vc, ds, false)
	if err != nil {
		return err
	}
	if err := evaluation.PrintScores(env.Out, scores); err != nil {
		return err
	}
	return persist(env, "voting", vc, ds, scores, proba)
}

// Columns reports the numeric and categorical groups of the training features.
func Columns(env Env) (num, cat []string, err error) {
	env = env.withDefaults()
	ds, err := load(env)
	if err != nil {
		return nil, nil, err
	}
	return ds.num, ds.cat, nil
}

// ExportSplit writes the chronological split under dir as .npy files.
func ExportSplit(env Env, dir string) error {
	env = env.withDefaults()
	split, err := data.LoadAndSplit(env.DataPath, env.Options)
	if err != nil {
		return err
	}
	if err := artifact.ExportSplit(dir, split); err != nil {
		return err
	}
	env.Logger.Info("split exported", zap.String("dir", dir))
	return nil
}

// Rescore loads the bundle at path and scores it on the test partition of the
// current split. The split must carry every column the bundle was trained on.
func Rescore(ctx context.Context, env Env, path string) (evaluation.Scores, error) {
	env = env.withDefaults()
	b, err := artifact.Load(path)
	if err != nil {
		return evaluation.Scores{}, err
	}
	ds, err := load(env)
	if err != nil {
		return evaluation.Scores{}, err
	}
	if err := ctx.Err(); err != nil {
		return evaluation.Scores{}, err
	}
	if err := b.Schema.Check(ds.split.XTest); err != nil {
		return evaluation.Scores{}, fmt.Errorf("%s: %w", b.Name, err)
	}

	proba, err := b.Estimator.PredictProba(ds.split.XTest)
	if err != nil && !errors.Is(err, pipeline.ErrNoProba) {
		return evaluation.Scores{}, fmt.Errorf("%s: predict proba: %w", b.Name, err)
	}
	pred, err := b.Estimator.Predict(ds.split.XTest)
	if err != nil {
		return evaluation.Scores{}, fmt.Errorf("%s: predict: %w", b.Name, err)
	}
	scores, err := evaluation.Score(ds.yTest, pred, proba)
	if err != nil {
		return evaluation.Scores{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	env.Logger.Info("bundle rescored",
		zap.String("model", b.Name),
		zap.String("trained_run_id", b.RunID),
		zap.Time("trained_at", b.CreatedAt),
		zap.Float64("f1", scores.F1),
	)
	fmt.Fprintf(env.Out, "Results for %s:\n", b.Name)
	return scores, evaluation.PrintScores(env.Out, scores)
}
