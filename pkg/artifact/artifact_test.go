package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"frauddetect/pkg/data"
	"frauddetect/pkg/dataprep"
	"frauddetect/pkg/evaluation"
	"frauddetect/pkg/model"
	"frauddetect/pkg/pipeline"
)

func transactions() (dataframe.DataFrame, []int) {
	df := dataframe.New(
		series.New([]float64{1, 2, 3, 10, 11, 12}, series.Float, "amount"),
		series.New([]string{"a", "b", "a", "c", "c", "c"}, series.String, "merchant"),
	)
	return df, []int{0, 0, 0, 1, 1, 1}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	df, y := transactions()
	tree := pipeline.NewPipeline(nil, model.NewDecisionTreeClassifier(model.WithRandomState(1)))
	logistic := pipeline.NewPipeline(
		dataprep.NewColumnTransformer([]string{"amount"}, []string{"merchant"}),
		model.NewLogisticRegression(),
	)
	vote, err := pipeline.NewVoting([]pipeline.Named{{Name: "lr", Estimator: logistic}, {Name: "tree", Estimator: tree}}, "soft", nil)
	require.NoError(t, err)
	require.NoError(t, vote.Fit(df, y))

	want, err := vote.PredictProba(df)
	require.NoError(t, err)

	ap := 1.0
	path := filepath.Join(t.TempDir(), "results", "voting.gob")
	in := &Bundle{
		Name:      "voting",
		RunID:     "run-1",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Schema:    pipeline.SchemaOf(df),
		Estimator: vote,
		Scores:    evaluation.Scores{Precision: 1, Recall: 1, F1: 1, AUPRC: &ap},
	}
	require.NoError(t, Save(path, in))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "voting", out.Name)
	assert.Equal(t, "run-1", out.RunID)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.Schema, out.Schema)
	require.NotNil(t, out.Scores.AUPRC)
	assert.Equal(t, 1.0, *out.Scores.AUPRC)

	got, err := out.Estimator.PredictProba(df)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestSave_Nothing(t *testing.T) {
	assert.Error(t, Save(filepath.Join(t.TempDir(), "x.gob"), &Bundle{Name: "empty"}))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func readDense(t *testing.T, path string) *mat.Dense {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r, err := npyio.NewReader(f)
	require.NoError(t, err)
	m := &mat.Dense{}
	require.NoError(t, r.Read(m))
	return m
}

func readSlice(t *testing.T, path string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var v []float64
	require.NoError(t, npyio.Read(f, &v))
	return v
}

func TestExportSplit(t *testing.T) {
	df := dataframe.New(
		series.New([]int{3, 1, 2, 4}, series.Int, "Time"),
		series.New([]string{"x", "y", "x", "z"}, series.String, "city"),
		series.New([]int{1, 0, 0, 1}, series.Int, "Class"),
	)
	split, err := data.SplitFrame(df, data.Options{Target: "Class", TimeColumn: "Time", TestSize: 0.5})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "npy")
	require.NoError(t, ExportSplit(dir, split))

	xTrain := readDense(t, filepath.Join(dir, "X_train.npy"))
	r, c := xTrain.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 0}, mat.Row(nil, 0, xTrain))
	assert.Equal(t, []float64{2, 1}, mat.Row(nil, 1, xTrain))

	xTest := readDense(t, filepath.Join(dir, "X_test.npy"))
	assert.Equal(t, 3.0, xTest.At(0, 0))
	assert.Equal(t, 1.0, xTest.At(0, 1))

	assert.Equal(t, []float64{0, 0}, readSlice(t, filepath.Join(dir, "y_train.npy")))
	assert.Equal(t, []float64{1, 1}, readSlice(t, filepath.Join(dir, "y_test.npy")))
}

func TestExportSplit_EmptyTest(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1, 2}, series.Float, "V1"),
		series.New([]int{0, 1}, series.Int, "Class"),
	)
	split, err := data.SplitFrame(df, data.Options{Target: "Class", TestSize: 0})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, ExportSplit(dir, split))
	assert.Empty(t, readSlice(t, filepath.Join(dir, "y_test.npy")))
	assert.Empty(t, readSlice(t, filepath.Join(dir, "X_test.npy")))
}

func TestRenderTree(t *testing.T) {
	df, y := transactions()
	tree := model.NewDecisionTreeClassifier(model.WithRandomState(1))
	p := pipeline.NewPipeline(nil, tree)
	require.NoError(t, p.Fit(df, y))

	path := filepath.Join(t.TempDir(), "tree.dot")
	require.NoError(t, RenderTree(tree, p.FeatureNames(), 3, path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "amount")
}

func TestRenderTree_Unfitted(t *testing.T) {
	err := RenderTree(model.NewDecisionTreeClassifier(), nil, 3, filepath.Join(t.TempDir(), "t.svg"))
	assert.Error(t, err)
}
