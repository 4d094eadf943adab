package data

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func floats(t *testing.T, df dataframe.DataFrame, col string) []float64 {
	t.Helper()
	return df.Col(col).Float()
}

func TestLoadAndSplit_SortsByTime(t *testing.T) {
	path := writeCSV(t,
		"Time,V1,V2,Class",
		"3,0.3,1.3,1",
		"1,0.1,1.1,0",
		"2,0.2,1.2,0",
	)
	opts := DefaultOptions()
	opts.TestSize = 0.34

	split, err := LoadAndSplit(path, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, split.XTrain.Nrow())
	assert.Equal(t, 2, split.XTest.Nrow())
	assert.Equal(t, []float64{1}, floats(t, split.XTrain, "Time"))
	assert.Equal(t, []float64{2, 3}, floats(t, split.XTest, "Time"))
	assert.Equal(t, []string{"Time", "V1", "V2"}, split.XTrain.Names())

	yTrain, err := Labels(split.YTrain)
	require.NoError(t, err)
	yTest, err := Labels(split.YTest)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, yTrain)
	assert.Equal(t, []int{0, 1}, yTest)
}

func TestLoadAndSplit_StableForEqualTimes(t *testing.T) {
	path := writeCSV(t,
		"Time,id,Class",
		"5,a,0",
		"1,b,0",
		"5,c,1",
		"1,d,1",
		"5,e,0",
	)
	opts := DefaultOptions()
	opts.TestSize = 0.5

	split, err := LoadAndSplit(path, opts)
	require.NoError(t, err)

	got := append(split.XTrain.Col("id").Records(), split.XTest.Col("id").Records()...)
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, got)
	assert.Equal(t, 2, split.XTrain.Nrow())
}

func TestLoadAndSplit_NoTimeColumnKeepsInputOrder(t *testing.T) {
	path := writeCSV(t,
		"V1,Class",
		"9,0",
		"3,1",
		"7,0",
		"1,0",
		"5,1",
	)
	split, err := LoadAndSplit(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []float64{9, 3, 7, 1}, floats(t, split.XTrain, "V1"))
	assert.Equal(t, []float64{5}, floats(t, split.XTest, "V1"))
}

func TestLoadAndSplit_MissingTimeValuesSortLast(t *testing.T) {
	path := writeCSV(t,
		"Time,Class",
		",0",
		"2,1",
		"1,0",
	)
	opts := DefaultOptions()
	opts.TestSize = 0.5

	split, err := LoadAndSplit(path, opts)
	require.NoError(t, err)

	require.Equal(t, 1, split.XTrain.Nrow())
	assert.Equal(t, []float64{1}, floats(t, split.XTrain, "Time"))
	test := floats(t, split.XTest, "Time")
	require.Len(t, test, 2)
	assert.Equal(t, 2.0, test[0])
	assert.True(t, split.XTest.Col("Time").Elem(1).IsNA())
}

func TestLoadAndSplit_DatasetNotFound(t *testing.T) {
	split, err := LoadAndSplit("data/raw/does_not_exist.csv", DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, split)
	assert.True(t, errors.Is(err, ErrDatasetNotFound))

	var nf *DatasetNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "data/raw/does_not_exist.csv", nf.Path)
	assert.Contains(t, err.Error(), "data/raw/does_not_exist.csv")
	assert.Contains(t, err.Error(), "update the path")
}

func TestLoadAndSplit_DirectoryIsNotADataset(t *testing.T) {
	_, err := LoadAndSplit(t.TempDir(), DefaultOptions())
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestLoadAndSplit_MissingTargetColumn(t *testing.T) {
	path := writeCSV(t,
		"Time,V1,Class",
		"1,0.5,0",
	)
	opts := DefaultOptions()
	opts.Target = "NotAColumn"

	split, err := LoadAndSplit(path, opts)
	assert.Nil(t, split)
	assert.ErrorIs(t, err, ErrMissingTargetColumn)

	var mt *MissingTargetColumnError
	require.True(t, errors.As(err, &mt))
	assert.Equal(t, "NotAColumn", mt.Column)
	assert.False(t, errors.Is(err, ErrDatasetNotFound))
}

func TestLoadAndSplit_HeaderOnly(t *testing.T) {
	path := writeCSV(t, "Time,V1,Class")

	split, err := LoadAndSplit(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, split.XTrain.Nrow())
	assert.Equal(t, 0, split.XTest.Nrow())
	assert.Equal(t, 0, split.YTrain.Len())
	assert.Equal(t, 0, split.YTest.Len())
}

func TestLoadAndSplit_EmptyFileHasNoTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadAndSplit(path, DefaultOptions())
	assert.ErrorIs(t, err, ErrMissingTargetColumn)
}

func TestLoadAndSplit_Idempotent(t *testing.T) {
	path := writeCSV(t,
		"Time,V1,city,Class",
		"4,1.5,x,0",
		"2,2.5,y,1",
		"3,3.5,x,0",
		"1,4.5,z,1",
		"5,5.5,y,0",
	)
	first, err := LoadAndSplit(path, DefaultOptions())
	require.NoError(t, err)
	second, err := LoadAndSplit(path, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.XTrain.Records(), second.XTrain.Records())
	assert.Equal(t, first.XTest.Records(), second.XTest.Records())
	assert.Equal(t, first.YTrain.Records(), second.YTrain.Records())
	assert.Equal(t, first.YTest.Records(), second.YTest.Records())
}

func TestLoadAndSplit_ColumnTypesOverride(t *testing.T) {
	path := writeCSV(t,
		"Time,zip,Class",
		"1,02139,0",
		"2,10001,1",
	)
	opts := DefaultOptions()
	opts.ColumnTypes = map[string]series.Type{"zip": series.String}

	split, err := LoadAndSplit(path, opts)
	require.NoError(t, err)
	num, cat := NumCatColumns(split.XTrain)
	assert.Equal(t, []string{"Time"}, num)
	assert.Equal(t, []string{"zip"}, cat)
}

func TestSplitFrame_Properties(t *testing.T) {
	ratios := []float64{0.01, 0.2, 0.25, 0.34, 0.5, 0.9, 0.99}
	for n := 0; n <= 23; n++ {
		times := make([]float64, n)
		labels := make([]int, n)
		for i := range times {
			times[i] = float64((i * 7) % 5)
			labels[i] = i % 2
		}
		df := dataframe.New(
			series.New(times, series.Float, "Time"),
			series.New(labels, series.Int, "Class"),
		)
		for _, r := range ratios {
			split, err := SplitFrame(df, Options{Target: "Class", TimeColumn: "Time", TestSize: r})
			require.NoError(t, err)

			train, test := split.XTrain.Nrow(), split.XTest.Nrow()
			assert.Equal(t, n, train+test, "n=%d r=%v", n, r)
			assert.Equal(t, Cut(n, r), train, "n=%d r=%v", n, r)
			assert.Equal(t, train, split.YTrain.Len())
			assert.Equal(t, test, split.YTest.Len())

			all := append(split.XTrain.Col("Time").Float(), split.XTest.Col("Time").Float()...)
			for i := 1; i < len(all); i++ {
				assert.LessOrEqual(t, all[i-1], all[i], "n=%d r=%v", n, r)
			}
		}
	}
}

func TestSplitFrame_DegenerateRatios(t *testing.T) {
	df := dataframe.New(
		series.New([]int{1, 2, 3, 4}, series.Int, "Time"),
		series.New([]int{0, 1, 0, 1}, series.Int, "Class"),
	)
	cases := []struct {
		ratio     float64
		wantTrain int
	}{
		{0, 4},
		{1, 0},
		{-0.5, 4},
		{1.5, 0},
	}
	for _, tc := range cases {
		split, err := SplitFrame(df, Options{Target: "Class", TimeColumn: "Time", TestSize: tc.ratio})
		require.NoError(t, err)
		assert.Equal(t, tc.wantTrain, split.XTrain.Nrow(), "ratio=%v", tc.ratio)
		assert.Equal(t, 4-tc.wantTrain, split.XTest.Nrow(), "ratio=%v", tc.ratio)
	}
}

func TestSplitFrame_StringTimeColumn(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"2024-03-01", "2024-01-15", "2024-02-10"}, series.String, "Time"),
		series.New([]int{1, 0, 0}, series.Int, "Class"),
	)
	split, err := SplitFrame(df, Options{Target: "Class", TimeColumn: "Time", TestSize: 0.34})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-15"}, split.XTrain.Col("Time").Records())
	assert.Equal(t, []string{"2024-02-10", "2024-03-01"}, split.XTest.Col("Time").Records())
}

func TestCut(t *testing.T) {
	assert.Equal(t, 1, Cut(3, 0.34))
	assert.Equal(t, 8, Cut(10, 0.2))
	assert.Equal(t, 0, Cut(0, 0.2))
	assert.Equal(t, 0, Cut(5, 2))
	assert.Equal(t, 5, Cut(5, -1))
}

func TestLabels_RejectsMissing(t *testing.T) {
	s := series.New([]string{"1", "NaN", "0"}, series.Float, "Class")
	_, err := Labels(s)
	assert.Error(t, err)
}

func TestLoadAndSplit_ByteOrderMarkHeader(t *testing.T) {
	path := writeCSV(t,
		"\ufeffTime,V1,Class",
		"3,0.3,1",
		"1,0.1,0",
		"2,0.2,0",
	)
	opts := DefaultOptions()
	opts.TestSize = 0.34

	split, err := LoadAndSplit(path, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Time", "V1"}, split.XTrain.Names())
	assert.Equal(t, []float64{0.1}, floats(t, split.XTrain, "V1"))
	assert.Equal(t, []float64{0.2, 0.3}, floats(t, split.XTest, "V1"))
}

func TestLoadAndSplit_TargetOnlyTable(t *testing.T) {
	path := writeCSV(t, "Class", "0", "1", "0", "1", "0")

	split, err := LoadAndSplit(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, split.XTrain.Ncol())
	assert.Equal(t, 0, split.XTest.Ncol())

	yTrain, err := Labels(split.YTrain)
	require.NoError(t, err)
	yTest, err := Labels(split.YTest)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1}, yTrain)
	assert.Equal(t, []int{0}, yTest)
}

func TestLoadRaw_AllMissingColumnIsNumeric(t *testing.T) {
	path := writeCSV(t,
		"Time,empty,V1,Class",
		"1,,0.1,0",
		"2,NA,0.2,1",
		"3,,0.3,0",
	)
	df, err := LoadRaw(path, nil)
	require.NoError(t, err)
	assert.Equal(t, series.Float, df.Col("empty").Type())

	num, cat := NumCatColumns(df.Drop("Class"))
	assert.Equal(t, []string{"Time", "empty", "V1"}, num)
	assert.Empty(t, cat)
}

func TestLoadRaw_AllMissingColumnKeepsOverride(t *testing.T) {
	path := writeCSV(t,
		"Time,note,Class",
		"1,,0",
		"2,,1",
	)
	df, err := LoadRaw(path, map[string]series.Type{"note": series.String})
	require.NoError(t, err)
	assert.Equal(t, series.String, df.Col("note").Type())
}

func TestLoadRaw_ShortRowsArePadded(t *testing.T) {
	path := writeCSV(t,
		"Time,Class,V1",
		"1,0,0.1",
		"2,1",
		"3,0,0.3",
	)
	df, err := LoadRaw(path, nil)
	require.NoError(t, err)
	require.Equal(t, 3, df.Nrow())
	assert.True(t, df.Col("V1").Elem(1).IsNA())
	assert.Equal(t, 0.3, df.Col("V1").Elem(2).Float())
}

func TestLoadRaw_WideRowFails(t *testing.T) {
	path := writeCSV(t,
		"Time,Class",
		"1,0",
		"2,1,9",
	)
	_, err := LoadRaw(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 fields")
}
