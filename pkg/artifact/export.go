package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/series"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"frauddetect/pkg/data"
	"frauddetect/pkg/dataprep"
)

// ExportSplit writes X_train, X_test, y_train and y_test as .npy files under dir.
// Features are encoded by an OrdinalFrame fit on the training partition.
// An empty partition is written as an empty one-dimensional array.
func ExportSplit(dir string, split *data.Split) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	enc := dataprep.NewOrdinalFrame()
	if err := enc.Fit(split.XTrain); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	xTrain, err := enc.Transform(split.XTrain)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	xTest, err := enc.Transform(split.XTest)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	files := []struct {
		name string
		val  any
	}{
		{"X_train.npy", dense(xTrain, len(enc.Columns))},
		{"X_test.npy", dense(xTest, len(enc.Columns))},
		{"y_train.npy", labels(split.YTrain)},
		{"y_test.npy", labels(split.YTest)},
	}
	for _, f := range files {
		if err := writeNpy(filepath.Join(dir, f.name), f.val); err != nil {
			return err
		}
	}
	return nil
}

func writeNpy(path string, val any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("export: %w", cerr)
		}
	}()
	if err := npyio.Write(f, val); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// dense packs rows into a mat.Dense; gonum rejects zero-sized matrices.
func dense(rows [][]float64, cols int) any {
	if len(rows) == 0 || cols == 0 {
		return []float64{}
	}
	m := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

// labels keeps the column as float64 so missing labels survive as NaN.
func labels(s series.Series) []float64 {
	if s.Len() == 0 {
		return []float64{}
	}
	return s.Float()
}
