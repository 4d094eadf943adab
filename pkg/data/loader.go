package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrDatasetNotFound reports a source path that does not resolve to a readable file.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrMissingTargetColumn reports a target column absent from the loaded table.
	ErrMissingTargetColumn = errors.New("target column not found")
)

// DatasetNotFoundError carries the offending path.
type DatasetNotFoundError struct {
	Path string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("data file not found: %s. Put the dataset in data/raw/ or update the path", e.Path)
}

func (e *DatasetNotFoundError) Is(target error) bool { return target == ErrDatasetNotFound }

// MissingTargetColumnError carries the requested column name.
type MissingTargetColumnError struct {
	Column string
}

func (e *MissingTargetColumnError) Error() string {
	return fmt.Sprintf("target column '%s' not found in dataset", e.Column)
}

func (e *MissingTargetColumnError) Is(target error) bool { return target == ErrMissingTargetColumn }

// missingValues are the cell spellings treated as NA on load.
var missingValues = []string{"", "NA", "NaN", "<nil>"}

// Options configures LoadAndSplit.
type Options struct {
	Target     string
	TimeColumn string
	TestSize   float64
	// ColumnTypes forces the type of the named columns instead of detecting it.
	ColumnTypes map[string]series.Type
}

// DefaultOptions mirrors the credit-card dataset layout.
func DefaultOptions() Options {
	return Options{
		Target:     "Class",
		TimeColumn: "Time",
		TestSize:   0.2,
	}
}

// Split holds the four co-indexed partitions of a chronological split.
type Split struct {
	XTrain dataframe.DataFrame
	XTest  dataframe.DataFrame
	YTrain series.Series
	YTest  series.Series
}

// LoadRaw loads the CSV file at path into a DataFrame.
// A missing path fails with a DatasetNotFoundError before anything is read.
// A leading byte-order mark is dropped, short rows are padded with missing
// cells and a column with no present value is typed Float.
func LoadRaw(path string, columnTypes map[string]series.Type) (dataframe.DataFrame, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return dataframe.DataFrame{}, &DatasetNotFoundError{Path: path}
	}

	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	if err := padRecords(records); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv %s: %w", path, err)
	}

	switch len(records) {
	case 0:
		return dataframe.DataFrame{}, nil
	case 1:
		// gota refuses header-only input, so build the zero-row frame by hand.
		cols := make([]series.Series, len(records[0]))
		for i, name := range records[0] {
			t := series.String
			if ct, ok := columnTypes[name]; ok {
				t = ct
			}
			cols[i] = series.New([]string{}, t, name)
		}
		return dataframe.New(cols...), nil
	}

	opts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingValues),
	}
	if types := withMissingColumns(records, columnTypes); len(types) > 0 {
		opts = append(opts, dataframe.WithTypes(types))
	}
	df := dataframe.LoadRecords(records, opts...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w", path, df.Err)
	}
	return df, nil
}

// LoadAndSplit loads path, orders rows by the time column and splits them
// chronologically into a training prefix and a test suffix.
func LoadAndSplit(path string, opts Options) (*Split, error) {
	df, err := LoadRaw(path, opts.ColumnTypes)
	if err != nil {
		return nil, err
	}
	return SplitFrame(df, opts)
}

// SplitFrame performs the validation, ordering and slicing steps of LoadAndSplit
// on an already loaded frame. df is not modified.
func SplitFrame(df dataframe.DataFrame, opts Options) (*Split, error) {
	if !hasColumn(df, opts.Target) {
		return nil, &MissingTargetColumnError{Column: opts.Target}
	}

	if opts.TimeColumn != "" && hasColumn(df, opts.TimeColumn) {
		df = df.Subset(chronologicalOrder(df.Col(opts.TimeColumn)))
		if df.Err != nil {
			return nil, fmt.Errorf("order by %s: %w", opts.TimeColumn, df.Err)
		}
	}

	n := df.Nrow()
	cut := Cut(n, opts.TestSize)
	train, test := span(0, cut), span(cut, n)

	y := df.Col(opts.Target)
	split := &Split{
		YTrain: y.Subset(train),
		YTest:  y.Subset(test),
	}
	// gota has no zero-column frame with rows, so a target-only table
	// yields empty feature frames next to the split labels.
	if df.Ncol() == 1 {
		return split, nil
	}
	X := df.Drop(opts.Target)
	if X.Err != nil {
		return nil, fmt.Errorf("drop %s: %w", opts.Target, X.Err)
	}
	split.XTrain = X.Subset(train)
	split.XTest = X.Subset(test)
	return split, nil
}

// Cut returns floor((1-testSize)*n) clamped to [0, n].
func Cut(n int, testSize float64) int {
	c := math.Floor((1.0 - testSize) * float64(n))
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > float64(n) {
		return n
	}
	return int(c)
}

// Labels converts a label series to ints.
func Labels(s series.Series) ([]int, error) {
	if s.Len() == 0 {
		return []int{}, nil
	}
	if s.HasNaN() {
		return nil, fmt.Errorf("label column %s has missing values", s.Name)
	}
	out, err := s.Int()
	if err != nil {
		return nil, fmt.Errorf("label column %s: %w", s.Name, err)
	}
	return out, nil
}

// padRecords fills short rows with missing cells up to the header width.
// A row wider than the header is an error.
func padRecords(records [][]string) error {
	if len(records) == 0 {
		return nil
	}
	width := len(records[0])
	for i := 1; i < len(records); i++ {
		if n := len(records[i]); n > width {
			return fmt.Errorf("record on line %d: expected %d fields, saw %d", i+1, width, n)
		}
		for len(records[i]) < width {
			records[i] = append(records[i], "")
		}
	}
	return nil
}

// withMissingColumns adds a Float type for every column whose cells are all
// missing, unless columnTypes already names it.
func withMissingColumns(records [][]string, columnTypes map[string]series.Type) map[string]series.Type {
	types := make(map[string]series.Type, len(columnTypes))
	for name, t := range columnTypes {
		types[name] = t
	}
	for j, name := range records[0] {
		if _, ok := types[name]; ok {
			continue
		}
		empty := true
		for _, row := range records[1:] {
			if !isMissing(row[j]) {
				empty = false
				break
			}
		}
		if empty {
			types[name] = series.Float
		}
	}
	return types
}

func isMissing(cell string) bool {
	for _, m := range missingValues {
		if cell == m {
			return true
		}
	}
	return false
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// chronologicalOrder returns the stable ascending permutation of the time column.
// Missing values sort last.
func chronologicalOrder(s series.Series) []int {
	idx := span(0, s.Len())
	if s.Type() == series.String {
		vals := s.Records()
		sort.SliceStable(idx, func(a, b int) bool {
			va, vb := s.Elem(idx[a]), s.Elem(idx[b])
			if va.IsNA() || vb.IsNA() {
				return !va.IsNA() && vb.IsNA()
			}
			return vals[idx[a]] < vals[idx[b]]
		})
		return idx
	}
	vals := s.Float()
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := vals[idx[a]], vals[idx[b]]
		if math.IsNaN(va) || math.IsNaN(vb) {
			return !math.IsNaN(va) && math.IsNaN(vb)
		}
		return va < vb
	})
	return idx
}

func span(start, end int) []int {
	if end < start {
		end = start
	}
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}
