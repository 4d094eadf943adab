package dataprep

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LabelEncode encodes categories as integers in order of first appearance.
func LabelEncode(data []string) ([]int, map[string]int) {
	unique := map[string]int{}
	out := make([]int, len(data))
	for i, v := range data {
		if _, ok := unique[v]; !ok {
			unique[v] = len(unique)
		}
		out[i] = unique[v]
	}
	return out, unique
}

// OneHotEncoder expands string columns into one indicator per sorted category.
// Categories not seen during Fit encode as all zeros. Missing cells are their own category.
type OneHotEncoder struct {
	Columns    []string
	Categories [][]string
	Fitted     bool
}

func NewOneHotEncoder(cols []string) *OneHotEncoder { return &OneHotEncoder{Columns: cols} }

func (e *OneHotEncoder) Fit(df dataframe.DataFrame) error {
	e.Categories = make([][]string, len(e.Columns))
	for j, name := range e.Columns {
		vals, err := stringColumn(df, name)
		if err != nil {
			return err
		}
		_, unique := LabelEncode(vals)
		cats := make([]string, 0, len(unique))
		for c := range unique {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	e.Fitted = true
	return nil
}

// Transform returns one row per record with the indicator columns of every encoded column.
func (e *OneHotEncoder) Transform(df dataframe.DataFrame) ([][]float64, error) {
	if !e.Fitted {
		return nil, fmt.Errorf("onehot: %w", errNotFitted)
	}
	width := 0
	for _, cats := range e.Categories {
		width += len(cats)
	}
	out := newRows(df.Nrow(), width)
	offset := 0
	for j, name := range e.Columns {
		vals, err := stringColumn(df, name)
		if err != nil {
			return nil, err
		}
		cats := e.Categories[j]
		for i, v := range vals {
			if k := sort.SearchStrings(cats, v); k < len(cats) && cats[k] == v {
				out[i][offset+k] = 1
			}
		}
		offset += len(cats)
	}
	return out, nil
}

// FeatureNames returns column_category for every indicator.
func (e *OneHotEncoder) FeatureNames() []string {
	if !e.Fitted {
		return nil
	}
	var names []string
	for j, name := range e.Columns {
		for _, c := range e.Categories[j] {
			names = append(names, name+"_"+c)
		}
	}
	return names
}

// OrdinalFrame turns every column of a frame into a float feature without scaling.
// Numeric columns pass through with NaN kept, booleans become 0/1 and strings get
// the ordinal code learned at Fit. Unseen or missing strings become NaN.
type OrdinalFrame struct {
	Columns []string
	Types   []series.Type
	Codes   map[string]map[string]int
	Fitted  bool
}

func NewOrdinalFrame() *OrdinalFrame { return &OrdinalFrame{} }

func (o *OrdinalFrame) Fit(df dataframe.DataFrame) error {
	o.Columns = df.Names()
	o.Types = df.Types()
	o.Codes = map[string]map[string]int{}
	for j, name := range o.Columns {
		if o.Types[j] != series.String {
			continue
		}
		s := df.Col(name)
		present := make([]string, 0, s.Len())
		for i, v := range s.Records() {
			if !s.Elem(i).IsNA() {
				present = append(present, v)
			}
		}
		_, codes := LabelEncode(present)
		o.Codes[name] = codes
	}
	o.Fitted = true
	return nil
}

func (o *OrdinalFrame) Transform(df dataframe.DataFrame) ([][]float64, error) {
	if !o.Fitted {
		return nil, fmt.Errorf("ordinal: %w", errNotFitted)
	}
	out := newRows(df.Nrow(), len(o.Columns))
	for j, name := range o.Columns {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("ordinal: %w", s.Err)
		}
		if o.Types[j] != series.String {
			for i, v := range s.Float() {
				out[i][j] = v
			}
			continue
		}
		codes := o.Codes[name]
		for i, v := range s.Records() {
			code, ok := codes[v]
			if !ok || s.Elem(i).IsNA() {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = float64(code)
		}
	}
	return out, nil
}

func (o *OrdinalFrame) FeatureNames() []string { return o.Columns }

func stringColumn(df dataframe.DataFrame, name string) ([]string, error) {
	s := df.Col(name)
	if s.Err != nil {
		return nil, fmt.Errorf("column %s: %w", name, s.Err)
	}
	return s.Records(), nil
}

func newRows(n, width int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, width)
	}
	return out
}
