package dataprep

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"frauddetect/pkg/stats"
)

var errNotFitted = errors.New("not fitted")

// ColumnTransformer mean-imputes and standardizes the numeric columns, then
// appends the one-hot encoding of the categorical columns. Other columns are dropped.
type ColumnTransformer struct {
	NumCols []string
	CatCols []string

	Fill    []float64
	Scaler  *stats.StandardScaler
	Encoder *OneHotEncoder
	Fitted  bool
}

func NewColumnTransformer(num, cat []string) *ColumnTransformer {
	return &ColumnTransformer{NumCols: num, CatCols: cat}
}

func (c *ColumnTransformer) Fit(df dataframe.DataFrame) error {
	if len(c.NumCols) > 0 {
		cols, err := numericColumns(df, c.NumCols)
		if err != nil {
			return err
		}
		c.Fill = make([]float64, len(cols))
		for j, col := range cols {
			filled, fill, err := Impute(col, Mean)
			if err != nil {
				return err
			}
			c.Fill[j] = fill
			cols[j] = filled
		}
		c.Scaler = stats.NewStandardScaler()
		if err := c.Scaler.Fit(toRows(cols, df.Nrow())); err != nil {
			return fmt.Errorf("column transformer: %w", err)
		}
	}
	if len(c.CatCols) > 0 {
		c.Encoder = NewOneHotEncoder(c.CatCols)
		if err := c.Encoder.Fit(df); err != nil {
			return fmt.Errorf("column transformer: %w", err)
		}
	}
	c.Fitted = true
	return nil
}

func (c *ColumnTransformer) Transform(df dataframe.DataFrame) ([][]float64, error) {
	if !c.Fitted {
		return nil, fmt.Errorf("column transformer: %w", errNotFitted)
	}
	out := newRows(df.Nrow(), 0)
	if c.Scaler != nil {
		cols, err := numericColumns(df, c.NumCols)
		if err != nil {
			return nil, err
		}
		for j := range cols {
			cols[j] = fillNaN(cols[j], c.Fill[j])
		}
		scaled, err := c.Scaler.Transform(toRows(cols, df.Nrow()))
		if err != nil {
			return nil, fmt.Errorf("column transformer: %w", err)
		}
		out = scaled
	}
	if c.Encoder != nil {
		oh, err := c.Encoder.Transform(df)
		if err != nil {
			return nil, fmt.Errorf("column transformer: %w", err)
		}
		for i := range out {
			out[i] = append(out[i], oh[i]...)
		}
	}
	return out, nil
}

// FeatureNames lists the numeric columns followed by the one-hot indicator names.
func (c *ColumnTransformer) FeatureNames() []string {
	names := append([]string{}, c.NumCols...)
	if c.Encoder != nil {
		names = append(names, c.Encoder.FeatureNames()...)
	}
	return names
}

func numericColumns(df dataframe.DataFrame, names []string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		s := df.Col(name)
		if s.Err != nil {
			return nil, fmt.Errorf("column %s: %w", name, s.Err)
		}
		cols[j] = s.Float()
	}
	return cols, nil
}

// toRows transposes column slices into n rows.
func toRows(cols [][]float64, n int) [][]float64 {
	out := newRows(n, len(cols))
	for j, col := range cols {
		for i, v := range col {
			out[i][j] = v
		}
	}
	return out
}
