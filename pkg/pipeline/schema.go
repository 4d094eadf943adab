package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"frauddetect/pkg/data"
)

// Schema describes the feature columns an estimator was trained on.
type Schema struct {
	FeatureNames []string
	Types        []string // gota type names: "int", "float", "string", "bool"
	Numeric      []string
	Categorical  []string
}

// SchemaOf records the columns of X and their numeric/categorical grouping.
func SchemaOf(X dataframe.DataFrame) Schema {
	num, cat := data.NumCatColumns(X)
	types := make([]string, 0, X.Ncol())
	for _, t := range X.Types() {
		types = append(types, string(t))
	}
	return Schema{
		FeatureNames: X.Names(),
		Types:        types,
		Numeric:      num,
		Categorical:  cat,
	}
}

// Check reports the first schema column missing from X.
func (s Schema) Check(X dataframe.DataFrame) error {
	have := make(map[string]struct{}, X.Ncol())
	for _, n := range X.Names() {
		have[n] = struct{}{}
	}
	for _, n := range s.FeatureNames {
		if _, ok := have[n]; !ok {
			return fmt.Errorf("schema: column %s missing", n)
		}
	}
	return nil
}
