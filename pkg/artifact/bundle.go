package artifact

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"frauddetect/pkg/dataprep"
	"frauddetect/pkg/evaluation"
	"frauddetect/pkg/model"
	"frauddetect/pkg/pipeline"
)

func init() {
	gob.Register(&pipeline.Pipeline{})
	gob.Register(&pipeline.Voting{})
	gob.Register(&dataprep.OrdinalFrame{})
	gob.Register(&dataprep.ColumnTransformer{})
	gob.Register(&model.LogisticRegression{})
	gob.Register(&model.KNN{})
	gob.Register(&model.DecisionTreeClassifier{})
	gob.Register(&model.RandomForest{})
	gob.Register(&model.AdaBoost{})
	gob.Register(&model.Bagging{})
}

// Bundle is a fitted estimator with what is needed to reuse it.
type Bundle struct {
	Name      string
	RunID     string
	CreatedAt time.Time
	Schema    pipeline.Schema
	Estimator pipeline.Estimator
	Scores    evaluation.Scores
}

// Save gob-encodes b to path, creating the parent directory.
func Save(path string, b *Bundle) (err error) {
	if b == nil || b.Estimator == nil {
		return errors.New("artifact: nothing to save")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("artifact: %w", cerr)
		}
	}()
	if err := gob.NewEncoder(f).Encode(b); err != nil {
		return fmt.Errorf("artifact: encode %s: %w", path, err)
	}
	return nil
}

// Load decodes a bundle written by Save.
func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	defer f.Close()
	var b Bundle
	if err := gob.NewDecoder(f).Decode(&b); err != nil {
		return nil, fmt.Errorf("artifact: decode %s: %w", path, err)
	}
	return &b, nil
}
