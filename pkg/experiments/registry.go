package experiments

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Name selects a single experiment.
type Name string

const (
	Logistic     Name = "logistic"
	RandomForest Name = "rf"
	KNN          Name = "knn"
	Tree         Name = "tree"
	AdaBoost     Name = "adaboost"
	Bagging      Name = "bagging"
	Voting       Name = "voting"
)

// Allowed lists the selectable experiment names in display order.
var Allowed = []Name{Logistic, RandomForest, KNN, Tree, AdaBoost, Bagging, Voting}

// ErrInvalidModelSelector is matched by every InvalidModelSelectorError.
var ErrInvalidModelSelector = errors.New("invalid model selector")

// InvalidModelSelectorError reports a name outside Allowed.
type InvalidModelSelectorError struct {
	Name    string
	Allowed []Name
}

func (e *InvalidModelSelectorError) Error() string {
	quoted := make([]string, len(e.Allowed))
	for i, n := range e.Allowed {
		quoted[i] = "'" + string(n) + "'"
	}
	return fmt.Sprintf("Unknown model: %s. Allowed: [%s]", e.Name, strings.Join(quoted, ", "))
}

func (e *InvalidModelSelectorError) Is(target error) bool { return target == ErrInvalidModelSelector }

// Runner executes one experiment end to end.
type Runner func(ctx context.Context, env Env) error

var registry = map[Name]Runner{}

func register(name Name, r Runner) {
	if _, dup := registry[name]; dup {
		panic("experiments: duplicate runner " + string(name))
	}
	registry[name] = r
}

func init() {
	register(Logistic, runLogistic)
	register(RandomForest, runRandomForest)
	register(KNN, runKNN)
	register(Tree, runTree)
	register(AdaBoost, runAdaBoost)
	register(Bagging, runBagging)
	register(Voting, runVoting)
}

// Lookup returns the runner for name or an InvalidModelSelectorError.
func Lookup(name string) (Runner, error) {
	r, ok := registry[Name(name)]
	if !ok {
		return nil, &InvalidModelSelectorError{Name: name, Allowed: Allowed}
	}
	return r, nil
}

// Run executes the experiment registered under name.
func Run(ctx context.Context, name string, env Env) error {
	r, err := Lookup(name)
	if err != nil {
		return err
	}
	return r(ctx, env)
}
