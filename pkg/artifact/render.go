package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"frauddetect/pkg/model"
)

// RenderTree draws the top maxDepth levels of a fitted tree. The format is DOT when
// path ends in .dot, PNG for .png and SVG otherwise. maxDepth <= 0 draws the whole tree.
func RenderTree(tree *model.DecisionTreeClassifier, featureNames []string, maxDepth int, path string) error {
	if tree.Root() == nil {
		return fmt.Errorf("render: tree is not fitted")
	}
	g := graphviz.New()
	graph, err := g.Graph()
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer func() {
		_ = graph.Close()
		_ = g.Close()
	}()

	r := renderer{graph: graph, names: featureNames, classes: tree.Classes(), maxDepth: maxDepth}
	if _, err := r.draw(tree.Root(), 0); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	format := graphviz.SVG
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot":
		format = graphviz.XDOT
	case ".png":
		format = graphviz.PNG
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := g.RenderFilename(graph, format, path); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

type renderer struct {
	graph    *cgraph.Graph
	names    []string
	classes  []int
	maxDepth int
	next     int
}

func (r *renderer) draw(n *model.Node, depth int) (*cgraph.Node, error) {
	gn, err := r.graph.CreateNode(fmt.Sprintf("n%d", r.next))
	if err != nil {
		return nil, err
	}
	r.next++

	truncated := r.maxDepth > 0 && depth >= r.maxDepth
	if n.Leaf || truncated {
		label := r.leafLabel(n)
		if !n.Leaf {
			label = "...\n" + label
		}
		gn.Set("label", label)
		gn.Set("shape", "box")
		return gn, nil
	}

	gn.Set("label", fmt.Sprintf("%s\nsamples = %d\nimpurity = %.3f", r.condition(n), n.Samples, n.Impurity))
	for _, child := range []*model.Node{n.Left, n.Right} {
		c, err := r.draw(child, depth+1)
		if err != nil {
			return nil, err
		}
		if _, err := r.graph.CreateEdge("", gn, c); err != nil {
			return nil, err
		}
	}
	return gn, nil
}

func (r *renderer) condition(n *model.Node) string {
	name := fmt.Sprintf("x[%d]", n.Feature)
	if n.Feature < len(r.names) {
		name = r.names[n.Feature]
	}
	op := "<="
	if n.Categorical {
		op = "=="
	}
	return fmt.Sprintf("%s %s %.4g", name, op, n.Threshold)
}

func (r *renderer) leafLabel(n *model.Node) string {
	best := 0
	for i, v := range n.Value {
		if v > n.Value[best] {
			best = i
		}
	}
	class := best
	if best < len(r.classes) {
		class = r.classes[best]
	}
	return fmt.Sprintf("samples = %d\nclass = %d\np = %.3f", n.Samples, class, n.Value[best])
}
