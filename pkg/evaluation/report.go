package evaluation

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PrintScores writes one "name : value" line per metric. AUPRC is printed only when set.
func PrintScores(w io.Writer, s Scores) error {
	lines := []string{
		"precision score : " + formatFloat(s.Precision),
		"recall score : " + formatFloat(s.Recall),
		"F1 score : " + formatFloat(s.F1),
	}
	if s.AUPRC != nil {
		lines = append(lines, "AUPRC : "+formatFloat(*s.AUPRC))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// SaveMetrics writes s as indented JSON, creating the parent directory.
func SaveMetrics(path string, s Scores) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// formatFloat prints the shortest round-trip form and always keeps a decimal point.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
