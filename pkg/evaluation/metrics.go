package evaluation

import (
	"fmt"
	"sort"
)

// Scores are the binary classification metrics reported for the positive class.
type Scores struct {
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	AUPRC     *float64 `json:"auprc,omitempty"`
}

// Score computes precision, recall and F1 from hard predictions, and AUPRC when proba is non-nil.
func Score(yTrue, yPred []int, proba []float64) (Scores, error) {
	if len(yTrue) != len(yPred) {
		return Scores{}, fmt.Errorf("score: %d labels but %d predictions", len(yTrue), len(yPred))
	}
	var s Scores
	s.Precision, s.Recall, s.F1 = PrecisionRecallF1(yTrue, yPred)
	if proba != nil {
		ap, err := AveragePrecision(yTrue, proba)
		if err != nil {
			return Scores{}, err
		}
		s.AUPRC = &ap
	}
	return s, nil
}

// PrecisionRecallF1 treats 1 as the positive label. A zero denominator gives 0.
func PrecisionRecallF1(yTrue []int, yPred []int) (prec, rec, f1 float64) {
	tp, fp, fn := 0, 0, 0
	for i := range yTrue {
		if yPred[i] == 1 && yTrue[i] == 1 {
			tp++
		}
		if yPred[i] == 1 && yTrue[i] != 1 {
			fp++
		}
		if yPred[i] != 1 && yTrue[i] == 1 {
			fn++
		}
	}
	if tp+fp > 0 {
		prec = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		rec = float64(tp) / float64(tp+fn)
	}
	if prec+rec > 0 {
		f1 = 2 * prec * rec / (prec + rec)
	}
	return
}

// Curve holds one precision/recall point per distinct score threshold, in
// decreasing threshold order.
type Curve struct {
	Precision  []float64
	Recall     []float64
	Thresholds []float64
}

// PrecisionRecallCurve sweeps the distinct scores from high to low.
// Without positive labels every recall is 0.
func PrecisionRecallCurve(yTrue []int, proba []float64) (Curve, error) {
	if len(yTrue) != len(proba) {
		return Curve{}, fmt.Errorf("pr curve: %d labels but %d scores", len(yTrue), len(proba))
	}
	order := make([]int, len(proba))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return proba[order[a]] > proba[order[b]] })

	positives := 0
	for _, v := range yTrue {
		if v == 1 {
			positives++
		}
	}

	var c Curve
	tp, seen := 0, 0
	for k, i := range order {
		seen++
		if yTrue[i] == 1 {
			tp++
		}
		if k+1 < len(order) && proba[order[k+1]] == proba[i] {
			continue
		}
		c.Thresholds = append(c.Thresholds, proba[i])
		c.Precision = append(c.Precision, float64(tp)/float64(seen))
		r := 0.0
		if positives > 0 {
			r = float64(tp) / float64(positives)
		}
		c.Recall = append(c.Recall, r)
	}
	return c, nil
}

// AveragePrecision is sum_n (R_n - R_{n-1}) P_n over the curve, with R_0 = 0.
func AveragePrecision(yTrue []int, proba []float64) (float64, error) {
	c, err := PrecisionRecallCurve(yTrue, proba)
	if err != nil {
		return 0, err
	}
	ap, prev := 0.0, 0.0
	for n := range c.Recall {
		ap += (c.Recall[n] - prev) * c.Precision[n]
		prev = c.Recall[n]
	}
	return ap, nil
}
