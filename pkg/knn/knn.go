// Package knn implements a distance-weighted k-nearest-neighbour classifier
// over cosine distance, together with the label encoding, stratified
// train/test split and evaluation report used by the training pipeline.
package knn

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"face-service/pkg/embedding"
)

// ErrNotFitted is returned when predicting with an empty classifier.
var ErrNotFitted = errors.New("classifier has no training samples")

// Sample is one training vector with its encoded class index.
type Sample struct {
	LabelIndex int       `json:"label_index"`
	Vector     []float64 `json:"vector"`
}

// Classifier is a brute-force cosine k-NN model. Exported fields make it
// serializable as part of the published model bundle.
type Classifier struct {
	K       int      `json:"k"`
	Classes []string `json:"classes"`
	Samples []Sample `json:"samples"`
}

// LabelTable maps string labels to contiguous indices in sorted label order.
type LabelTable struct {
	classes []string
	index   map[string]int
}

// NewLabelTable builds a table over the distinct labels, sorted.
func NewLabelTable(labels []string) *LabelTable {
	seen := make(map[string]bool)
	var classes []string
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			classes = append(classes, l)
		}
	}
	sort.Strings(classes)
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelTable{classes: classes, index: index}
}

// Classes returns the sorted class names.
func (t *LabelTable) Classes() []string { return t.classes }

// Encode maps labels to indices. Unknown labels return an error.
func (t *LabelTable) Encode(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := t.index[l]
		if !ok {
			return nil, fmt.Errorf("unknown label %q", l)
		}
		out[i] = idx
	}
	return out, nil
}

// Decode maps a class index back to its label.
func (t *LabelTable) Decode(index int) (string, error) {
	if index < 0 || index >= len(t.classes) {
		return "", fmt.Errorf("class index %d out of range", index)
	}
	return t.classes[index], nil
}

// OptimalK picks the neighbour count from the number of enrolled classes.
func OptimalK(numClasses int) int {
	switch {
	case numClasses <= 4:
		return 4
	case numClasses <= 10:
		return 6
	case numClasses <= 20:
		return 8
	case numClasses <= 25:
		return 10
	default:
		k := int(0.4 * float64(numClasses))
		if k > 12 {
			k = 12
		}
		return k
	}
}

// StratifiedSplit partitions sample indices into train and test sets,
// preserving per-class proportions. The split is deterministic for a given
// seed. Classes with a single sample go entirely to the training set.
func StratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[int][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest >= len(idx) {
			nTest = len(idx) - 1
		}
		if nTest < 1 && len(idx) >= 2 {
			nTest = 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// Fit builds a classifier holding the training vectors. k is clamped to the
// sample count.
func Fit(vectors [][]float64, labels []int, classes []string, k int) *Classifier {
	if k > len(vectors) {
		k = len(vectors)
	}
	samples := make([]Sample, len(vectors))
	for i := range vectors {
		samples[i] = Sample{LabelIndex: labels[i], Vector: vectors[i]}
	}
	return &Classifier{K: k, Classes: classes, Samples: samples}
}

type neighbour struct {
	dist  float64
	label int
}

// PredictProba returns per-class probabilities for a query vector. Neighbours
// are weighted by inverse cosine distance. If any neighbour sits at exactly
// zero distance, only the zero-distance neighbours vote.
func (c *Classifier) PredictProba(query []float64) ([]float64, error) {
	if len(c.Samples) == 0 {
		return nil, ErrNotFitted
	}
	k := c.K
	if k <= 0 || k > len(c.Samples) {
		k = len(c.Samples)
	}

	neighbours := make([]neighbour, len(c.Samples))
	for i, s := range c.Samples {
		d, err := embedding.CosineDistance(query, s.Vector)
		if err != nil {
			return nil, err
		}
		neighbours[i] = neighbour{dist: d, label: s.LabelIndex}
	}
	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })
	neighbours = neighbours[:k]

	proba := make([]float64, len(c.Classes))
	hasZero := false
	for _, n := range neighbours {
		if n.dist == 0 {
			hasZero = true
			break
		}
	}

	total := 0.0
	for _, n := range neighbours {
		var w float64
		if hasZero {
			if n.dist == 0 {
				w = 1
			}
		} else {
			w = 1 / n.dist
		}
		proba[n.label] += w
		total += w
	}
	if total > 0 {
		for i := range proba {
			proba[i] /= total
		}
	}
	return proba, nil
}

// Predict returns the most probable class index and its probability.
func (c *Classifier) Predict(query []float64) (int, float64, error) {
	proba, err := c.PredictProba(query)
	if err != nil {
		return 0, 0, err
	}
	best, bestP := 0, -1.0
	for i, p := range proba {
		if p > bestP {
			best, bestP = i, p
		}
	}
	return best, bestP, nil
}

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// SweepPoint is macro precision and recall at one confidence cutoff.
type SweepPoint struct {
	Threshold float64 `json:"threshold"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
}

// Report aggregates the held-out evaluation of a trained classifier.
type Report struct {
	Accuracy       float64        `json:"accuracy"`
	MacroPrecision float64        `json:"macro_precision"`
	MacroRecall    float64        `json:"macro_recall"`
	MacroF1        float64        `json:"macro_f1"`
	PerClass       []ClassMetrics `json:"per_class"`
	Confusion      [][]int        `json:"confusion_matrix"`
	Confidences    []float64      `json:"confidences"`
	Sweep          []SweepPoint   `json:"threshold_sweep"`
}

// Evaluate scores the classifier on a held-out set and sweeps 20 evenly
// spaced confidence cutoffs over the predictions each cutoff accepts.
func (c *Classifier) Evaluate(vectors [][]float64, labels []int) (*Report, error) {
	n := len(vectors)
	if n == 0 {
		return nil, errors.New("empty evaluation set")
	}

	preds := make([]int, n)
	confidences := make([]float64, n)
	for i, v := range vectors {
		p, conf, err := c.Predict(v)
		if err != nil {
			return nil, err
		}
		preds[i] = p
		confidences[i] = conf
	}

	numClasses := len(c.Classes)
	confusion := make([][]int, numClasses)
	for i := range confusion {
		confusion[i] = make([]int, numClasses)
	}
	correct := 0
	for i := range preds {
		confusion[labels[i]][preds[i]]++
		if preds[i] == labels[i] {
			correct++
		}
	}

	perClass := make([]ClassMetrics, numClasses)
	var sumP, sumR, sumF float64
	for cIdx := 0; cIdx < numClasses; cIdx++ {
		m := classMetrics(labels, preds, cIdx)
		m.Label = c.Classes[cIdx]
		perClass[cIdx] = m
		sumP += m.Precision
		sumR += m.Recall
		sumF += m.F1
	}

	report := &Report{
		Accuracy:       float64(correct) / float64(n),
		MacroPrecision: sumP / float64(numClasses),
		MacroRecall:    sumR / float64(numClasses),
		MacroF1:        sumF / float64(numClasses),
		PerClass:       perClass,
		Confusion:      confusion,
		Confidences:    confidences,
	}

	const sweepPoints = 20
	for i := 0; i < sweepPoints; i++ {
		t := float64(i) / float64(sweepPoints-1)
		report.Sweep = append(report.Sweep, sweepAt(labels, preds, confidences, numClasses, t))
	}
	return report, nil
}

func classMetrics(truth, preds []int, class int) ClassMetrics {
	var tp, fp, fn, support int
	for i := range truth {
		if truth[i] == class {
			support++
		}
		switch {
		case preds[i] == class && truth[i] == class:
			tp++
		case preds[i] == class && truth[i] != class:
			fp++
		case preds[i] != class && truth[i] == class:
			fn++
		}
	}
	m := ClassMetrics{Support: support}
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// sweepAt drops predictions below the cutoff and computes macro precision
// and recall over the remaining samples only, averaged across the classes
// present there. An empty accepted set scores zero on both.
func sweepAt(truth, preds []int, confidences []float64, numClasses int, cutoff float64) SweepPoint {
	var subTruth, subPreds []int
	for i := range preds {
		if confidences[i] >= cutoff {
			subTruth = append(subTruth, truth[i])
			subPreds = append(subPreds, preds[i])
		}
	}
	if len(subTruth) == 0 {
		return SweepPoint{Threshold: cutoff}
	}

	present := make(map[int]bool)
	for _, c := range subTruth {
		present[c] = true
	}
	for _, c := range subPreds {
		present[c] = true
	}

	var sumP, sumR float64
	for c := 0; c < numClasses; c++ {
		if !present[c] {
			continue
		}
		m := classMetrics(subTruth, subPreds, c)
		sumP += m.Precision
		sumR += m.Recall
	}
	n := float64(len(present))
	return SweepPoint{
		Threshold: cutoff,
		Precision: sumP / n,
		Recall:    sumR / n,
	}
}
