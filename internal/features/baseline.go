package features

// PriorClassifier predicts the majority class seen during fitting. It
// is the default Classifier implementation and the floor any real model
// has to beat.
type PriorClassifier struct {
	fitted   bool
	majority int
}

// Fit records the majority class of y.
func (c *PriorClassifier) Fit(x [][]float64, y []int) error {
	if len(x) == 0 || len(y) != len(x) {
		return ErrEmptyMatrix
	}
	positives := 0
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	c.majority = 0
	if positives*2 >= len(y) {
		c.majority = 1
	}
	c.fitted = true
	return nil
}

// Predict returns the majority class for every row.
func (c *PriorClassifier) Predict(x [][]float64) ([]int, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}
	out := make([]int, len(x))
	for i := range out {
		out[i] = c.majority
	}
	return out, nil
}
