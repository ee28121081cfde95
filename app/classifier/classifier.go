package classifier

import (
	"context"
	"errors"
)

// Labels returned to the user.
const (
	LabelHuman  = "Человек"
	LabelMonkey = "Обезьяна"
)

// ErrUnavailable is returned when the model endpoint never came up and
// classification is disabled for the lifetime of the process.
var ErrUnavailable = errors.New("classifier: model unavailable")

// Prediction is the decoded model output for one image.
// Probability is the raw sigmoid output; Confidence is the probability
// of the chosen label.
type Prediction struct {
	Label       string
	Confidence  float64
	Probability float64
}

// Classifier labels a single image stored on local disk.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (Prediction, error)
}

// Decide maps the raw model probability to a label. Values below 0.5
// mean human, the rest monkey; confidence is the distance from the
// opposite class.
func Decide(p float64) Prediction {
	if p < 0.5 {
		return Prediction{Label: LabelHuman, Confidence: 1 - p, Probability: p}
	}
	return Prediction{Label: LabelMonkey, Confidence: p, Probability: p}
}
