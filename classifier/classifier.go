package classifier

import (
	"context"
	"errors"
	"sort"
)

// DefaultTopK amount of destinations returned by a prediction
const DefaultTopK = 5

var (
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrInvalidPrediction     = errors.New("invalid prediction")
)

// Classifier scores a feature vector. The vector must follow the column order the model was trained with
type Classifier interface {
	PredictProba(ctx context.Context, vector []float64) (Prediction, error)
}

// Prediction result of the classifier
// + Class: most probable destination
// + Probabilities: probability of each destination station
type Prediction struct {
	Class         string             `json:"class"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Ranked destination with its probability
type Ranked struct {
	Destination string  `json:"destination"`
	Probability float64 `json:"probability"`
}

// TopK returns the k most probable destinations, higher probability first and ties by name.
// A k lower than 1 returns every destination
func TopK(probabilities map[string]float64, k int) []Ranked {
	ranked := make([]Ranked, 0, len(probabilities))
	for destination, probability := range probabilities {
		ranked = append(ranked, Ranked{Destination: destination, Probability: probability})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Probability != ranked[j].Probability {
			return ranked[i].Probability > ranked[j].Probability
		}
		return ranked[i].Destination < ranked[j].Destination
	})

	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Top returns the k most probable destinations of the prediction
func (p Prediction) Top(k int) []Ranked {
	return TopK(p.Probabilities, k)
}
