package envelope

import (
	"bikedest/classifier"
	"bikedest/domain/entities"
	"bikedest/domain/entities/features"
	"bikedest/domain/entities/trip"
)

const (
	TripRequestType = "trip-request"
	FeaturesType    = "features"
)

// TripEnvelope trip request as it travels through the message bus
// + Metadata: request ID and stage of the message. A metadata of type EOF ends the stream
// + Request: trip to transform, empty for an EOF
type TripEnvelope struct {
	Metadata entities.Metadata `json:"metadata"`
	Request  trip.TripRequest  `json:"request"`
}

func NewTripEnvelope(requestID string, stage string, request trip.TripRequest) TripEnvelope {
	return TripEnvelope{
		Metadata: entities.NewMetadata(requestID, TripRequestType, stage, ""),
		Request:  request,
	}
}

func (te TripEnvelope) GetMetadata() entities.Metadata {
	return te.Metadata
}

// FeatureEnvelope result of a trip request
// + Features: vector in schema order
// + Prediction, Top: present only when a classifier scored the vector
type FeatureEnvelope struct {
	Metadata   entities.Metadata      `json:"metadata"`
	Variant    features.Variant       `json:"variant"`
	Features   features.FeatureVector `json:"features"`
	Prediction *classifier.Prediction `json:"prediction,omitempty"`
	Top        []classifier.Ranked    `json:"top,omitempty"`
}

func NewFeatureEnvelope(requestID string, stage string, variant features.Variant, vector features.FeatureVector) FeatureEnvelope {
	return FeatureEnvelope{
		Metadata: entities.NewMetadata(requestID, FeaturesType, stage, ""),
		Variant:  variant,
		Features: vector,
	}
}

// WithPrediction returns the envelope with the classifier result and its k most probable destinations
func (fe FeatureEnvelope) WithPrediction(prediction classifier.Prediction, k int) FeatureEnvelope {
	fe.Prediction = &prediction
	fe.Top = prediction.Top(k)
	return fe
}
