package riders

import (
	"fmt"

	"bikedest/domain/entities/trip"
)

// Tier rider category by amount of trips
type Tier string

const (
	TierOccasional Tier = "Occasional"
	TierRegular    Tier = "Regular"
	TierFrequent   Tier = "Frequent"
	TierActive     Tier = "Active"
)

// TierOf returns the category of a rider with the given amount of trips
func TierOf(totalTrips int) Tier {
	switch {
	case totalTrips < 10:
		return TierOccasional
	case totalTrips < 30:
		return TierRegular
	case totalTrips < 50:
		return TierFrequent
	default:
		return TierActive
	}
}

// Profile known rider with the aggregates of the trips
// + Key: identifier of the rider. Once set, it cannot change
// + History: aggregates used to fill the rider features of a request
type Profile struct {
	Key     string           `json:"key"`
	Name    string           `json:"name"`
	Tier    Tier             `json:"tier"`
	History trip.UserHistory `json:"history"`
}

func NewProfile(key string, history trip.UserHistory) Profile {
	totalTrips := 0
	if history.TotalTrips != nil {
		totalTrips = *history.TotalTrips
	}

	tier := TierOf(totalTrips)
	return Profile{
		Key:     key,
		Name:    fmt.Sprintf("%s - %s (%d trips)", key, tier, totalTrips),
		Tier:    tier,
		History: history,
	}
}

// GetTotalTrips returns the amount of trips of the rider, 0 if unknown
func (p Profile) GetTotalTrips() int {
	if p.History.TotalTrips == nil {
		return 0
	}
	return *p.History.TotalTrips
}

// GetHistory returns a copy of the history that can be attached to a request
func (p Profile) GetHistory() *trip.UserHistory {
	history := p.History
	return &history
}
