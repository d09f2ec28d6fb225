package model

import "time"

// StatisticsKey is the fixed key of the singleton snapshot.
const StatisticsKey = "global"

// MatchQuality summarizes submitted ratings.
type MatchQuality struct {
	AverageRating float64     `json:"averageRating"`
	CountsPerStar map[int]int `json:"countsPerStar"`
	TotalRatings  int         `json:"totalRatings"`
}

// NewMatchQuality returns an empty breakdown with every star bucket present.
func NewMatchQuality() MatchQuality {
	counts := make(map[int]int, MaxRating)
	for star := MinRating; star <= MaxRating; star++ {
		counts[star] = 0
	}
	return MatchQuality{CountsPerStar: counts}
}

// StatisticsSnapshot is the platform-wide aggregate.
type StatisticsSnapshot struct {
	TotalFreeMembers        int          `json:"totalFreeMembers"`
	TotalPaidMembers        int          `json:"totalPaidMembers"`
	TotalProductMembers     int          `json:"totalProductMembers"`
	TotalMatches            int          `json:"totalMatches"`
	TotalContactInfoExposed int          `json:"totalContactInfoExposed"`
	Quality                 MatchQuality `json:"matchQuality"`
	LastUpdated             time.Time    `json:"lastUpdated"`
}
