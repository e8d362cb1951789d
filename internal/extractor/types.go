package extractor

import "github.com/MikeSquared-Agency/tina/internal/intake"

// Analysis is everything one extraction pass learns from a transcript.
type Analysis struct {
	Facts      intake.VehicleFacts
	Sufficient bool
	// Policies always comes from intake.Decide.
	Policies intake.PolicySet
	// Hint is the oracle's own policy suggestion. It never drives a decision.
	Hint intake.PolicySet
}

// llmResponse is the structured answer requested from the oracle.
type llmResponse struct {
	TruckStatus           string   `json:"truck_status"`
	RacingStatus          string   `json:"racing_status"`
	AgeStatus             string   `json:"age_status"`
	PolicyRecommendations []string `json:"policy_recommendations"`
}

func (r llmResponse) facts() intake.VehicleFacts {
	return intake.VehicleFacts{
		Truck:  intake.ParseTruckStatus(r.TruckStatus),
		Racing: intake.ParseRacingStatus(r.RacingStatus),
		Age:    intake.ParseAgeStatus(r.AgeStatus),
	}
}

func (r llmResponse) hint() intake.PolicySet {
	ids := make([]intake.PolicyID, 0, len(r.PolicyRecommendations))
	for _, code := range r.PolicyRecommendations {
		if p, ok := intake.ParsePolicyID(code); ok {
			ids = append(ids, p)
		}
	}
	return intake.NewPolicySet(ids...)
}
