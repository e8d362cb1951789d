package extractor

import (
	"google.golang.org/genai"

	"github.com/MikeSquared-Agency/tina/internal/intake"
	"github.com/MikeSquared-Agency/tina/internal/oracle"
)

var yesNoStatuses = []string{
	intake.ConfirmedYes.String(),
	intake.ConfirmedNo.String(),
	intake.Unknown.String(),
}

var ageStatuses = []string{
	intake.ConfirmedOld.String(),
	intake.ConfirmedNew.String(),
	intake.Unknown.String(),
}

var Schema = oracle.Schema{
	Name: "vehicle_facts",
	Spec: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"truck_status":  {Type: genai.TypeString, Enum: yesNoStatuses},
			"racing_status": {Type: genai.TypeString, Enum: yesNoStatuses},
			"age_status":    {Type: genai.TypeString, Enum: ageStatuses},
			"policy_recommendations": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString, Enum: intake.PolicySet(intake.AllPolicies).Codes()},
			},
		},
		Required: []string{"truck_status", "racing_status", "age_status", "policy_recommendations"},
	},
}

const extractionPrompt = `You are reading a conversation between Tina, a vehicle insurance assistant, and a customer.

Determine three facts about the customer's vehicle from what the customer has said so far.

truck_status:
- CONFIRMED_YES if the customer clearly said the vehicle is a truck
- CONFIRMED_NO if the customer clearly said it is not a truck
- UNKNOWN otherwise

racing_status:
- CONFIRMED_YES if the customer clearly said the vehicle is a racing car
- CONFIRMED_NO if the customer clearly said it is not a racing car
- UNKNOWN otherwise

age_status:
- CONFIRMED_OLD if the vehicle is more than 10 years old
- CONFIRMED_NEW if the vehicle is 10 years old or less, including brand new
- UNKNOWN if the age has not been stated

Only use CONFIRMED values for explicit statements. Do not guess from vehicle names or tone. If the customer contradicts themselves, use their latest statement; if it is still unclear, use UNKNOWN.

Policies:
- Mechanical Breakdown Insurance (MBI): not available for trucks or vehicles more than 10 years old
- Comprehensive Car Insurance (CCI): only for vehicles 10 years old or less, never for trucks or racing cars
- Third Party Car Insurance (3RDP): available for all vehicles

List in policy_recommendations the policy codes you would recommend given the facts, or an empty list if facts are missing.

Conversation:
---
%s
---`
