package triage

type Severity string

const (
	Mild     Severity = "mild"
	Moderate Severity = "moderate"
	Severe   Severity = "severe"
)

const NoDisorder = "No Disorder"

// Input is one symptom submission. Optional numeric fields are nil when absent.
type Input struct {
	Text       string   `json:"input_text" bson:"input_text"`
	Symptoms   []string `json:"selected_symptoms,omitempty" bson:"selected_symptoms,omitempty"`
	Mood       *int     `json:"mood_rating,omitempty" bson:"mood_rating,omitempty" binding:"omitempty,min=1,max=10"`
	SleepHours *float64 `json:"sleep_hours,omitempty" bson:"sleep_hours,omitempty" binding:"omitempty,min=0"`
	Stress     *int     `json:"stress_level,omitempty" bson:"stress_level,omitempty" binding:"omitempty,min=1,max=10"`
}

type Result struct {
	Label          string   `json:"predicted_disorder" bson:"predicted_disorder"`
	Confidence     float64  `json:"confidence_score" bson:"confidence_score"`
	Severity       Severity `json:"severity_level" bson:"severity_level"`
	Recommendation string   `json:"recommendations" bson:"recommendations"`
	NextSteps      string   `json:"next_steps" bson:"next_steps"`
	Emergency      bool     `json:"emergency_contact_suggested" bson:"emergency_contact_suggested"`
}

type Status string

const (
	StatusClassified Status = "classified"
	StatusDefaulted  Status = "defaulted"
)

// Outcome tells a real classification apart from a fallback.
type Outcome struct {
	Result `bson:",inline"`
	Status Status `json:"status" bson:"status"`
	Reason string `json:"reason,omitempty" bson:"reason,omitempty"`
	// lower-cased text tokens plus symptom tags; not used for scoring
	Features []string `json:"-" bson:"features,omitempty"`
}

func (o Outcome) Defaulted() bool { return o.Status == StatusDefaulted }

// Predictor is the contract the router and HTTP layer depend on.
type Predictor interface {
	Predict(in Input) Outcome
}

// SafeDefault is returned whenever classification fails.
func SafeDefault() Result {
	return Result{
		Label:          NoDisorder,
		Confidence:     0.5,
		Severity:       Mild,
		Recommendation: "Please consult with a mental health professional for a proper assessment.",
		NextSteps:      "Consider speaking with a therapist or counselor.",
		Emergency:      false,
	}
}
