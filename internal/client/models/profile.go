package models

import "encoding/json"

type ProfileUpdate struct {
	FirstName     *string  `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName      *string  `json:"lastName,omitempty" validate:"omitempty,max=100"`
	DateOfBirth   *string  `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender        *string  `json:"gender,omitempty"`
	HeightCm      *float64 `json:"heightCm,omitempty" validate:"omitempty,gte=50,lte=300"`
	WeightKg      *float64 `json:"weightKg,omitempty" validate:"omitempty,gte=20,lte=500"`
	ActivityLevel *string  `json:"activityLevel,omitempty"`
}

type Preferences struct {
	Units               string   `json:"units,omitempty" validate:"omitempty,oneof=metric imperial"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	Allergies           []string `json:"allergies,omitempty"`
	Notifications       *bool    `json:"notifications,omitempty"`
	Language            string   `json:"language,omitempty"`
}

// Questionnaire is the onboarding survey. Answers are opaque to the client.
type Questionnaire struct {
	Goal          string                     `json:"goal,omitempty"`
	ActivityLevel string                     `json:"activityLevel,omitempty"`
	Answers       map[string]json.RawMessage `json:"answers,omitempty"`
	CompletedAt   string                     `json:"completedAt,omitempty"`
}

type DailyGoals struct {
	Calories float64 `json:"calories" validate:"gte=0"`
	Protein  float64 `json:"protein" validate:"gte=0"`
	Carbs    float64 `json:"carbs" validate:"gte=0"`
	Fat      float64 `json:"fat" validate:"gte=0"`
	Water    float64 `json:"water,omitempty" validate:"gte=0"`
}

type GoalProgress struct {
	Date     string     `json:"date"`
	Goals    DailyGoals `json:"goals"`
	Consumed Macros     `json:"consumed"`
	Percent  Macros     `json:"percent"`
}
