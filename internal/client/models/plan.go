package models

type CalendarDay struct {
	Date     string  `json:"date"`
	Calories float64 `json:"calories"`
	Meals    []Meal  `json:"meals,omitempty"`
	GoalMet  bool    `json:"goalMet"`
}

type CalendarMonth struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

type MealPlanRequest struct {
	Days                int      `json:"days" validate:"required,gte=1,lte=14"`
	CaloriesPerDay      float64  `json:"caloriesPerDay,omitempty" validate:"omitempty,gte=800,lte=6000"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	StartDate           string   `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type PlannedMeal struct {
	MealType    MealType `json:"mealType"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Macros
}

type MealPlanDay struct {
	Date  string        `json:"date"`
	Meals []PlannedMeal `json:"meals"`
}

type MealPlan struct {
	ID        string        `json:"id"`
	StartDate string        `json:"startDate"`
	EndDate   string        `json:"endDate"`
	Days      []MealPlanDay `json:"days"`
	CreatedAt string        `json:"createdAt,omitempty"`
}
