package models

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealAnalysisRequest carries a base64-encoded photo.
type MealAnalysisRequest struct {
	Image    string   `json:"image" validate:"required,base64"`
	MimeType string   `json:"mimeType,omitempty" validate:"omitempty,oneof=image/jpeg image/png image/heic image/webp"`
	MealType MealType `json:"mealType,omitempty" validate:"omitempty,oneof=breakfast lunch dinner snack"`
	Notes    string   `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
	Sugar    float64 `json:"sugar,omitempty"`
	Sodium   float64 `json:"sodium,omitempty"`
}

type FoodItem struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity,omitempty"`
	Unit       string  `json:"unit,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Macros
}

type MealAnalysis struct {
	ID          string     `json:"id,omitempty"`
	Foods       []FoodItem `json:"foods"`
	Totals      Macros     `json:"totals"`
	HealthScore float64    `json:"healthScore,omitempty"`
	Suggestions []string   `json:"suggestions,omitempty"`
}

type Meal struct {
	ID         string     `json:"id,omitempty"`
	MealType   MealType   `json:"mealType" validate:"required,oneof=breakfast lunch dinner snack"`
	Name       string     `json:"name" validate:"required,max=200"`
	Foods      []FoodItem `json:"foods,omitempty"`
	Totals     Macros     `json:"totals"`
	AnalysisID string     `json:"analysisId,omitempty"`
	LoggedAt   string     `json:"loggedAt,omitempty"`
	Date       string     `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type DailySummary struct {
	Date      string  `json:"date"`
	Consumed  Macros  `json:"consumed"`
	Goals     Macros  `json:"goals"`
	Remaining Macros  `json:"remaining"`
	MealCount int     `json:"mealCount"`
	Meals     []Meal  `json:"meals,omitempty"`
	Progress  float64 `json:"progress,omitempty"`
}

type Food struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	ServingSize float64 `json:"servingSize,omitempty"`
	ServingUnit string  `json:"servingUnit,omitempty"`
	Macros
}
