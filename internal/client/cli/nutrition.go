package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/validation"
)

const maxPhotoBytes = 10 << 20

const dateLayout = "2006-01-02"

// Analyze sends a meal photo for analysis and offers to log the result.
//
//	analyze <photo> [breakfast|lunch|dinner|snack]
func (a *App) Analyze(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: analyze <photo> [meal type]")
	}

	data, err := readPhoto(args[0])
	if err != nil {
		return err
	}

	req := &models.MealAnalysisRequest{
		Image:    base64.StdEncoding.EncodeToString(data),
		MimeType: photoMimeType(args[0], data),
		MealType: mealTypeFor(args[1:], time.Now()),
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Analyzing meal, this can take up to a minute...")
	res, err := a.api.AnalyzeMeal(ctx, req)
	if err != nil {
		return err
	}
	printAnalysis(a.out, res)

	if !confirm(a.reader, "Log this meal?", a.out) {
		return nil
	}

	meal := &models.Meal{
		MealType:   req.MealType,
		Name:       mealName(res),
		Foods:      res.Foods,
		Totals:     res.Totals,
		AnalysisID: res.ID,
	}
	return a.logMeal(ctx, meal)
}

// LogMeal records a meal entered by hand.
func (a *App) LogMeal(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Meal name", a.out)
	if err != nil {
		return err
	}
	mt, err := getSimpleText(a.reader, "Meal type (breakfast, lunch, dinner, snack)", a.out)
	if err != nil {
		return err
	}

	var macros models.Macros
	for _, f := range []struct {
		prompt string
		dst    *float64
	}{
		{"Calories (kcal)", &macros.Calories},
		{"Protein (g)", &macros.Protein},
		{"Carbs (g)", &macros.Carbs},
		{"Fat (g)", &macros.Fat},
	} {
		s, err := getSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return err
		}
		if *f.dst, err = parseAmount(s); err != nil {
			return fmt.Errorf("%s: %w", f.prompt, err)
		}
	}

	return a.logMeal(ctx, &models.Meal{
		MealType: mealTypeFor([]string{mt}, time.Now()),
		Name:     name,
		Totals:   macros,
	})
}

func (a *App) logMeal(ctx context.Context, meal *models.Meal) error {
	if err := validation.Struct(meal); err != nil {
		return err
	}
	logged, err := a.api.LogMeal(ctx, meal)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged %s (%s, %.0f kcal).\n", logged.Name, logged.MealType, logged.Totals.Calories)
	return nil
}

// Meals lists the meals of a day (default today).
func (a *App) Meals(ctx context.Context, args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	meals, err := a.api.GetMeals(ctx, date)
	if err != nil {
		return err
	}
	if len(meals) == 0 {
		fmt.Fprintln(a.out, "No meals logged.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tKCAL\tP\tC\tF")
	for _, m := range meals {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0f\n",
			m.MealType, m.Name, m.Totals.Calories, m.Totals.Protein, m.Totals.Carbs, m.Totals.Fat)
	}
	return tw.Flush()
}

// Summary prints consumed versus goal for a day.
func (a *App) Summary(ctx context.Context, args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	s, err := a.api.GetDailySummary(ctx, date)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Summary for %s (%d meals)\n", s.Date, s.MealCount)
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tCONSUMED\tGOAL\tREMAINING")
	printMacroRow(tw, "Calories", s.Consumed.Calories, s.Goals.Calories, s.Remaining.Calories)
	printMacroRow(tw, "Protein", s.Consumed.Protein, s.Goals.Protein, s.Remaining.Protein)
	printMacroRow(tw, "Carbs", s.Consumed.Carbs, s.Goals.Carbs, s.Remaining.Carbs)
	printMacroRow(tw, "Fat", s.Consumed.Fat, s.Goals.Fat, s.Remaining.Fat)
	return tw.Flush()
}

func printMacroRow(w io.Writer, name string, consumed, goal, remaining float64) {
	fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\n", name, consumed, goal, remaining)
}

func printAnalysis(w io.Writer, res *models.MealAnalysis) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FOOD\tKCAL\tP\tC\tF")
	for _, f := range res.Foods {
		fmt.Fprintf(tw, "%s\t%.0f\t%.0f\t%.0f\t%.0f\n", f.Name, f.Calories, f.Protein, f.Carbs, f.Fat)
	}
	t := res.Totals
	fmt.Fprintf(tw, "TOTAL\t%.0f\t%.0f\t%.0f\t%.0f\n", t.Calories, t.Protein, t.Carbs, t.Fat)
	_ = tw.Flush()

	if res.HealthScore > 0 {
		fmt.Fprintf(w, "Health score: %.1f\n", res.HealthScore)
	}
	for _, s := range res.Suggestions {
		fmt.Fprintln(w, "  *", s)
	}
}

func readPhoto(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxPhotoBytes {
		return nil, fmt.Errorf("photo is too large (%d bytes, max %d)", info.Size(), maxPhotoBytes)
	}
	return os.ReadFile(path)
}

func photoMimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic", ".heif":
		return "image/heic"
	}
	ct := http.DetectContentType(data)
	switch ct {
	case "image/jpeg", "image/png", "image/webp":
		return ct
	}
	return "image/jpeg"
}

// mealTypeFor takes the meal type from args or guesses it from the hour.
func mealTypeFor(args []string, now time.Time) models.MealType {
	if len(args) > 0 && args[0] != "" {
		return models.MealType(strings.ToLower(args[0]))
	}
	switch h := now.Hour(); {
	case h >= 5 && h < 11:
		return models.MealBreakfast
	case h >= 11 && h < 16:
		return models.MealLunch
	case h >= 17 && h < 22:
		return models.MealDinner
	}
	return models.MealSnack
}

func mealName(res *models.MealAnalysis) string {
	names := make([]string, 0, len(res.Foods))
	for _, f := range res.Foods {
		names = append(names, f.Name)
	}
	if len(names) == 0 {
		return "Analyzed meal"
	}
	name := strings.Join(names, ", ")
	if len(name) > 200 {
		name = name[:197] + "..."
	}
	return name
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// dateArg returns args[0] when it is a YYYY-MM-DD date; no argument means
// the server's today.
func dateArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	if args[0] == "today" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, args[0]); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", args[0])
	}
	return args[0], nil
}
