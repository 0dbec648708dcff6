package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/nutrikeeper/internal/client/models"
	"github.com/dmitrijs2005/nutrikeeper/internal/client/validation"
)

// Goals prints the daily goals and the progress towards them.
func (a *App) Goals(ctx context.Context, args []string) error {
	date, err := dateArg(args)
	if err != nil {
		return err
	}
	g, err := a.api.GetDailyGoals(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Daily goals: %.0f kcal, protein %.0fg, carbs %.0fg, fat %.0fg\n",
		g.Calories, g.Protein, g.Carbs, g.Fat)

	p, err := a.api.GetDailyGoalsProgress(ctx, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Progress %s: calories %.0f%%, protein %.0f%%, carbs %.0f%%, fat %.0f%%\n",
		p.Date, p.Percent.Calories, p.Percent.Protein, p.Percent.Carbs, p.Percent.Fat)
	return nil
}

// Chat sends a message to the nutrition assistant. Without arguments the
// message is read as multiple lines.
func (a *App) Chat(ctx context.Context, args []string) error {
	msg := strings.Join(args, " ")
	if msg == "" {
		var err error
		if msg, err = GetMultiline(a.reader, "Your message", a.out); err != nil {
			return err
		}
	}

	req := &models.ChatRequest{Message: msg}
	if err := validation.Struct(req); err != nil {
		return err
	}
	reply, err := a.api.SendChatMessage(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, reply.Reply.Content)
	return nil
}

// Plan shows the current meal plan, or generates one for n days.
//
//	plan       current plan
//	plan <n>   generate an n-day plan
func (a *App) Plan(ctx context.Context, args []string) error {
	var (
		plan *models.MealPlan
		err  error
	)
	if len(args) == 0 {
		plan, err = a.api.GetCurrentMealPlan(ctx)
	} else {
		days, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return errors.New("usage: plan [days]")
		}
		req := &models.MealPlanRequest{Days: days}
		if err := validation.Struct(req); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Generating meal plan...")
		plan, err = a.api.GenerateMealPlan(ctx, req)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Meal plan %s .. %s\n", plan.StartDate, plan.EndDate)
	for _, d := range plan.Days {
		fmt.Fprintln(a.out, d.Date)
		for _, m := range d.Meals {
			fmt.Fprintf(a.out, "  %-9s %s (%.0f kcal)\n", m.MealType, m.Name, m.Calories)
		}
	}
	return nil
}

// Calendar prints a month overview (default the current month).
//
//	calendar [year month]
func (a *App) Calendar(ctx context.Context, args []string) error {
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if len(args) >= 2 {
		var err1, err2 error
		year, err1 = strconv.Atoi(args[0])
		month, err2 = strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return errors.New("usage: calendar [year month]")
		}
	}

	cal, err := a.api.GetCalendarMonth(ctx, year, month)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %d\n", time.Month(cal.Month), cal.Year)
	for _, d := range cal.Days {
		mark := " "
		if d.GoalMet {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s %6.0f kcal\n", mark, d.Date, d.Calories)
	}
	return nil
}
