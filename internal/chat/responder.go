package chat

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"foodorder-be/internal/logger"
	"foodorder-be/internal/metrics"

	"go.uber.org/zap"
)

var ErrEmptyMessage = errors.New("no message provided")

const (
	replyGreeting    = "Hello! How can I assist you today?"
	replyReservation = "Please specify the restaurant name, number of people, and time for the reservation."
	replyFallback    = "I'm sorry, I couldn't understand your request. Please try rephrasing your question."
)

type Responder struct {
	catalog *CatalogStore
	metrics *metrics.Recorder
}

func NewResponder(catalog *CatalogStore, rec *metrics.Recorder) *Responder {
	return &Responder{catalog: catalog, metrics: rec}
}

// Reply answers one message. It keeps no state between calls.
func (r *Responder) Reply(ctx context.Context, message string) (string, error) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "", ErrEmptyMessage
	}

	c, err := r.catalog.Load(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load chat catalog", zap.Error(err))
		return "", err
	}

	branch, reply := Answer(msg, c)
	r.metrics.ChatReplied(ctx, branch)
	logger.FromCtx(ctx).Debug("chat reply", zap.String("branch", branch))
	return reply, nil
}

// Answer picks the reply for an already lowercased message. The first return
// value names the branch taken.
func Answer(msg string, c *Catalog) (string, string) {
	if isGreeting(msg) {
		return "greeting", replyGreeting
	}
	if isReservation(msg) {
		return "reservation", replyReservation
	}

	q := parse(msg, c)

	places := c.Places
	if q.city != "" {
		places = inCity(places, q.city)
		if len(places) == 0 {
			return "location", fmt.Sprintf("Sorry, I couldn't find any restaurants in %s.", capitalize(q.city))
		}
	}

	city, dish := capitalize(q.city), capitalize(q.dish)
	under := "Rs. " + strconv.Itoa(q.budget)

	switch {
	case q.city != "" && q.dish == "" && q.budget == 0:
		names := make([]string, 0, len(places))
		for _, p := range places {
			if p.Name != "" {
				names = append(names, "• "+p.Name)
			}
		}
		if len(names) == 0 {
			return "location", fmt.Sprintf("Sorry, I couldn't find any restaurants in %s.", city)
		}
		return "location", fmt.Sprintf("Here are some restaurants in %s:\n", city) + strings.Join(names, "\n")

	case q.city != "" && q.dish == "":
		lines := matches(places, "", q.budget, false)
		if len(lines) == 0 {
			return "location_budget", fmt.Sprintf("Sorry, I couldn't find any food options under %s in %s.", under, city)
		}
		return "location_budget", fmt.Sprintf("Here are some food options under %s in %s:\n", under, city) + strings.Join(lines, "\n")

	case q.dish != "" && q.budget > 0 && q.city != "":
		lines := matches(places, q.dish, q.budget, true)
		if len(lines) == 0 {
			return "dish_budget_location", fmt.Sprintf("Sorry, I couldn't find %s under %s in %s.", dish, under, city)
		}
		return "dish_budget_location", fmt.Sprintf("Here are some restaurants where you can get %s under %s in %s:\n", dish, under, city) + strings.Join(lines, "\n")

	case q.dish != "" && q.city != "":
		lines := matches(places, q.dish, 0, true)
		if len(lines) == 0 {
			return "dish_location", fmt.Sprintf("Sorry, I couldn't find %s in %s.", dish, city)
		}
		return "dish_location", fmt.Sprintf("Here are some restaurants where you can get %s in %s:\n", dish, city) + strings.Join(lines, "\n")

	case q.dish != "" && q.budget > 0:
		lines := matches(places, q.dish, q.budget, true)
		if len(lines) == 0 {
			return "dish_budget", fmt.Sprintf("Sorry, I couldn't find %s under %s.", dish, under)
		}
		return "dish_budget", fmt.Sprintf("Here are some restaurants where you can get %s under %s:\n", dish, under) + strings.Join(lines, "\n")

	case q.dish != "":
		lines := matches(places, q.dish, 0, true)
		if len(lines) == 0 {
			return "dish", fmt.Sprintf("Sorry, I couldn't find %s.", dish)
		}
		return "dish", fmt.Sprintf("Here are some restaurants where you can get %s:\n", dish) + strings.Join(lines, "\n")

	case q.budget > 0:
		lines := matches(places, "", q.budget, true)
		if len(lines) == 0 {
			return "budget", fmt.Sprintf("Sorry, I couldn't find any food options under %s.", under)
		}
		return "budget", fmt.Sprintf("Here are some food options under %s:\n", under) + strings.Join(lines, "\n")
	}

	return "fallback", replyFallback
}

func inCity(places []Place, city string) []Place {
	out := make([]Place, 0)
	for _, p := range places {
		if strings.EqualFold(strings.TrimSpace(p.City), city) {
			out = append(out, p)
		}
	}
	return out
}

// matches lists "Restaurant (Dish - Rs. P)" lines, filtered by exact dish name
// when dish is set and by price when budget is positive.
func matches(places []Place, dish string, budget int, withCity bool) []string {
	lines := make([]string, 0)
	for _, p := range places {
		for _, d := range p.Dishes {
			if dish != "" && strings.ToLower(strings.TrimSpace(d.Name)) != dish {
				continue
			}
			if budget > 0 && d.Price > float64(budget) {
				continue
			}
			line := fmt.Sprintf("%s (%s - Rs. %s)", p.Name, d.Name, formatPrice(d.Price))
			if withCity {
				line += " Location: " + p.City
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
