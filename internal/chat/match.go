package chat

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// maxDistance is the largest normalized edit distance still counted as a match.
const maxDistance = 0.4

var (
	greetingRe    = regexp.MustCompile(`\b(hi|hello|hey)\b`)
	reservationRe = regexp.MustCompile(`\b(book\w*|tables?|reservations?|reserve)\b`)
	budgetRe      = regexp.MustCompile(`under\s*(\d+)|less than\s*(\d+)`)
)

var stopWords = map[string]bool{
	"list": true, "restaurant": true, "restaurants": true, "find": true, "show": true,
	"food": true, "place": true, "places": true, "menu": true, "eat": true,
	"want": true, "options": true, "order": true, "delivery": true, "craving": true,
	"available": true, "price": true, "under": true, "less": true, "than": true,
	"in": true, "at": true, "for": true, "of": true, "the": true,
	"a": true, "an": true, "is": true, "are": true, "can": true,
	"you": true, "me": true, "which": true, "what": true, "with": true,
	"and": true, "or": true, "to": true, "by": true, "on": true,
	"open": true, "currently": true, "rs": true, "i": true, "some": true,
}

func isGreeting(msg string) bool    { return greetingRe.MatchString(msg) }
func isReservation(msg string) bool { return reservationRe.MatchString(msg) }

// extractBudget returns 0 when no "under N" or "less than N" is present.
func extractBudget(msg string) int {
	m := budgetRe.FindStringSubmatch(msg)
	if m == nil {
		return 0
	}
	v := m[1]
	if v == "" {
		v = m[2]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func tokenize(msg string) []string {
	return strings.FieldsFunc(msg, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// match is the vocabulary entry found in a message and the token positions
// that produced it.
type match struct {
	value string
	dist  float64
	used  []int
}

func (m match) overlaps(o match) bool {
	for _, a := range m.used {
		for _, b := range o.used {
			if a == b {
				return true
			}
		}
	}
	return false
}

// closest compares every run of up to maxWords adjacent positions in idx
// against the vocabulary and returns the best entry within maxDistance.
func closest(tokens []string, idx []int, vocab []string) (match, bool) {
	maxWords := 1
	for _, v := range vocab {
		if n := len(strings.Fields(v)); n > maxWords {
			maxWords = n
		}
	}

	best := match{dist: maxDistance + 1}
	for i := range idx {
		for j := i + 1; j <= len(idx) && j-i <= maxWords; j++ {
			words := make([]string, 0, j-i)
			for _, k := range idx[i:j] {
				words = append(words, tokens[k])
			}
			cand := strings.Join(words, " ")
			for _, v := range vocab {
				d := normalizedDistance(cand, v)
				if d < best.dist || (d == best.dist && len(v) > len(best.value)) {
					best = match{value: v, dist: d, used: idx[i:j]}
				}
			}
		}
	}
	return best, best.dist <= maxDistance
}

func normalizedDistance(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

// query is what the responder understood from one message.
type query struct {
	dish   string
	city   string
	budget int
}

func parse(msg string, c *Catalog) query {
	q := query{budget: extractBudget(msg)}

	tokens := tokenize(msg)
	all := make([]int, 0, len(tokens))
	content := make([]int, 0, len(tokens))
	for i, t := range tokens {
		if isNumber(t) {
			continue
		}
		all = append(all, i)
		if !stopWords[t] {
			content = append(content, i)
		}
	}

	cities, dishes := c.cities(), c.dishNames()
	city, cityOK := closest(tokens, all, cities)
	dish, dishOK := closest(tokens, content, dishes)

	// one word cannot name both a city and a dish; the closer match keeps it
	if cityOK && dishOK && city.overlaps(dish) {
		if dish.dist <= city.dist {
			city, cityOK = closest(tokens, without(all, dish.used), cities)
		} else {
			dish, dishOK = closest(tokens, without(content, city.used), dishes)
		}
	}

	if cityOK {
		q.city = city.value
	}
	if dishOK {
		q.dish = dish.value
	}
	return q
}

func without(idx, drop []int) []int {
	out := make([]int, 0, len(idx))
	for _, i := range idx {
		skip := false
		for _, d := range drop {
			if i == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, i)
		}
	}
	return out
}
