package router

import (
	"strconv"
	"strings"
	"time"

	"rembot/internal/reminder"
)

// recurringArgs is /every input broken into its clauses.
type recurringArgs struct {
	descriptor string
	at         string
	until      string
	times      int
	message    string
}

const maxRuleWords = 6

// splitRecurring cuts "/every" input into rule, optional clauses and message.
// The rule binds the longest token prefix the recurrence grammar accepts;
// after it, "at <time>", "until <date>" and "for N times" clauses are
// consumed in any order until a token starts the message.
func splitRecurring(input string, now time.Time) (recurringArgs, error) {
	tokens := strings.Fields(strings.TrimSpace(input))
	if len(tokens) > 0 && strings.EqualFold(tokens[0], "every") {
		tokens = tokens[1:]
	}

	var ra recurringArgs
	found := 0
	for k := min(len(tokens), maxRuleWords); k >= 1; k-- {
		if _, err := reminder.ParseRecurrence(strings.Join(tokens[:k], " "), now); err == nil {
			found = k
			break
		}
	}
	if found == 0 {
		head := ""
		if len(tokens) > 0 {
			head = tokens[0]
		}
		_, err := reminder.ParseRecurrence(head, now)
		return ra, err
	}
	ra.descriptor = strings.Join(tokens[:found], " ")

	rest := tokens[found:]
	for len(rest) > 0 {
		var ok bool
		if rest, ok = ra.takeClause(rest, now); !ok {
			break
		}
	}
	ra.message = strings.Join(rest, " ")
	return ra, nil
}

func (ra *recurringArgs) takeClause(rest []string, now time.Time) ([]string, bool) {
	switch strings.ToLower(rest[0]) {
	case "at":
		if ra.at != "" || len(rest) < 2 {
			return rest, false
		}
		// "at 3 pm" first, then "at 3pm".
		if len(rest) >= 3 {
			if _, _, ok := reminder.ParseClockTime(rest[1] + " " + rest[2]); ok {
				ra.at = rest[1] + " " + rest[2]
				return rest[3:], true
			}
		}
		if _, _, ok := reminder.ParseClockTime(rest[1]); ok {
			ra.at = rest[1]
			return rest[2:], true
		}
	case "until":
		if ra.until != "" {
			return rest, false
		}
		for n := min(len(rest)-1, 4); n >= 1; n-- {
			expr := strings.Join(rest[1:1+n], " ")
			if _, err := reminder.ParseTime(expr, now); err == nil {
				ra.until = expr
				return rest[1+n:], true
			}
		}
	case "for":
		if ra.times != 0 || len(rest) < 3 {
			return rest, false
		}
		unit := strings.ToLower(rest[2])
		if unit != "times" && unit != "time" {
			return rest, false
		}
		if n, err := strconv.Atoi(rest[1]); err == nil && n > 0 {
			ra.times = n
			return rest[3:], true
		}
	}
	return rest, false
}

// splitBroadcast strips the optional leading img:<ref> token and reports
// whether the rest is a recurring ("every ...") request.
func splitBroadcast(input string) (imageRef, rest string, recurring bool) {
	tokens := strings.Fields(strings.TrimSpace(input))
	if len(tokens) > 0 && strings.HasPrefix(strings.ToLower(tokens[0]), "img:") {
		imageRef = tokens[0][len("img:"):]
		tokens = tokens[1:]
	}
	recurring = len(tokens) > 0 && strings.EqualFold(tokens[0], "every")
	return imageRef, strings.Join(tokens, " "), recurring
}
