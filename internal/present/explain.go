package present

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/EmpoweredVote/cola-explorer/internal/classify"
	"github.com/EmpoweredVote/cola-explorer/internal/colas"
)

const longDate = "January 02, 2006"

var printer = message.NewPrinter(language.English)

// JoinEnglish joins items as "a", "a and b" or "a, b, and c".
func JoinEnglish(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}

// Explain describes the active filters in reading order. dates is the range
// the search applied; idList is set when the search term was an ID list.
func Explain(f colas.Filters, dates colas.DateRange, idList []string) []string {
	var out []string

	if dates.Valid() {
		out = append(out, fmt.Sprintf("with completion date from %s through %s",
			dates.Start.Time.Format(longDate), dates.End.Time.Format(longDate)))
	}

	if n := len(f.Commodity); n > 0 {
		names := make([]string, n)
		for i, c := range f.Commodity {
			names[i] = classify.DisplayName(c)
		}
		if n == 1 {
			out = append(out, fmt.Sprintf("limited to %s COLAs only", names[0]))
		} else {
			out = append(out, fmt.Sprintf("limited to %s COLAs", JoinEnglish(names)))
		}
	}

	switch len(f.Brand) {
	case 0:
	case 1:
		out = append(out, "for brand "+f.Brand[0])
	default:
		out = append(out, "for brands "+JoinEnglish(f.Brand))
	}

	switch len(f.Origin) {
	case 0:
	case 1:
		out = append(out, "of origin "+f.Origin[0])
	default:
		out = append(out, "of origins "+JoinEnglish(f.Origin))
	}

	switch len(f.ClassType) {
	case 0:
	case 1:
		out = append(out, "with Class Type = "+f.ClassType[0])
	default:
		out = append(out, "with Class Type = ["+strings.Join(f.ClassType, ", ")+"]")
	}

	if len(f.ViolationGroup) > 0 {
		out = append(out, fmt.Sprintf("with %s violations", JoinEnglish(f.ViolationGroup)))
	}

	switch {
	case len(idList) == 1:
		out = append(out, "for COLA ID "+idList[0])
	case len(idList) > 1:
		out = append(out, fmt.Sprintf("for %d specific COLA IDs", len(idList)))
	case strings.TrimSpace(f.Search) != "":
		out = append(out, fmt.Sprintf("matching search term '%s'", f.Search))
	}

	if strings.TrimSpace(f.Exclude) != "" {
		out = append(out, fmt.Sprintf("excluding '%s'", f.Exclude))
	}
	return out
}

// ResultsMessage is the one-line summary shown above the results.
func ResultsMessage(total int, explanations []string, limit int) string {
	msg := printer.Sprintf("Found %d COLA records", total)
	if len(explanations) > 0 {
		msg += " " + strings.Join(explanations, ", ")
	}
	if limit > 0 && total > limit {
		msg += printer.Sprintf(", limiting to %d results displayed", limit)
	}
	return msg
}
