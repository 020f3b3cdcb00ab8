package present

import "github.com/EmpoweredVote/cola-explorer/internal/colas"

// Page is everything a search results page shows.
type Page struct {
	Message      string          `json:"message"`
	Total        int             `json:"total"`
	Explanations []string        `json:"explanations"`
	Distribution []Slice         `json:"distribution"`
	Chart        *Chart          `json:"chart"`
	Query        string          `json:"query"`
	Dates        colas.DateRange `json:"dates"`
	Records      []colas.Record  `json:"records"`
	Cards        []Card          `json:"cards"`
}

// BuildPage renders a search result.
func BuildPage(res *colas.Result) Page {
	explanations := Explain(res.Filters, res.Dates, res.IDList)
	if explanations == nil {
		explanations = []string{}
	}

	p := Page{
		Message:      ResultsMessage(res.Total, explanations, res.Filters.Limit),
		Total:        res.Total,
		Explanations: explanations,
		Distribution: Distribution(res.Matches),
		Chart:        BuildChart(res.Matches, res.Dates),
		Query:        res.Filters.Query().Encode(),
		Dates:        res.Dates,
		Records:      res.Records,
		Cards:        make([]Card, 0, len(res.Records)),
	}
	for _, r := range res.Records {
		p.Cards = append(p.Cards, NewCard(r, res.Filters.Search))
	}
	return p
}
