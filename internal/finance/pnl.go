package finance

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// PNLRow is the profit/loss of one position at current prices.
type PNLRow struct {
	Symbol      string
	Shares      float64
	Cost        float64
	Price       float64
	Value       float64
	Gain        float64
	GainPercent float64
}

// PNLTotal sums the whole portfolio.
type PNLTotal struct {
	Cost        float64
	Value       float64
	Gain        float64
	GainPercent float64
}

// ComputePNL joins positions with current quotes. Positions without a
// quote are skipped; callers report them separately.
func ComputePNL(positions []Position, quotes map[string]*Quote) ([]PNLRow, PNLTotal) {
	var rows []PNLRow
	var total PNLTotal

	for _, pos := range positions {
		q, ok := quotes[pos.Symbol]
		if !ok || q == nil {
			continue
		}
		row := PNLRow{
			Symbol: pos.Symbol,
			Shares: pos.Shares,
			Cost:   pos.Cost,
			Price:  q.Current,
			Value:  pos.Shares * q.Current,
		}
		row.Gain = row.Value - row.Cost
		if row.Cost != 0 {
			row.GainPercent = row.Gain / row.Cost * 100
		}
		rows = append(rows, row)

		total.Cost += row.Cost
		total.Value += row.Value
	}

	total.Gain = total.Value - total.Cost
	if total.Cost != 0 {
		total.GainPercent = total.Gain / total.Cost * 100
	}
	return rows, total
}

// DigestItem pairs a symbol's premarket quote with its headlines.
type DigestItem struct {
	Symbol string
	Quote  *Quote
	News   []NewsItem
}

var digestTmpl = template.Must(template.New("digest").Parse(`<html><body>
<h2>Market digest - {{.Date}}</h2>
{{range .Items}}<h3>{{.Symbol}}: {{printf "%.2f" .Quote.Current}} ({{printf "%+.2f%%" .Quote.ChangePercent}})</h3>
<ul>
{{range .News}}<li><a href="{{.URL}}">{{.Headline}}</a> - {{.Source}}</li>
{{end}}</ul>
{{end}}</body></html>
`))

// BuildDigestHTML renders the daily digest email body.
func BuildDigestHTML(date time.Time, items []DigestItem) (string, error) {
	var buf strings.Builder
	err := digestTmpl.Execute(&buf, struct {
		Date  string
		Items []DigestItem
	}{
		Date:  date.Format("2006-01-02"),
		Items: items,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

var futuresTmpl = template.Must(template.New("futures").Parse(`<html><body>
<h2>Premarket futures - {{.Date}}</h2>
<table border="1" cellpadding="4">
<tr><th>Index</th><th>Price</th><th>Change</th><th>%</th></tr>
{{range .Quotes}}<tr><td>{{.Name}}</td><td>{{printf "%.2f" .Price}}</td><td>{{printf "%+.2f" .Change}}</td><td>{{printf "%+.2f%%" .ChangePercent}}</td></tr>
{{end}}</table>
</body></html>
`))

// BuildFuturesHTML renders the futures email body.
func BuildFuturesHTML(date time.Time, quotes []FuturesQuote) (string, error) {
	var buf strings.Builder
	err := futuresTmpl.Execute(&buf, struct {
		Date   string
		Quotes []FuturesQuote
	}{
		Date:   date.Format("2006-01-02"),
		Quotes: quotes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render futures email: %w", err)
	}
	return buf.String(), nil
}
