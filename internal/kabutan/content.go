package kabutan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kabuka/internal/price"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	dateFormat = "2006-01-02"

	// Japanese convention: rising candles red, falling candles blue.
	risingColor  = "#d32f2f"
	fallingColor = "#1565c0"
)

var tableHeader = table.Row{"Date", "Open", "High", "Low", "Close", "Change", "Change %", "Volume"}

// PriceContent renders a price series, implements scraper.Content
type PriceContent struct {
	series    price.Series
	sourceURL string
}

// NewPriceContent creates a new PriceContent instance
func NewPriceContent(series price.Series, sourceURL string) *PriceContent {
	return &PriceContent{series: series, sourceURL: sourceURL}
}

// newTable builds the price table; null cells are rendered as nullText
func (p *PriceContent) newTable(nullText string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault

	configs := make([]table.ColumnConfig, 0, len(tableHeader)-1)
	for i := 2; i <= len(tableHeader); i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	t.AppendHeader(tableHeader)
	for _, r := range p.series.Records {
		t.AppendRow(table.Row{
			formatDate(r.Date, nullText),
			formatFloat(r.Open, nullText),
			formatFloat(r.High, nullText),
			formatFloat(r.Low, nullText),
			formatFloat(r.Close, nullText),
			formatFloat(r.Change, nullText),
			formatFloat(r.ChangePercent, nullText),
			formatInt(r.Volume, nullText),
		})
	}
	return t
}

func (p *PriceContent) title() string {
	return fmt.Sprintf("%s daily prices", p.series.Symbol)
}

// ToText returns a boxed text table
func (p *PriceContent) ToText() (string, error) {
	t := p.newTable("-")
	t.SetTitle(p.title())
	out := t.Render()
	if p.series.Len() == 0 {
		out += "\n(no rows)"
	}
	return out, nil
}

// ToHTML returns an HTML table
func (p *PriceContent) ToHTML() (string, error) {
	return p.newTable("-").RenderHTML(), nil
}

// ToMarkdown converts the HTML table to a Markdown table
func (p *PriceContent) ToMarkdown() (string, error) {
	html, err := p.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	return fmt.Sprintf("## %s\n\n%s\n", p.title(), strings.TrimSpace(markdown)), nil
}

// ToCSV returns CSV with empty fields for missing values
func (p *PriceContent) ToCSV() (string, error) {
	return p.newTable("").RenderCSV(), nil
}

// ToJSON returns JSON format content, missing values are null
func (p *PriceContent) ToJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Symbol    string         `json:"symbol"`
		Source    string         `json:"source"`
		FetchedAt time.Time      `json:"fetched_at"`
		Records   []price.Record `json:"records"`
	}{
		Symbol:    p.series.Symbol,
		Source:    p.sourceURL,
		FetchedAt: p.series.FetchedAt,
		Records:   p.series.Records,
	}, "", "  ")
}

// ToChart returns an HTML page with a candlestick chart, oldest date first.
// Rows missing any of open/high/low/close or the date are left out.
func (p *PriceContent) ToChart() (string, error) {
	records := p.series.Ascending()

	dates := make([]string, 0, len(records))
	candles := make([]opts.KlineData, 0, len(records))
	for _, r := range records {
		dates = append(dates, r.Date.Format(dateFormat))
		// echarts order: open, close, low, high
		candles = append(candles, opts.KlineData{Value: [4]float64{*r.Open, *r.Close, *r.Low, *r.High}})
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: p.title(), Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: p.title(), Subtitle: p.sourceURL}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	kline.SetXAxis(dates).AddSeries("price", candles).SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        risingColor,
			Color0:       fallingColor,
			BorderColor:  risingColor,
			BorderColor0: fallingColor,
		}),
	)

	var buf bytes.Buffer
	if err := kline.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

func formatDate(d *time.Time, nullText string) string {
	if d == nil {
		return nullText
	}
	return d.Format(dateFormat)
}

func formatFloat(v *float64, nullText string) string {
	if v == nil {
		return nullText
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int64, nullText string) string {
	if v == nil {
		return nullText
	}
	return strconv.FormatInt(*v, 10)
}
