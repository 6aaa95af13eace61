// Package report renders batch calibration results as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"priorfit/app"
	"priorfit/domain/prior"
)

// Distribution summarizes one metric over the rows that produced it
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// FamilyCount tallies outcomes per family
type FamilyCount struct {
	Family    string `json:"family"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Summary aggregates a batch
type Summary struct {
	BatchID    string        `json:"batch_id"`
	Rows       int           `json:"rows"`
	Succeeded  int           `json:"succeeded"`
	Warned     int           `json:"warned"`
	Failed     int           `json:"failed"`
	MassError  Distribution  `json:"mass_error"`
	Iterations Distribution  `json:"iterations"`
	DurationMS Distribution  `json:"duration_ms"`
	Analytic   int           `json:"analytic_jacobians"`
	Families   []FamilyCount `json:"families"`
}

// Summarize computes batch statistics over the successful rows
func Summarize(result *app.BatchResult) (Summary, error) {
	s := Summary{
		BatchID:   result.ID.String(),
		Rows:      len(result.Items),
		Succeeded: result.Succeeded,
		Warned:    result.Warned,
		Failed:    result.Failed,
	}

	var massErr, iterations, durations []float64
	families := map[string]*FamilyCount{}
	for _, item := range result.Items {
		name := item.Request.Family
		if item.Record != nil {
			name = item.Record.Family
		}
		fc, ok := families[name]
		if !ok {
			fc = &FamilyCount{Family: name}
			families[name] = fc
		}
		if item.Failed() || item.Record == nil {
			fc.Failed++
			continue
		}
		fc.Succeeded++

		rec := item.Record
		if rec.AchievedMass != nil {
			massErr = append(massErr, math.Abs(*rec.AchievedMass-rec.TargetMass))
		}
		iterations = append(iterations, float64(rec.Iterations))
		durations = append(durations, rec.DurationMS)
		if rec.Jacobian == string(prior.JacobianAnalytic) {
			s.Analytic++
		}
	}

	var err error
	if s.MassError, err = describe(massErr); err != nil {
		return s, fmt.Errorf("mass error summary: %w", err)
	}
	if s.Iterations, err = describe(iterations); err != nil {
		return s, fmt.Errorf("iteration summary: %w", err)
	}
	if s.DurationMS, err = describe(durations); err != nil {
		return s, fmt.Errorf("duration summary: %w", err)
	}

	for _, fc := range families {
		s.Families = append(s.Families, *fc)
	}
	sort.Slice(s.Families, func(i, j int) bool { return s.Families[i].Family < s.Families[j].Family })
	return s, nil
}

// describe returns the zero Distribution for no data
func describe(data []float64) (Distribution, error) {
	if len(data) == 0 {
		return Distribution{}, nil
	}
	d := Distribution{Count: len(data)}

	var err error
	if d.Mean, err = stats.Mean(data); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(data); err != nil {
		return d, err
	}
	if d.P90, err = stats.Percentile(data, 90); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(data); err != nil {
		return d, err
	}
	return d, nil
}

// Markdown renders the batch summary followed by one table row per request
func Markdown(result *app.BatchResult) ([]byte, error) {
	s, err := Summarize(result)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "# Prior calibration batch %s\n\n", s.BatchID)
	fmt.Fprintf(&b, "%d rows: %d succeeded (%d with warnings), %d failed. %d used an analytic Jacobian.\n\n",
		s.Rows, s.Succeeded, s.Warned, s.Failed, s.Analytic)

	if s.MassError.Count > 0 {
		b.WriteString("| metric | mean | median | p90 | max |\n")
		b.WriteString("|---|---|---|---|---|\n")
		writeDistribution(&b, "abs mass error", s.MassError, "%.2e")
		writeDistribution(&b, "iterations", s.Iterations, "%.1f")
		writeDistribution(&b, "duration (ms)", s.DurationMS, "%.2f")
		b.WriteString("\n")
	}

	b.WriteString("## Families\n\n| family | succeeded | failed |\n|---|---|---|\n")
	for _, fc := range s.Families {
		fmt.Fprintf(&b, "| %s | %d | %d |\n", escape(fc.Family), fc.Succeeded, fc.Failed)
	}

	b.WriteString("\n## Rows\n\n| row | family | interval | target | achieved | parameters | notes |\n|---|---|---|---|---|---|---|\n")
	for _, item := range result.Items {
		writeItem(&b, item)
	}
	return b.Bytes(), nil
}

// HTML renders the Markdown report as a standalone page
func HTML(result *app.BatchResult) ([]byte, error) {
	md, err := Markdown(result)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Prior calibration batch " + result.ID.String(),
	})
	return markdown.ToHTML(md, p, renderer), nil
}

func writeDistribution(b *bytes.Buffer, name string, d Distribution, format string) {
	f := func(v float64) string { return fmt.Sprintf(format, v) }
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n", name, f(d.Mean), f(d.Median), f(d.P90), f(d.Max))
}

func writeItem(b *bytes.Buffer, item app.BatchItem) {
	req := item.Request
	interval := prior.Interval{Lower: req.Lower, Upper: req.Upper}.String()
	rec := item.Record

	if item.Failed() || rec == nil {
		reason := "no result"
		if item.Err != nil {
			reason = item.Err.Error()
		}
		target := "default"
		if rec != nil {
			target = fmt.Sprintf("%.3g", rec.TargetMass)
		} else if req.Mass != nil {
			target = fmt.Sprintf("%.3g", *req.Mass)
		}
		fmt.Fprintf(b, "| %d | %s | %s | %s | - | - | **failed:** %s |\n",
			item.Row, escape(req.Family), interval, target, escape(reason))
		return
	}

	achieved := "-"
	if rec.AchievedMass != nil {
		achieved = fmt.Sprintf("%.4f", *rec.AchievedMass)
	}
	params := make([]string, len(rec.Params))
	for i, p := range rec.Params {
		params[i] = fmt.Sprintf("%s=%.4g", p.Name, p.Value)
	}
	var notes []string
	for _, d := range rec.Diagnostics {
		if d.Severity == prior.SeverityWarning {
			notes = append(notes, "**warning:** "+d.Message)
		}
	}
	fmt.Fprintf(b, "| %d | %s | %s | %.3g | %s | %s | %s |\n",
		item.Row, escape(rec.Family), interval, rec.TargetMass, achieved,
		strings.Join(params, ", "), escape(strings.Join(notes, " ")))
}

// escape keeps cell text from breaking the table
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
