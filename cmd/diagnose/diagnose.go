package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"feedhub/internal/domain/entity"
	"feedhub/internal/extract"
	"feedhub/internal/usecase/fetch"
)

// Diagnostic is the probe result for one configured source.
type Diagnostic struct {
	Category   string            `json:"category"`
	URL        string            `json:"url"`
	Kind       entity.SourceKind `json:"kind"`
	Status     fetch.Reason      `json:"status"`
	HTTPCode   int               `json:"http_code,omitempty"`
	Entries    int               `json:"entries"`
	Usable     int               `json:"usable"`
	WithImage  int               `json:"with_image"`
	Latest     string            `json:"latest,omitempty"`
	DurationMS int64             `json:"response_time_ms"`
	Error      string            `json:"error,omitempty"`
}

// OK reports whether the source produced at least one usable article.
func (d Diagnostic) OK() bool {
	return d.Status == fetch.ReasonOK && d.Usable > 0
}

type prober struct {
	fetchers    map[entity.SourceKind]fetch.EntryFetcher
	publisher   string
	timeout     time.Duration
	parallelism int
}

// probeAll checks every source and returns diagnostics in source order.
func (p prober) probeAll(ctx context.Context, sources []entity.Source) []Diagnostic {
	out := make([]Diagnostic, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.parallelism, 1))
	for i, src := range sources {
		g.Go(func() error {
			out[i] = p.probe(gctx, src)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p prober) probe(ctx context.Context, src entity.Source) Diagnostic {
	d := Diagnostic{Category: src.Category, URL: src.URL, Kind: src.Kind}

	f, ok := p.fetchers[src.Kind]
	if !ok {
		d.Status = fetch.ReasonUnsupportedKind
		d.Error = fmt.Sprintf("%v: %q", fetch.ErrUnsupportedKind, src.Kind)
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	entries, err := f.Fetch(ctx, src.URL)
	d.DurationMS = time.Since(start).Milliseconds()
	if err == nil && len(entries) == 0 {
		err = fetch.ErrEmptyFeed
	}
	if err != nil {
		d.Status = fetch.Classify(err)
		d.Error = err.Error()
		var statusErr *fetch.HTTPStatusError
		if errors.As(err, &statusErr) {
			d.HTTPCode = statusErr.StatusCode
		}
		return d
	}

	d.Status = fetch.ReasonOK
	d.Entries = len(entries)
	d.Latest = extract.Timestamp(entries[0].Published)
	opts := extract.BuildOptions{Category: src.Category, Publisher: p.publisher, Base: src.URL}
	for _, e := range entries {
		a, err := extract.BuildArticle(e, opts)
		if err != nil {
			continue
		}
		d.Usable++
		if a.HasImage() {
			d.WithImage++
		}
	}
	return d
}

// writeText renders a summary followed by one row per source.
func writeText(w io.Writer, diags []Diagnostic, generated time.Time) error {
	counts := make(map[fetch.Reason]int)
	healthy := 0
	for _, d := range diags {
		counts[d.Status]++
		if d.OK() {
			healthy++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feed diagnostic report\n")
	fmt.Fprintf(&b, "Generated: %s\n", generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Sources: %d  healthy: %d  failing: %d\n\n", len(diags), healthy, len(diags)-healthy)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSTATUS\tHTTP\tENTRIES\tUSABLE\tIMAGES\tLATEST\tTIME\tERROR")
	for _, d := range diags {
		code := "-"
		if d.HTTPCode != 0 {
			code = fmt.Sprint(d.HTTPCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%dms\t%s\n",
			d.Category, d.Status, code, d.Entries, d.Usable, d.WithImage,
			orDash(d.Latest), d.DurationMS, orDash(d.Error))
	}
	return tw.Flush()
}

// writeJSON emits the report as one JSON document.
func writeJSON(w io.Writer, diags []Diagnostic, generated time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Generated   time.Time    `json:"generated"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}{generated.UTC(), diags})
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
