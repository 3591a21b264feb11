package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jsliwa/docatlas"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	report, err := deps.Session.Run(deps.Ctx, c.URL, c.Query)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docatlas.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReport(deps, report)
	return nil
}

func printReport(deps *Dependencies, report *docatlas.SessionReport) {
	fmt.Fprintf(deps.Stdout, "Crawled %d pages (max depth %d) in %s\n",
		report.PagesCrawled, report.MaxDepthReached, report.Duration.Round(time.Millisecond))

	if report.TotalEndpoints == 0 {
		fmt.Fprintln(deps.Stdout, "No endpoints found.")
	} else {
		fmt.Fprintf(deps.Stdout, "Endpoints: %d (%s)\n", report.TotalEndpoints, methodBreakdown(report.EndpointsByMethod))
	}

	if len(report.Failures) > 0 {
		fmt.Fprintf(deps.Stdout, "Failures: %d\n", len(report.Failures))
		for _, f := range report.Failures {
			fmt.Fprintf(deps.Stdout, "  %s  %s  %s\n", f.Stage, truncateURL(f.URL, 60), f.Message)
		}
	}
}

// methodBreakdown renders per-method counts in a stable order.
func methodBreakdown(byMethod map[string]int) string {
	methods := make([]string, 0, len(byMethod))
	for m := range byMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	out := ""
	for i, m := range methods {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %d", m, byMethod[m])
	}
	return out
}
