package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jsliwa/docatlas"
)

// Run executes the records command.
func (c *RecordsCmd) Run(deps *Dependencies) error {
	filter := docatlas.RecordFilter{
		Limit:  c.Limit,
		Offset: c.Offset,
	}
	if c.Prefix != "" {
		filter.URLPrefix = &c.Prefix
	}

	recs, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docatlas.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Fprintln(deps.Stdout, "No records found. Use 'docatlas crawl' to create some.")
		return nil
	}

	for _, rec := range recs {
		fmt.Fprintf(deps.Stdout, "%s  %d endpoints  %s\n",
			truncateURL(rec.SourceURL, 60), len(rec.Endpoints), rec.ExtractedAt.Format(time.RFC3339))
		if c.Full {
			for _, ep := range rec.Endpoints {
				fmt.Fprintf(deps.Stdout, "  %-7s %s", ep.Method, ep.Path)
				if ep.Description != "" {
					fmt.Fprintf(deps.Stdout, "  %s", ep.Description)
				}
				fmt.Fprintln(deps.Stdout)
			}
			for _, p := range rec.Parameters {
				fmt.Fprintf(deps.Stdout, "  param %s (%s, %s)\n", p.Name, p.In, p.Type)
			}
		}
	}

	return nil
}
