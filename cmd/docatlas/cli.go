package main

import (
	"context"
	"io"

	"github.com/jsliwa/docatlas"
	"github.com/jsliwa/docatlas/session"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Records docatlas.RecordStore
	Session *session.Session
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Redis string `help:"Use the Redis record store at HOST:PORT instead of SQLite" placeholder:"HOST:PORT"`

	Crawl   CrawlCmd   `cmd:"" help:"Crawl a documentation site and extract API facts"`
	Records RecordsCmd `cmd:"" help:"List stored extraction records"`
	Version VersionCmd `cmd:"" help:"Print the version"`
}

// CrawlCmd is the "crawl" subcommand. Pointer flags distinguish "not
// given" from a zero value so config-file settings can fill the gaps.
type CrawlCmd struct {
	URL   string `arg:"" help:"Seed documentation URL"`
	Query string `arg:"" optional:"" help:"Free-text hint narrowing the extraction"`

	Depth       *int     `short:"d" help:"Maximum crawl depth (seed is depth 0)"`
	External    *bool    `short:"e" name:"external" help:"Follow links to other hosts"`
	MaxPages    *int     `help:"Maximum pages enqueued per domain"`
	Delay       *float64 `help:"Politeness delay between same-domain requests, in seconds"`
	Robots      *bool    `negatable:"" help:"Respect robots.txt (default true)"`
	Concurrency *int     `short:"c" help:"Concurrent fetch limit per crawl level"`
	Workers     int      `short:"w" default:"5" help:"Concurrent extraction workers"`
	FromSitemap bool     `help:"Seed the crawl from the site's sitemap"`
	MaxAge      string   `name:"max-record-age" default:"168h" help:"Re-analyze stored records older than this"`
	Config      string   `type:"path" help:"YAML settings file (default: .docatlas in cwd or home)"`
	JSON        bool     `help:"Print the session report as JSON"`
}

// RecordsCmd is the "records" subcommand.
type RecordsCmd struct {
	Prefix string `arg:"" optional:"" help:"URL prefix to filter by"`
	Limit  int    `default:"50" help:"Maximum records to list"`
	Offset int    `help:"Records to skip"`
	Full   bool   `help:"Show endpoints and parameters for each record"`
	JSON   bool   `help:"Print records as JSON"`
}

// VersionCmd is the "version" subcommand.
type VersionCmd struct{}
