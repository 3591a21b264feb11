// Package docatlas turns an API documentation website into a bounded,
// de-duplicated set of crawled pages and a persistent set of extracted
// API facts (endpoints and parameters). It combines a depth-bounded
// breadth-first crawler, an LLM-backed content analyzer, and a key-value
// record store that de-duplicates analysis across sessions.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, goquery/), with
// orchestration in crawl/, extract/ and session/.
package docatlas
