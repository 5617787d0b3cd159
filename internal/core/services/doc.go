// Package services implements the driving port interfaces.
// Services contain the core business logic of the handbook search
// engine and orchestrate calls to driven ports (adapters).
//
// The pipeline is: SearchIndex (crawl + FieldExtractor) feeds records
// to a Scorer (exact or approximate); ExcerptBuilder turns match spans
// into previews; SearchService composes the steps per query.
//
// Services are pure Go and never import adapter packages.
package services
