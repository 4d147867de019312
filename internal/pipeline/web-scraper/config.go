// internal/pipeline/web-scraper/config.go
package webscraper

import "time"

type Config struct {
	UserAgent string
	// Timeout applies per page fetch.
	Timeout time.Duration
	// MaxConcurrency bounds parallel fetches across hosts.
	MaxConcurrency int
	// MaxContentChars truncates cleaned text; MinContentChars below which the
	// primary extraction is considered to have missed the article body.
	MaxContentChars int
	MinContentChars int
	RespectRobots   bool
}
