// internal/pipeline/search-tool/config.go
package searchtool

import "time"

type Config struct {
	// ResultLimit is the default cap applied when the caller passes limit <= 0.
	ResultLimit int
	// Timeout applies per provider request.
	Timeout time.Duration
}
