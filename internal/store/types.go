// Package store provides SQLite access to the devinsight analysis archive.
package store

import (
	"time"

	"github.com/blackwell-systems/devinsight/internal/analysis"
)

// Record is one archived analysis. List queries leave Result zero; Get
// fills it from the stored JSON.
type Record struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Path        string          `json:"path"`
	ProjectType string          `json:"project_type"`
	Framework   string          `json:"framework"`
	Partial     bool            `json:"partial"`
	RouteCount  int             `json:"route_count"`
	CreatedAt   time.Time       `json:"created_at"`
	Result      analysis.Result `json:"result"`
}
