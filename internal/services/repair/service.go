// Package repair holds the operator-invoked batch procedures that detect and
// fix state left inconsistent by writes that bypassed the cascade (bulk link
// inserts, partial failures, historical defects). All three jobs support dry
// runs and are safe to re-run.
package repair

import (
	"time"

	"github.com/kargoline/tmsgo/internal/services/cascade"
	"github.com/kargoline/tmsgo/internal/store"
	"github.com/sirupsen/logrus"
)

// reattachWindow is how far a cancelled job order's creation may precede the
// manifest's creation and still count as belonging to the same booking run.
const reattachWindow = 24 * time.Hour

// Options selects dry-run mode and an optional single-document scope
type Options struct {
	DryRun  bool   `json:"dry_run"`
	ScopeID string `json:"scope_id,omitempty"`
}

// Detail is one per-entity line in a repair report
type Detail struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	Note   string `json:"note,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report is the structured result of one repair run
type Report struct {
	DryRun    bool     `json:"dry_run"`
	Processed int      `json:"processed"`
	Changed   int      `json:"changed"`
	Unmatched int      `json:"unmatched"`
	Details   []Detail `json:"details"`
}

// Service runs the repair jobs
type Service struct {
	store   *store.Store
	cascade *cascade.Service
	log     *logrus.Entry
}

// New creates the repair service
func New(st *store.Store, casc *cascade.Service) *Service {
	return &Service{
		store:   st,
		cascade: casc,
		log:     logrus.WithField("component", "repair"),
	}
}
