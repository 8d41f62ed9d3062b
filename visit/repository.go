// ABOUTME: Summary repository: saved visits that already have a generated summary
// ABOUTME: Newest first, filtered by a case-insensitive query
package visit

import (
	"sort"
	"strings"

	"github.com/harperreed/onsite/models"
)

// Repository lists visits with a summary, most recently updated first.
// A non-empty query must appear in the customer name, account id or summary.
func (w *Workspace) Repository(query string) ([]models.Visit, error) {
	all, err := w.store.LoadAll()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Visit, 0, len(all))
	for _, v := range all {
		if v.GeneratedSummary == "" {
			continue
		}
		if q != "" && !matches(v, q) {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Drafts lists visits without a summary yet, most recently updated first.
func (w *Workspace) Drafts() ([]models.Visit, error) {
	all, err := w.store.LoadAll()
	if err != nil {
		return nil, err
	}

	out := make([]models.Visit, 0, len(all))
	for _, v := range all {
		if v.GeneratedSummary == "" {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func matches(v models.Visit, q string) bool {
	for _, field := range []string{v.CustomerName, v.AccountID, v.GeneratedSummary} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
