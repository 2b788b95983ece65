// Package listview derives the visible page of maintenance requests from a
// full cached list. Everything here is pure.
package listview

import (
	"sort"
	"strings"

	"github.com/ukydev/fleetfix/internal/models"
)

// SortOrder orders by schedule_at.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// DefaultPageSize is the number of requests per page. It matches the
// default query limit, so one fetch fills one page.
const DefaultPageSize = 200

// ParseSortOrder maps anything but "asc" to Desc, newest first.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

// Query selects one page of one tab.
type Query struct {
	Tab      models.Tab
	Order    SortOrder
	Page     int // zero-based
	PageSize int
}

// Page is one rendered page.
type Page struct {
	Items       []models.MaintenanceRequest `json:"items"`
	Tab         models.Tab                  `json:"tab"`
	Page        int                         `json:"page"`
	PageSize    int                         `json:"page_size"`
	TotalCount  int                         `json:"total_count"`
	TotalPages  int                         `json:"total_pages"`
	HasNext     bool                        `json:"has_next"`
	HasPrev     bool                        `json:"has_prev"`
	PageNumbers []int                       `json:"page_numbers"`
	TabCounts   map[models.Tab]int          `json:"tab_counts"`
}

// Partition routes every request to exactly one tab, keeping input order.
func Partition(all []models.MaintenanceRequest) map[models.Tab][]models.MaintenanceRequest {
	out := map[models.Tab][]models.MaintenanceRequest{
		models.TabPending:    {},
		models.TabInProgress: {},
		models.TabCompleted:  {},
	}
	for i := range all {
		tab := all[i].Tab()
		out[tab] = append(out[tab], all[i])
	}
	return out
}

// Sort returns a copy of items stably ordered by schedule_at.
func Sort(items []models.MaintenanceRequest, order SortOrder) []models.MaintenanceRequest {
	type keyed struct {
		at  int64
		req models.MaintenanceRequest
	}
	ks := make([]keyed, len(items))
	for i := range items {
		ks[i] = keyed{at: items[i].ScheduledTime().UnixMilli(), req: items[i]}
	}
	sort.SliceStable(ks, func(a, b int) bool {
		if order == Asc {
			return ks[a].at < ks[b].at
		}
		return ks[a].at > ks[b].at
	})

	out := make([]models.MaintenanceRequest, len(ks))
	for i := range ks {
		out[i] = ks[i].req
	}
	return out
}

// TotalPages is ceil(count/pageSize), at least 1.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// Build partitions, sorts and paginates. A page index outside
// [0, TotalPages) is clamped into range.
func Build(all []models.MaintenanceRequest, q Query) Page {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if !models.IsValidTab(q.Tab) {
		q.Tab = models.TabPending
	}

	parts := Partition(all)
	filtered := Sort(parts[q.Tab], q.Order)
	count := len(filtered)
	total := TotalPages(count, q.PageSize)

	page := q.Page
	if page < 0 {
		page = 0
	}
	if page > total-1 {
		page = total - 1
	}

	start := page * q.PageSize
	end := start + q.PageSize
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}

	counts := make(map[models.Tab]int, len(parts))
	for tab, items := range parts {
		counts[tab] = len(items)
	}

	return Page{
		Items:       filtered[start:end],
		Tab:         q.Tab,
		Page:        page,
		PageSize:    q.PageSize,
		TotalCount:  count,
		TotalPages:  total,
		HasNext:     (page+1)*q.PageSize < count,
		HasPrev:     page > 0,
		PageNumbers: PageNumbers(page, total, 5),
		TabCounts:   counts,
	}
}

// PageNumbers returns up to window zero-based page indices centred on
// current, shifted to stay within [0, total).
func PageNumbers(current, total, window int) []int {
	if total <= 0 {
		return []int{}
	}
	if window <= 0 || window > total {
		window = total
	}
	start := current - window/2
	if start < 0 {
		start = 0
	}
	if start+window > total {
		start = total - window
	}
	out := make([]int, window)
	for i := range out {
		out[i] = start + i
	}
	return out
}
