package grouper

import (
	"sort"
	"strings"

	"github.com/flojun/oceanstar-admin-page-sub000/internal/models"
)

// GroupingConfig controls how settlement rows are clustered into excel
// groups.
type GroupingConfig struct {
	// ConsecutiveDayWindow is the maximum gap in calendar days between
	// receipt dates of same-customer rows that still merge into one
	// group. Adjacent days merge at the default of 1.
	ConsecutiveDayWindow int `json:"consecutive_day_window"`

	// CancellationMarkers are status substrings that flag a row as a
	// cancellation or refund, matched case-insensitively.
	CancellationMarkers []string `json:"cancellation_markers"`
}

// DefaultGroupingConfig returns the grouping defaults.
func DefaultGroupingConfig() *GroupingConfig {
	return &GroupingConfig{
		ConsecutiveDayWindow: 1,
		CancellationMarkers:  []string{"취소", "환불", "cancel", "refund"},
	}
}

// hasCancellationMarker reports whether the status carries any marker.
func (gc *GroupingConfig) hasCancellationMarker(status string) bool {
	lowered := strings.ToLower(status)
	for _, marker := range gc.CancellationMarkers {
		if marker != "" && strings.Contains(lowered, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// indexedRow carries the original encounter index alongside the row so
// clusters can restore input order after date-sorted clustering.
type indexedRow struct {
	index int
	row   models.SettlementRow
}

// orderedGroup pairs a built group with the encounter index of its first
// row, used to restore global input order across customers.
type orderedGroup struct {
	firstIndex int
	group      *models.ExcelGroup
}

// GroupSettlementRows collapses parsed settlement rows into ExcelGroups.
// Rows group by normalized customer name; same-customer rows whose receipt
// dates fall within the consecutive-day window merge into a single group
// keyed at the MINIMUM receipt date of the cluster. Rows without a receipt
// date cluster by equal tour date instead.
//
// Group order follows encounter order of each group's first row, so the
// result is deterministic for identical input.
func GroupSettlementRows(rows []models.SettlementRow, config *GroupingConfig) []*models.ExcelGroup {
	if config == nil {
		config = DefaultGroupingConfig()
	}

	customerKeys := make([]string, 0, len(rows))
	byCustomer := make(map[string][]indexedRow, len(rows))

	for i, row := range rows {
		key := models.NormalizeName(row.CustomerName)
		if _, exists := byCustomer[key]; !exists {
			customerKeys = append(customerKeys, key)
		}
		byCustomer[key] = append(byCustomer[key], indexedRow{index: i, row: row})
	}

	var ordered []orderedGroup
	for _, key := range customerKeys {
		for _, cluster := range clusterRows(byCustomer[key], config.ConsecutiveDayWindow) {
			ordered = append(ordered, buildGroup(cluster, config))
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].firstIndex < ordered[j].firstIndex
	})

	groups := make([]*models.ExcelGroup, len(ordered))
	for i, og := range ordered {
		groups[i] = og.group
	}

	return groups
}

// clusterRows splits one customer's rows into receipt-date clusters.
// Dated rows sort ascending and merge while the gap between neighboring
// dates stays within the window; undated rows cluster by tour date.
func clusterRows(rows []indexedRow, window int) [][]indexedRow {
	var dated, undated []indexedRow
	for _, ir := range rows {
		if ir.row.HasReceiptDate() {
			dated = append(dated, ir)
		} else {
			undated = append(undated, ir)
		}
	}

	var clusters [][]indexedRow

	if len(dated) > 0 {
		sort.SliceStable(dated, func(i, j int) bool {
			a := models.TruncateToDay(dated[i].row.ReceiptDate)
			b := models.TruncateToDay(dated[j].row.ReceiptDate)
			if a.Equal(b) {
				return dated[i].index < dated[j].index
			}
			return a.Before(b)
		})

		current := []indexedRow{dated[0]}
		for _, ir := range dated[1:] {
			prev := current[len(current)-1].row.ReceiptDate
			if models.DayDiff(ir.row.ReceiptDate, prev) <= window {
				current = append(current, ir)
			} else {
				clusters = append(clusters, current)
				current = []indexedRow{ir}
			}
		}
		clusters = append(clusters, current)
	}

	if len(undated) > 0 {
		tourKeys := make([]string, 0, len(undated))
		byTour := make(map[string][]indexedRow)
		for _, ir := range undated {
			key := models.TruncateToDay(ir.row.TourDate).Format("2006-01-02")
			if _, exists := byTour[key]; !exists {
				tourKeys = append(tourKeys, key)
			}
			byTour[key] = append(byTour[key], ir)
		}
		for _, key := range tourKeys {
			clusters = append(clusters, byTour[key])
		}
	}

	return clusters
}

// buildGroup folds one cluster into an ExcelGroup. Rows end up in
// encounter order; the group's receipt date is the cluster minimum.
func buildGroup(cluster []indexedRow, config *GroupingConfig) orderedGroup {
	members := make([]indexedRow, len(cluster))
	copy(members, cluster)
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].index < members[j].index
	})

	first := members[0].row
	group := &models.ExcelGroup{
		CustomerName: first.CustomerName,
		TourDate:     models.TruncateToDay(first.TourDate),
		Option:       first.Option,
		ProductName:  first.ProductName,
		Status:       first.Status,
		Platform:     first.Platform,
	}

	cancelled := false
	for _, member := range members {
		row := member.row
		group.Rows = append(group.Rows, row)

		group.TotalAmount = group.TotalAmount.Add(row.Amount)
		group.TotalPax += row.PaxCount
		group.AdultCount += row.AdultCount
		group.ChildCount += row.ChildCount

		if row.HasReceiptDate() {
			day := models.TruncateToDay(row.ReceiptDate)
			if group.ReceiptDate.IsZero() || day.Before(group.ReceiptDate) {
				group.ReceiptDate = day
			}
		}

		if config.hasCancellationMarker(row.Status) {
			cancelled = true
		}
	}

	if cancelled {
		if group.TotalAmount.Sign() <= 0 {
			group.IsFullCancellation = true
		} else {
			group.IsPartialRefund = true
		}
	}

	return orderedGroup{firstIndex: members[0].index, group: group}
}
