// Package prices renders catalog price tables for chat messages.
package prices

import (
	"strconv"
	"strings"

	"github.com/Houeta/heidi/internal/models"
)

const (
	// Unknown is shown when an entry carries no prices.
	Unknown = "Unknown"
	// Currency follows every displayed cost.
	Currency = ":ft-cookie:"
)

var regionLabels = map[string]string{
	"au": ":flag-au:",
	"ca": ":flag-ca:",
	"eu": ":flag-eu:",
	"in": ":flag-in:",
	"uk": ":flag-gb:",
	"us": ":flag-us:",
	"xx": ":earth_americas:",
}

// Format collapses a price table into a display string: a single shared price when every
// region costs the same, otherwise one line per region in table order.
func Format(table models.PriceTable) string {
	if len(table) == 0 {
		return Unknown
	}

	regions := make([]models.RegionPrice, 0, len(table))
	for _, p := range table {
		if p.Region != models.BaseRegion {
			regions = append(regions, p)
		}
	}

	if len(regions) == 0 {
		base, _ := table.Cost(models.BaseRegion)
		return formatCost(base)
	}

	if shared(regions) {
		return formatCost(regions[0].Cost)
	}

	lines := make([]string, len(regions))
	for i, p := range regions {
		lines[i] = Label(p.Region) + ": " + formatCost(p.Cost)
	}
	return strings.Join(lines, "\n")
}

// Label returns the display token for a region code.
func Label(region string) string {
	if label, ok := regionLabels[strings.ToLower(region)]; ok {
		return label
	}
	return strings.ToUpper(region)
}

func shared(regions []models.RegionPrice) bool {
	for _, p := range regions[1:] {
		if p.Cost != regions[0].Cost {
			return false
		}
	}
	return true
}

func formatCost(cost float64) string {
	return strconv.FormatFloat(cost, 'f', -1, 64) + " " + Currency
}
