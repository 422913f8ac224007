package pricing

import (
	"sort"
	"strings"

	"github.com/paulgagnon1969/nexus-enterprise-sub002/internal/model"
)

// AllActivities is the group name used for matches without an activity.
const AllActivities = "ALL"

type groupKey struct {
	category string
	activity string
}

// AggregateByCategory groups matches by (category, activity) and summarizes
// each group's price variance. Matches with a blank activity fall into the
// category-wide group, stored with a nil Activity.
//
// The median is the element at index n/2 of the sorted variances, i.e. the
// upper of the two middle values for an even group.
func AggregateByCategory(matches []PriceMatch) []model.CategoryAdjustment {
	groups := make(map[groupKey][]float64)
	for _, m := range matches {
		activity := strings.TrimSpace(m.Activity)
		if activity == "" {
			activity = AllActivities
		}
		key := groupKey{category: m.CategoryCode, activity: activity}
		groups[key] = append(groups[key], m.PriceVariance)
	}

	adjustments := make([]model.CategoryAdjustment, 0, len(groups))
	for key, variances := range groups {
		sort.Float64s(variances)

		var sum float64
		for _, v := range variances {
			sum += v
		}

		adj := model.CategoryAdjustment{
			CategoryCode:   key.category,
			AvgVariance:    sum / float64(len(variances)),
			MedianVariance: variances[len(variances)/2],
			SampleSize:     len(variances),
		}
		if key.activity != AllActivities {
			activity := key.activity
			adj.Activity = &activity
		}
		adjustments = append(adjustments, adj)
	}

	sort.Slice(adjustments, func(i, j int) bool {
		a, b := adjustments[i], adjustments[j]
		if a.CategoryCode != b.CategoryCode {
			return a.CategoryCode < b.CategoryCode
		}
		if (a.Activity == nil) != (b.Activity == nil) {
			return a.Activity == nil
		}
		return a.ActivityOrEmpty() < b.ActivityOrEmpty()
	})

	return adjustments
}
