package stats

import (
	"github.com/shopspring/decimal"

	"waste-recycling-tracker/internal/domain"
)

// Compute 单次遍历得出全部分组；familyScoped 时 totalFamilies 固定为 1（即使没有记录）
func Compute(entries []domain.WasteEntry, familyScoped bool) *domain.Statistics {
	st := domain.NewStatistics()

	total := decimal.Zero
	byType := map[string]decimal.Decimal{}
	byStatus := map[string]decimal.Decimal{}
	families := map[string]struct{}{}

	for _, e := range entries {
		q := decimal.NewFromFloat(e.Quantity)
		status := e.Status.String()

		st.TotalEntries++
		total = total.Add(q)

		st.CountByWasteType[e.WasteType]++
		byType[e.WasteType] = byType[e.WasteType].Add(q)

		st.CountByStatus[status]++
		byStatus[status] = byStatus[status].Add(q)

		families[e.FamilyName] = struct{}{}

		switch e.Status {
		case domain.StatusPending:
			st.PendingEntries++
		case domain.StatusProcessing:
			st.ProcessingEntries++
		case domain.StatusRecycled:
			st.RecycledEntries++
		}
	}

	st.TotalQuantity = total.InexactFloat64()
	for k, v := range byType {
		st.QuantityByWasteType[k] = v.InexactFloat64()
	}
	for k, v := range byStatus {
		st.QuantityByStatus[k] = v.InexactFloat64()
	}
	if familyScoped {
		st.TotalFamilies = 1
	} else {
		st.TotalFamilies = int64(len(families))
	}
	return st
}
