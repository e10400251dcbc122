package domain

// Statistics 汇总报表；JSON 字段名与前端保持一致
type Statistics struct {
	TotalEntries        int64              `json:"totalEntries"`
	TotalQuantity       float64            `json:"totalQuantity"`
	CountByWasteType    map[string]int64   `json:"wasteTypeCount"`
	QuantityByWasteType map[string]float64 `json:"wasteTypeQuantity"`
	CountByStatus       map[string]int64   `json:"statusCount"`
	QuantityByStatus    map[string]float64 `json:"statusQuantity"`
	TotalFamilies       int64              `json:"totalFamilies"`
	PendingEntries      int64              `json:"pendingEntries"`
	ProcessingEntries   int64              `json:"processingEntries"`
	RecycledEntries     int64              `json:"recycledEntries"`
}

// NewStatistics 返回 map 已初始化的空报表（序列化为 {} 而非 null）
func NewStatistics() *Statistics {
	return &Statistics{
		CountByWasteType:    map[string]int64{},
		QuantityByWasteType: map[string]float64{},
		CountByStatus:       map[string]int64{},
		QuantityByStatus:    map[string]float64{},
	}
}
