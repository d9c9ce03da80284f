package dose

// Thresholds for the low-stock classification. A supply is flagged when it
// will be exhausted within two days, or when fewer than five pills remain
// regardless of the dosing rate.
const (
	lowStockDays  = 2
	lowStockPills = 5
)

// Projection is the derived supply state of a tracked medicine. It is
// recomputed on demand from the current quantity and dose schedule and is
// never stored.
type Projection struct {
	Tracked       bool `json:"tracked"`
	DosesPerDay   int  `json:"dosesPerDay"`
	TotalQuantity int  `json:"totalQuantity"`
	DaysRemaining int  `json:"daysRemaining"`
	LowStock      bool `json:"lowStock"`
	OutOfStock    bool `json:"outOfStock"`
}

// Project computes the supply projection for a medicine with doseCount
// scheduled times per day and totalQuantity pills on hand. A nil quantity
// means tracking is inactive: the projection carries no stock flags.
// doseCount is floored at 1 so a medicine always consumes at least one
// pill a day.
func Project(totalQuantity *int, doseCount int) Projection {
	if doseCount < 1 {
		doseCount = 1
	}

	if totalQuantity == nil {
		return Projection{DosesPerDay: doseCount}
	}

	qty := *totalQuantity
	if qty < 0 {
		qty = 0
	}

	days := qty / doseCount

	return Projection{
		Tracked:       true,
		DosesPerDay:   doseCount,
		TotalQuantity: qty,
		DaysRemaining: days,
		LowStock:      days < lowStockDays || qty < lowStockPills,
		OutOfStock:    qty == 0,
	}
}
