package report

import (
	"github.com/shopspring/decimal"

	"bjt/internal/core"
)

// DayRow is one line of the fixed-size daily breakdown table.
type DayRow struct {
	Day            int             `json:"day"`
	Income         decimal.Decimal `json:"income"`
	Expenses       decimal.Decimal `json:"expenses"`
	Cash           decimal.Decimal `json:"cash"`
	CarCash        decimal.Decimal `json:"carCash"`
	SpeedboatCash  decimal.Decimal `json:"speedboatCash"`
	RestaurantCash decimal.Decimal `json:"restaurantCash"`
}

// AssetDay is the income and cost of one asset on one day.
type AssetDay struct {
	Day      int             `json:"day"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// AssetRow summarises one named car or speedboat over the period.
type AssetRow struct {
	Type     core.AssetType  `json:"type"`
	Name     string          `json:"name"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
	Daily    []AssetDay      `json:"daily"`
}

// View is the serialisable form of a report for one period.
type View struct {
	Period               core.Period          `json:"period"`
	Days                 []int                `json:"days"`
	TotalIncome          decimal.Decimal      `json:"totalIncome"`
	TotalExpenses        decimal.Decimal      `json:"totalExpenses"`
	TotalMonthlyExpenses decimal.Decimal      `json:"totalMonthlyExpenses"`
	TotalBalance         decimal.Decimal      `json:"totalBalance"`
	TotalCash            decimal.Decimal      `json:"totalCash"`
	CarCash              decimal.Decimal      `json:"carCash"`
	SpeedboatCash        decimal.Decimal      `json:"speedboatCash"`
	RestaurantCash       decimal.Decimal      `json:"restaurantCash"`
	CarNames             []string             `json:"carNames"`
	SpeedboatNames       []string             `json:"speedboatNames"`
	Daily                []DayRow             `json:"daily"`
	Assets               []AssetRow           `json:"assets"`
	MonthlyExpense       *core.MonthlyExpense `json:"monthlyExpense,omitempty"`
	TransactionCount     int                  `json:"transactionCount"`
}

// Summary renders the report for period. The daily table always has one
// row per calendar day of the period, whether or not anything was logged.
func (r *Report) Summary(period core.Period) View {
	days := period.Days()
	v := View{
		Period:               period,
		Days:                 days,
		TotalIncome:          r.Income(),
		TotalExpenses:        r.Expenses(),
		TotalMonthlyExpenses: r.MonthlyExpenses(),
		TotalBalance:         r.Balance(),
		TotalCash:            r.TotalCash(""),
		CarCash:              r.TotalCash(core.AssetCar),
		SpeedboatCash:        r.TotalCash(core.AssetSpeedboat),
		RestaurantCash:       r.TotalCash(core.AssetRestaurant),
		CarNames:             r.CarNames(),
		SpeedboatNames:       r.SpeedboatNames(),
		Daily:                make([]DayRow, 0, len(days)),
		TransactionCount:     len(r.transactions),
	}

	for _, day := range days {
		v.Daily = append(v.Daily, DayRow{
			Day:            day,
			Income:         r.DailyIncome(day, Filter{}),
			Expenses:       r.DailyExpenses(day, ""),
			Cash:           r.DailyCash(day, ""),
			CarCash:        r.DailyCash(day, core.AssetCar),
			SpeedboatCash:  r.DailyCash(day, core.AssetSpeedboat),
			RestaurantCash: r.DailyCash(day, core.AssetRestaurant),
		})
	}

	for _, group := range []struct {
		assetType core.AssetType
		names     []string
	}{
		{core.AssetCar, v.CarNames},
		{core.AssetSpeedboat, v.SpeedboatNames},
	} {
		for _, name := range group.names {
			v.Assets = append(v.Assets, r.assetRow(group.assetType, name, days))
		}
	}

	if len(r.monthlyExpenses) > 0 {
		me := r.monthlyExpenses[0]
		v.MonthlyExpense = &me
	}
	return v
}

func (r *Report) assetRow(assetType core.AssetType, name string, days []int) AssetRow {
	f := Filter{AssetType: assetType, AssetName: name}
	row := AssetRow{
		Type:     assetType,
		Name:     name,
		Income:   r.TotalIncome(f),
		Expenses: r.TotalExpenses(name),
		Daily:    make([]AssetDay, 0, len(days)),
	}
	row.Net = row.Income.Sub(row.Expenses)
	for _, day := range days {
		row.Daily = append(row.Daily, AssetDay{
			Day:      day,
			Income:   r.DailyIncome(day, f),
			Expenses: r.DailyExpenses(day, name),
		})
	}
	return row
}
