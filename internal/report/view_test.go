package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjt/internal/core"
)

func TestSummary(t *testing.T) {
	monthly := core.MonthlyExpense{ID: "m1", Year: 2024, Month: 3, StaffSalary: dec(500000)}.ComputeTotal()
	r := Compute(sample(), []core.MonthlyExpense{monthly})
	v := r.Summary(core.Period{Year: 2024, Month: 3})

	require.Len(t, v.Daily, 31)
	assert.Equal(t, 31, len(v.Days))
	assert.Equal(t, 1, v.Daily[0].Day)
	assert.Equal(t, 31, v.Daily[30].Day)
	assert.Equal(t, 6, v.TransactionCount)

	assertAmount(t, 1880000, v.TotalIncome)
	assertAmount(t, 120000, v.TotalExpenses)
	assertAmount(t, 500000, v.TotalMonthlyExpenses)
	assertAmount(t, 1880000-120000-500000, v.TotalBalance)
	assertAmount(t, 1350000, v.TotalCash)
	assertAmount(t, 50000, v.CarCash)
	assertAmount(t, 50000, v.SpeedboatCash)
	assertAmount(t, 1250000, v.RestaurantCash)

	day5 := v.Daily[4]
	assertAmount(t, 550000, day5.Income)
	assertAmount(t, 80000, day5.Expenses)
	assertAmount(t, 40000, day5.CarCash)
	assertAmount(t, 0, v.Daily[1].Income)

	assert.Equal(t, []string{"Veloz 2021", "Avanza 2023"}, v.CarNames)
	require.Len(t, v.Assets, 4)
	first := v.Assets[0]
	assert.Equal(t, core.AssetCar, first.Type)
	assert.Equal(t, "Veloz 2021", first.Name)
	assertAmount(t, 380000, first.Income)
	assertAmount(t, 120000, first.Expenses)
	assertAmount(t, 260000, first.Net)
	require.Len(t, first.Daily, 31)
	assertAmount(t, 180000, first.Daily[30].Income)

	require.NotNil(t, v.MonthlyExpense)
	assert.Equal(t, "m1", v.MonthlyExpense.ID)
}

func TestSummaryEmptyLeapFebruary(t *testing.T) {
	v := Compute(nil, nil).Summary(core.Period{Year: 2024, Month: 2})
	assert.Len(t, v.Daily, 29)
	assert.Empty(t, v.Assets)
	assert.Nil(t, v.MonthlyExpense)
	assertAmount(t, 0, v.TotalBalance)

	b, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalBalance":"0"`)
	assert.Contains(t, string(b), `"period":{"year":2024,"month":2}`)
}
