// Package report aggregates one period's transactions and monthly expenses
// into the totals shown on the monthly report.
//
// Every query is a pure function of the records passed to Compute. A
// Report never mutates its input and is safe for concurrent use.
package report

import (
	"github.com/shopspring/decimal"

	"bjt/internal/core"
)

// Filter narrows a query by asset. Zero fields match everything; set
// fields match by exact equality.
type Filter struct {
	AssetType core.AssetType
	AssetName string
}

func (f Filter) match(t core.Transaction) bool {
	if f.AssetType != "" && t.AssetType != f.AssetType {
		return false
	}
	if f.AssetName != "" && t.AssetName != f.AssetName {
		return false
	}
	return true
}

// Report is a read-only view over the records of one period.
type Report struct {
	transactions    []core.Transaction
	monthlyExpenses []core.MonthlyExpense
}

// Compute builds a report. Inputs are expected to be restricted to the
// selected period already; the slices are copied.
func Compute(transactions []core.Transaction, monthlyExpenses []core.MonthlyExpense) *Report {
	return &Report{
		transactions:    append([]core.Transaction(nil), transactions...),
		monthlyExpenses: append([]core.MonthlyExpense(nil), monthlyExpenses...),
	}
}

// MonthlyExpenseRecords returns a copy of the report's monthly expenses.
func (r *Report) MonthlyExpenseRecords() []core.MonthlyExpense {
	return append([]core.MonthlyExpense(nil), r.monthlyExpenses...)
}

func (r *Report) sum(keep func(core.Transaction) bool, value func(core.Transaction) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, t := range r.transactions {
		if keep(t) {
			total = total.Add(value(t))
		}
	}
	return total
}

func onDay(day int, f Filter) func(core.Transaction) bool {
	return func(t core.Transaction) bool {
		return t.Date.Day() == day && f.match(t)
	}
}

func price(t core.Transaction) decimal.Decimal     { return t.Price }
func expenses(t core.Transaction) decimal.Decimal  { return t.Expenses() }
func dailyCash(t core.Transaction) decimal.Decimal { return t.DailyCash }

// DailyIncome sums Price over the transactions of the given day.
func (r *Report) DailyIncome(day int, f Filter) decimal.Decimal {
	return r.sum(onDay(day, f), price)
}

// DailyExpenses sums fuel and driver costs over the transactions of the
// given day, optionally for one asset name.
func (r *Report) DailyExpenses(day int, assetName string) decimal.Decimal {
	return r.sum(onDay(day, Filter{AssetName: assetName}), expenses)
}

// DailyCash sums the stored daily cash of the given day, optionally for one
// asset type.
func (r *Report) DailyCash(day int, assetType core.AssetType) decimal.Decimal {
	return r.sum(onDay(day, Filter{AssetType: assetType}), dailyCash)
}

func (r *Report) TotalIncome(f Filter) decimal.Decimal {
	return r.sum(f.match, price)
}

func (r *Report) TotalExpenses(assetName string) decimal.Decimal {
	return r.sum(Filter{AssetName: assetName}.match, expenses)
}

func (r *Report) TotalCash(assetType core.AssetType) decimal.Decimal {
	return r.sum(Filter{AssetType: assetType}.match, dailyCash)
}

// Income is the unfiltered total income of the period.
func (r *Report) Income() decimal.Decimal {
	return r.TotalIncome(Filter{})
}

// Expenses is the unfiltered total of operational costs.
func (r *Report) Expenses() decimal.Decimal {
	return r.TotalExpenses("")
}

// MonthlyExpenses sums TotalExpense over every supplied record.
func (r *Report) MonthlyExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, e := range r.monthlyExpenses {
		total = total.Add(e.TotalExpense)
	}
	return total
}

// Balance is Income - Expenses - MonthlyExpenses.
func (r *Report) Balance() decimal.Decimal {
	return r.Income().Sub(r.Expenses()).Sub(r.MonthlyExpenses())
}

// AssetNames returns the distinct asset names of one type in first-seen
// order.
func (r *Report) AssetNames(assetType core.AssetType) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, t := range r.transactions {
		if t.AssetType != assetType {
			continue
		}
		if _, ok := seen[t.AssetName]; ok {
			continue
		}
		seen[t.AssetName] = struct{}{}
		names = append(names, t.AssetName)
	}
	return names
}

func (r *Report) CarNames() []string {
	return r.AssetNames(core.AssetCar)
}

func (r *Report) SpeedboatNames() []string {
	return r.AssetNames(core.AssetSpeedboat)
}
