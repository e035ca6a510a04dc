package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CashRatePerUnit is the cash set aside per trip (drop, speedboat) or per
// rental day (harian).
var CashRatePerUnit = decimal.NewFromInt(10000)

// RestaurantAssetName is the asset name every restaurant entry is filed under.
const RestaurantAssetName = "Resto"

// CalculateDailyCash applies the daily cash policy. Restaurant cash is the
// entered sales amount as is; everything else is a multiple of
// CashRatePerUnit. A car without the drop rental type is billed per day.
func CalculateDailyCash(assetType AssetType, rentalType RentalType, trips, days int, sales decimal.Decimal) decimal.Decimal {
	switch assetType {
	case AssetCar:
		if rentalType == RentalDrop {
			return CashRatePerUnit.Mul(decimal.NewFromInt(int64(trips)))
		}
		return CashRatePerUnit.Mul(decimal.NewFromInt(int64(days)))
	case AssetSpeedboat:
		return CashRatePerUnit.Mul(decimal.NewFromInt(int64(trips)))
	case AssetRestaurant:
		return sales
	default:
		return decimal.Zero
	}
}

// Entry is what an operator submits for one transaction. Fields that do
// not apply to the asset type are ignored by Build.
type Entry struct {
	Date        Date            `json:"date"`
	AssetType   AssetType       `json:"assetType"`
	AssetName   string          `json:"assetName"`
	RentalType  RentalType      `json:"rentalType,omitempty"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	Price       decimal.Decimal `json:"price"`
	FuelCost    decimal.Decimal `json:"fuelCost"`
	DriverCost  decimal.Decimal `json:"driverCost"`
	Trips       int             `json:"trips,omitempty"`
	Days        int             `json:"days,omitempty"`
	SalesAmount decimal.Decimal `json:"salesAmount"`
}

// Build turns the entry into a transaction with its daily cash computed.
// The returned transaction has no ID and is validated.
func (e Entry) Build() (Transaction, error) {
	t := Transaction{
		Date:      e.Date,
		AssetType: e.AssetType,
		AssetName: strings.TrimSpace(e.AssetName),
		Price:     e.Price,
		Trips:     defaultCount(e.Trips),
		Days:      defaultCount(e.Days),
	}

	switch e.AssetType {
	case AssetCar:
		t.RentalType = e.RentalType
		if e.RentalType == RentalDrop {
			from, to := strings.TrimSpace(e.From), strings.TrimSpace(e.To)
			if from == "" || to == "" {
				return Transaction{}, ErrEmptyRoute
			}
			t.Route = from + " - " + to
			t.OperationalCosts = &OperationalCosts{Fuel: e.FuelCost, Driver: e.DriverCost}
		}
	case AssetSpeedboat:
		// trips and price only
	case AssetRestaurant:
		t.AssetName = RestaurantAssetName
		t.Price = decimal.Zero
		t.Trips = 1
		t.Days = 1
	}

	t.DailyCash = CalculateDailyCash(t.AssetType, t.RentalType, t.Trips, t.Days, e.SalesAmount)

	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	if e.AssetType == AssetRestaurant && e.SalesAmount.IsNegative() {
		return Transaction{}, ErrInvalidAmount
	}
	return t, nil
}

// defaultCount treats an omitted count as 1. Negative counts pass through
// and are rejected.
func defaultCount(n int) int {
	if n == 0 {
		return 1
	}
	return n
}
