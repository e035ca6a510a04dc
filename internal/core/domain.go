package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AssetCar        AssetType = "car"
	AssetSpeedboat  AssetType = "speedboat"
	AssetRestaurant AssetType = "restaurant"
)

const (
	RentalDrop   RentalType = "drop"
	RentalHarian RentalType = "harian"
)

const dateLayout = "2006-01-02"

type (
	AssetType  string
	RentalType string

	Date struct {
		time.Time
	}

	// OperationalCosts are the per-trip costs of a car drop.
	OperationalCosts struct {
		Fuel   decimal.Decimal `json:"fuel"`
		Driver decimal.Decimal `json:"driver"`
	}

	Transaction struct {
		ID               string            `json:"id"`
		Date             Date              `json:"date"`
		AssetType        AssetType         `json:"assetType"`
		AssetName        string            `json:"assetName"`
		RentalType       RentalType        `json:"rentalType,omitempty"`
		Route            string            `json:"route,omitempty"`
		Price            decimal.Decimal   `json:"price"`
		OperationalCosts *OperationalCosts `json:"operationalCosts,omitempty"`
		Trips            int               `json:"trips"`
		Days             int               `json:"days,omitempty"`
		DailyCash        decimal.Decimal   `json:"dailyCash"`
	}

	// MonthlyExpense holds the fixed costs of one period. TotalExpense is
	// computed on write and trusted on read.
	MonthlyExpense struct {
		ID               string          `json:"id"`
		Year             int             `json:"year"`
		Month            int             `json:"month"`
		StaffSalary      decimal.Decimal `json:"staffSalary"`
		NightGuardSalary decimal.Decimal `json:"nightGuardSalary"`
		ElectricityBill  decimal.Decimal `json:"electricityBill"`
		WaterBill        decimal.Decimal `json:"waterBill"`
		InternetBill     decimal.Decimal `json:"internetBill"`
		OtherExpenses    decimal.Decimal `json:"otherExpenses"`
		TotalExpense     decimal.Decimal `json:"totalExpense"`
	}
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidAssetType  = errors.New("invalid asset type")
	ErrInvalidRentalType = errors.New("invalid rental type")
	ErrEmptyAssetName    = errors.New("empty asset name")
	ErrInvalidTrips      = errors.New("trips must be at least 1")
	ErrInvalidDays       = errors.New("days must be at least 1")
	ErrEmptyRoute        = errors.New("route is required for drop rentals")
)

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	switch t {
	case AssetCar, AssetSpeedboat, AssetRestaurant:
		return true
	default:
		return false
	}
}

func (r RentalType) Valid() bool {
	return r == RentalDrop || r == RentalHarian
}

// ParseAssetType accepts an empty string as "no filter".
func ParseAssetType(s string) (AssetType, error) {
	t := AssetType(strings.ToLower(strings.TrimSpace(s)))
	if t == "" || t.Valid() {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssetType, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Period returns the year+month the date belongs to.
func (d Date) Period() Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date (YYYY-MM-DD). Timestamps with a time part
// are accepted and truncated to their calendar date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Total returns fuel plus driver. A nil receiver counts as zero.
func (c *OperationalCosts) Total() decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	return c.Fuel.Add(c.Driver)
}

// Expenses returns the operational cost of the transaction.
func (t Transaction) Expenses() decimal.Decimal {
	return t.OperationalCosts.Total()
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.AssetType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidAssetType, t.AssetType)
	}
	if strings.TrimSpace(t.AssetName) == "" {
		return ErrEmptyAssetName
	}
	if len(t.AssetName) > 100 {
		return errors.New("asset name too long (max 100 characters)")
	}
	switch {
	case t.AssetType == AssetCar && !t.RentalType.Valid():
		return fmt.Errorf("%w: %q", ErrInvalidRentalType, t.RentalType)
	case t.AssetType != AssetCar && t.RentalType != "":
		return fmt.Errorf("%w: rental type only applies to cars", ErrInvalidRentalType)
	}
	if t.Trips < 1 {
		return ErrInvalidTrips
	}
	if t.Days < 1 {
		return ErrInvalidDays
	}
	for _, amt := range []decimal.Decimal{t.Price, t.DailyCash} {
		if amt.IsNegative() {
			return ErrInvalidAmount
		}
	}
	if c := t.OperationalCosts; c != nil && (c.Fuel.IsNegative() || c.Driver.IsNegative()) {
		return ErrInvalidAmount
	}
	return nil
}

// Components returns the six cost lines in display order.
func (e MonthlyExpense) Components() []decimal.Decimal {
	return []decimal.Decimal{
		e.StaffSalary,
		e.NightGuardSalary,
		e.ElectricityBill,
		e.WaterBill,
		e.InternetBill,
		e.OtherExpenses,
	}
}

// ComputeTotal returns a copy with TotalExpense set to the sum of the
// components.
func (e MonthlyExpense) ComputeTotal() MonthlyExpense {
	total := decimal.Zero
	for _, c := range e.Components() {
		total = total.Add(c)
	}
	e.TotalExpense = total
	return e
}

func (e MonthlyExpense) Period() Period {
	return Period{Year: e.Year, Month: e.Month}
}

func (e MonthlyExpense) Validate() error {
	if err := e.Period().Validate(); err != nil {
		return err
	}
	for _, c := range e.Components() {
		if c.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}
