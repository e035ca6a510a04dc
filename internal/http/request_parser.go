// Request parsing: query parameters, and bodies sent either as JSON or
// form-encoded.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bjt/internal/core"
	"bjt/internal/services"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ParsePeriodParams reads "period=YYYY-MM", or "year" and "month". With
// neither, the period containing now is returned.
func ParsePeriodParams(query url.Values, now time.Time) (core.Period, error) {
	if v := strings.TrimSpace(query.Get("period")); v != "" {
		return core.ParsePeriod(v)
	}

	p := core.PeriodOf(now)
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("invalid year %q", v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("invalid month %q", v)
		}
		p.Month = m
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// ParseDayParam reads the required "day" query parameter.
func ParseDayParam(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("day"))
	if v == "" {
		return 0, errors.New("missing day")
	}
	day, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid day %q", v)
	}
	return day, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Amount parses key as a non-negative amount. Missing keys are zero.
func (p *RequestBodyParser) Amount(key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(p.Get(key))
	if err != nil {
		return decimal.Zero, invalidField(key, err)
	}
	return d, nil
}

// Int parses key as an integer. Missing keys are zero.
func (p *RequestBodyParser) Int(key string) (int, error) {
	v := p.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidField(key, fmt.Errorf("not a whole number: %q", v))
	}
	return n, nil
}

func invalidField(name string, err error) error {
	return &services.ValidationError{Err: fmt.Errorf("%s: %w", name, err)}
}

// ParseEntry reads a transaction entry.
func (p *RequestBodyParser) ParseEntry() (core.Entry, error) {
	e := core.Entry{
		AssetType:  core.AssetType(strings.ToLower(p.Get("assetType"))),
		AssetName:  p.Get("assetName"),
		RentalType: core.RentalType(strings.ToLower(p.Get("rentalType"))),
		From:       p.Get("from"),
		To:         p.Get("to"),
	}

	if v := p.Get("date"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Entry{}, invalidField("date", err)
		}
		e.Date = d
	}

	var err error
	amounts := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"price", &e.Price},
		{"fuelCost", &e.FuelCost},
		{"driverCost", &e.DriverCost},
		{"salesAmount", &e.SalesAmount},
	}
	for _, a := range amounts {
		if *a.dst, err = p.Amount(a.key); err != nil {
			return core.Entry{}, err
		}
	}
	if e.Trips, err = p.Int("trips"); err != nil {
		return core.Entry{}, err
	}
	if e.Days, err = p.Int("days"); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// ParseMonthlyExpense reads the six cost lines of a monthly expense.
func (p *RequestBodyParser) ParseMonthlyExpense(period core.Period) (core.MonthlyExpense, error) {
	e := core.MonthlyExpense{Year: period.Year, Month: period.Month}
	fields := []struct {
		key string
		dst *decimal.Decimal
	}{
		{"staffSalary", &e.StaffSalary},
		{"nightGuardSalary", &e.NightGuardSalary},
		{"electricityBill", &e.ElectricityBill},
		{"waterBill", &e.WaterBill},
		{"internetBill", &e.InternetBill},
		{"otherExpenses", &e.OtherExpenses},
	}
	for _, f := range fields {
		d, err := p.Amount(f.key)
		if err != nil {
			return core.MonthlyExpense{}, err
		}
		*f.dst = d
	}
	return e, nil
}

// RequireMethod returns a 405 response when the request method is not
// one of methods, and nil otherwise.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
