package google

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bjt/internal/core"
)

// Header is the first row of the mirror sheet. The id column comes last.
var Header = []string{
	"Tanggal", "Jenis Aset", "Nama Aset", "Jenis Sewa", "Rute", "Harga",
	"BBM", "Sopir", "Trip", "Hari", "Kas Harian", "ID",
}

const lastColumn = "L"

func transactionRow(t core.Transaction) []any {
	var fuel, driver decimal.Decimal
	if c := t.OperationalCosts; c != nil {
		fuel, driver = c.Fuel, c.Driver
	}
	return []any{
		t.Date.String(),
		string(t.AssetType),
		t.AssetName,
		string(t.RentalType),
		t.Route,
		t.Price.String(),
		fuel.String(),
		driver.String(),
		t.Trips,
		t.Days,
		t.DailyCash.String(),
		t.ID,
	}
}

// parseIDColumn trims the id cells, drops blanks, the header and
// duplicates, and keeps first-seen order.
func parseIDColumn(values [][]any) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" || strings.EqualFold(v, Header[len(Header)-1]) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
