package emulator

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Seed rows are either a line item or an item of an account:
//
//	client_id,client_name,kind,code,name,value,cost
//	4000348,Droguería Alemana,rubro,80,Descuentos,2,
//	4000348,Droguería Alemana,oferta,617573,Crema X,1000000,400000
//
// For rubro rows value is the percentage; for oferta rows value is the base
// amount and cost the cost amount.
const (
	numFields     = 7
	colClientID   = 0
	colClientName = 1
	colKind       = 2
	colCode       = 3
	colName       = 4
	colValue      = 5
	colCost       = 6

	KindLineItem = "rubro"
	KindItem     = "oferta"
)

var seedHeader = []string{"client_id", "client_name", "kind", "code", "name", "value", "cost"}

// ReadSeed reads seed rows and groups them into accounts in first-seen order.
func ReadSeed(r io.Reader) ([]Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading seed CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []Account
	index := map[string]int{}
	for i, rec := range records[1:] {
		id := strings.TrimSpace(rec[colClientID])
		if id == "" {
			return nil, fmt.Errorf("row %d: client_id is required", i+2)
		}
		pos, ok := index[id]
		if !ok {
			pos = len(accounts)
			index[id] = pos
			accounts = append(accounts, Account{ID: id, Name: strings.TrimSpace(rec[colClientName])})
		}
		if err := unmarshalRow(&accounts[pos], rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return accounts, nil
}

// ReadSeedFile reads seed rows from a file.
func ReadSeedFile(path string) ([]Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed: %w", err)
	}
	defer f.Close()
	return ReadSeed(f)
}

// WriteSeed writes accounts as seed rows. Accounts without line items or items are skipped.
func WriteSeed(w io.Writer, accounts []Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(seedHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, a := range accounts {
		for _, li := range a.LineItems {
			if err := cw.Write([]string{a.ID, a.Name, KindLineItem, li.ID, li.Name, li.Percentage.String(), ""}); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
		for _, it := range a.Items {
			if err := cw.Write([]string{a.ID, a.Name, KindItem, it.Code, it.Name, it.TotalBase.String(), it.TotalCost.String()}); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	return cw.Error()
}

// Load stores seeded accounts, replacing any with the same id.
func (s *Store) Load(accounts []Account) error {
	for _, a := range accounts {
		if err := s.PutAccount(a); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.ID, err)
		}
	}
	return nil
}

func unmarshalRow(a *Account, rec []string) error {
	code := strings.TrimSpace(rec[colCode])
	if code == "" {
		return fmt.Errorf("code is required")
	}
	value, err := parseNumber(rec[colValue])
	if err != nil {
		return fmt.Errorf("parsing value %q: %w", rec[colValue], err)
	}

	switch strings.ToLower(strings.TrimSpace(rec[colKind])) {
	case KindLineItem:
		if a.lineItem(code) >= 0 {
			return fmt.Errorf("duplicate line item %s", code)
		}
		a.LineItems = append(a.LineItems, LineItem{ID: code, Name: strings.TrimSpace(rec[colName]), Percentage: value})
	case KindItem:
		if a.item(code) >= 0 {
			return fmt.Errorf("duplicate item %s", code)
		}
		cost, err := parseNumber(rec[colCost])
		if err != nil {
			return fmt.Errorf("parsing cost %q: %w", rec[colCost], err)
		}
		a.Items = append(a.Items, Item{Code: code, Name: strings.TrimSpace(rec[colName]), TotalBase: value, TotalCost: cost})
	default:
		return fmt.Errorf("unknown kind %q", rec[colKind])
	}
	return nil
}

// parseNumber validates a decimal field; empty reads as zero.
func parseNumber(s string) (json.Number, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	return json.Number(d.String()), nil
}
