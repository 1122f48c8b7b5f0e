package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/session"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// Header is the CSV header for computed lines.
const Header = "client_id,client_name,item_code,base_qty,overridden,concept_id,concept_name,value,ratio"

const (
	numFields      = 9
	colClientID    = 0
	colClientName  = 1
	colItemCode    = 2
	colBaseQty     = 3
	colOverridden  = 4
	colConceptID   = 5
	colConceptName = 6
	colValue       = 7
	colRatio       = 8
)

// Row is one computed line of one item.
type Row struct {
	ClientID   string
	ClientName string
	Item       session.ItemView
	Line       waterfall.Line
}

// MarshalRow converts a Row to CSV fields. Undefined values and ratios are left empty.
func MarshalRow(r Row) []string {
	row := make([]string, numFields)
	row[colClientID] = r.ClientID
	row[colClientName] = r.ClientName
	row[colItemCode] = r.Item.Item.Code
	row[colBaseQty] = r.Item.BaseQty.String()
	if r.Item.Overridden {
		row[colOverridden] = "true"
	} else {
		row[colOverridden] = "false"
	}
	row[colConceptID] = r.Line.Concept.ID
	row[colConceptName] = r.Line.Concept.Name
	if r.Line.Value.Valid {
		row[colValue] = r.Line.Value.Decimal.StringFixed(2)
	}
	if ratio, ok := r.Line.Ratio(); ok {
		row[colRatio] = ratio.StringFixed(2)
	}
	return row
}

// CSV writes one row per (account, item, concept) in view and catalog order.
func CSV(w io.Writer, views []session.AccountView, concepts []model.Concept) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	n := 0
	for _, av := range views {
		for _, iv := range av.Items {
			for ci := range concepts {
				n++
				r := Row{ClientID: av.ID, ClientName: av.Name, Item: iv, Line: iv.Lines[ci]}
				if err := cw.Write(MarshalRow(r)); err != nil {
					return fmt.Errorf("writing row %d: %w", n, err)
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
