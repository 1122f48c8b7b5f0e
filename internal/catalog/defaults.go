package catalog

import "github.com/rubros-dev/rubros/internal/model"

// DefaultConcepts returns the standard waterfall concepts in display order.
func DefaultConcepts() []model.Concept {
	return []model.Concept{
		{ID: "60", Name: "Ventas Brutas - Colombia", Role: model.RoleBase, Meta: model.ConceptMeta{Editable: true}},
		{ID: "80", Name: "Descuentos en Ventas", Role: model.RoleDiscount},
		{ID: "100", Name: "Ventas Netas", Role: model.RoleNetRevenue, Meta: model.ConceptMeta{Band: model.BandBlue}},
		{ID: "200", Name: "Costo de Ventas", Role: model.RoleCost},
		{ID: "300", Name: "Utilidad Bruta", Role: model.RoleGrossProfit, Meta: model.ConceptMeta{Band: model.BandBlue}},
		{ID: "500", Name: "Gastos Mercadeo y CANALES", Role: model.RoleVariableExpense, Meta: model.ConceptMeta{Band: model.BandYellow}},
		{ID: "600", Name: "Vendedores y Asesoras Belle", Role: model.RoleVariableExpense, Meta: model.ConceptMeta{Band: model.BandYellow}},
		{ID: "920", Name: "Gastos Promocion y Publicidad", Role: model.RoleVariableExpense, Meta: model.ConceptMeta{Band: model.BandYellow}},
		{ID: "1000", Name: "Total Gastos de Ventas", Role: model.RoleExpenseSubtotal, Meta: model.ConceptMeta{Band: model.BandYellowStrong, Strong: true}},
		{ID: "1200", Name: "Gastos de Operacion", Role: model.RoleOperatingExpense, Meta: model.ConceptMeta{Band: model.BandYellow}},
		{ID: "1500", Name: "Utilidad o perdida Operacion", Role: model.RoleOperatingProfit, Meta: model.ConceptMeta{Strong: true, Emph: true}},
		{ID: "2010", Name: "Costos Financieros C.T.O.", Role: model.RoleFinancialCost, Meta: model.ConceptMeta{Italic: true}},
		{ID: "2020", Name: "Utilidad despues de C.T.O.", Role: model.RoleNetProfit, Meta: model.ConceptMeta{Strong: true, Emph: true}},
	}
}

// yellowOnly are expense lines shaded like variable expenses but not computed by the engine.
var yellowOnly = map[string]bool{
	"420": true, "440": true, "450": true, "503": true, "505": true, "506": true,
}

var defaultsByID = func() map[string]model.Concept {
	m := make(map[string]model.Concept)
	for _, c := range DefaultConcepts() {
		m[c.ID] = c
	}
	return m
}()

// RoleOf returns the fixed role of a concept id. Unknown ids are RoleOther.
func RoleOf(id string) model.Role {
	if c, ok := defaultsByID[id]; ok {
		return c.Role
	}
	return model.RoleOther
}

// MetaOf returns presentation hints for a concept id.
func MetaOf(id string) model.ConceptMeta {
	if c, ok := defaultsByID[id]; ok {
		return c.Meta
	}
	if yellowOnly[id] {
		return model.ConceptMeta{Band: model.BandYellow}
	}
	return model.ConceptMeta{}
}

// DefaultName returns the standard display name for a concept id, or "".
func DefaultName(id string) string {
	return defaultsByID[id].Name
}
