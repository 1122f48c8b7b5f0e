package emulator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedCSV = `client_id,client_name,kind,code,name,value,cost
4000348,Droguería Alemana,rubro,80,Descuentos,2,
4000348,Droguería Alemana,oferta,617573,Crema X,1000000,400000
1000478,Almacenes Éxito,oferta,682335,Jabón,500000,300000
4000348,Droguería Alemana,rubro,1200,Gastos de Operación,10,
`

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rubros.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := openStore(t)
	accounts, err := ReadSeed(strings.NewReader(seedCSV))
	require.NoError(t, err)
	require.NoError(t, s.Load(accounts))
	return s
}

func TestReadSeed(t *testing.T) {
	accounts, err := ReadSeed(strings.NewReader(seedCSV))
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	a := accounts[0]
	assert.Equal(t, "4000348", a.ID)
	assert.Equal(t, "Droguería Alemana", a.Name)
	require.Len(t, a.LineItems, 2)
	assert.Equal(t, "80", a.LineItems[0].ID)
	assert.Equal(t, json.Number("2"), a.LineItems[0].Percentage)
	assert.Equal(t, "1200", a.LineItems[1].ID)
	require.Len(t, a.Items, 1)
	assert.Equal(t, json.Number("1000000"), a.Items[0].TotalBase)
	assert.Equal(t, json.Number("400000"), a.Items[0].TotalCost)

	assert.Equal(t, "1000478", accounts[1].ID)
}

func TestReadSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"unknown kind", "1,A,other,1,x,1,", "unknown kind"},
		{"bad value", "1,A,rubro,80,x,abc,", "parsing value"},
		{"missing code", "1,A,rubro,,x,1,", "code is required"},
		{"missing client", ",A,rubro,80,x,1,", "client_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSeed(strings.NewReader("client_id,client_name,kind,code,name,value,cost\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteSeedRoundTrip(t *testing.T) {
	accounts, err := ReadSeed(strings.NewReader(seedCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSeed(&buf, accounts))

	again, err := ReadSeed(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, again)
}

func TestStore_ListInInsertionOrder(t *testing.T) {
	s := openStore(t)
	for _, id := range []string{"30", "10", "20"} {
		require.NoError(t, s.PutAccount(Account{ID: id, Name: "c" + id}))
	}
	require.NoError(t, s.PutAccount(Account{ID: "10", Name: "renamed"}))

	all, total, err := s.ListAccounts(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"30", "10", "20"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "renamed", all[1].Name)

	page, _, err := s.ListAccounts(2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "20", page[0].ID)

	empty, _, err := s.ListAccounts(5, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_LineItemCRUD(t *testing.T) {
	s := seededStore(t)

	err := s.AddLineItem("4000348", "ignored", LineItem{ID: "80", Name: "dup", Percentage: "1"})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.SetLineItemPercentage("4000348", "80", "4.5"))
	a, err := s.GetAccount("4000348")
	require.NoError(t, err)
	assert.Equal(t, json.Number("4.5"), a.LineItems[0].Percentage)

	assert.ErrorIs(t, s.SetLineItemPercentage("4000348", "999", "1"), ErrNotFound)
	assert.ErrorIs(t, s.SetLineItemPercentage("nope", "80", "1"), ErrNotFound)

	require.NoError(t, s.DeleteLineItem("4000348", "80"))
	a, err = s.GetAccount("4000348")
	require.NoError(t, err)
	require.Len(t, a.LineItems, 1)
	assert.Equal(t, "1200", a.LineItems[0].ID)
	assert.ErrorIs(t, s.DeleteLineItem("4000348", "80"), ErrNotFound)

	require.NoError(t, s.AddLineItem("5000000", "Nuevo", LineItem{ID: "500", Name: "Mercadeo", Percentage: "3"}))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "adding to an unknown account creates it")
}

func TestStore_ItemCRUD(t *testing.T) {
	s := seededStore(t)

	err := s.AddItem("1000478", "", Item{Code: "682335"})
	assert.ErrorIs(t, err, ErrConflict)

	name := "Jabón Rey"
	base := json.Number("650000")
	require.NoError(t, s.UpdateItem("1000478", "682335", ItemPatch{Name: &name, TotalBase: &base}))
	a, err := s.GetAccount("1000478")
	require.NoError(t, err)
	assert.Equal(t, "Jabón Rey", a.Items[0].Name)
	assert.Equal(t, json.Number("650000"), a.Items[0].TotalBase)
	assert.Equal(t, json.Number("300000"), a.Items[0].TotalCost, "nil patch fields are kept")

	require.NoError(t, s.DeleteItem("1000478", "682335"))
	assert.ErrorIs(t, s.DeleteItem("1000478", "682335"), ErrNotFound)
	assert.ErrorIs(t, s.UpdateItem("1000478", "682335", ItemPatch{}), ErrNotFound)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubros.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutAccount(Account{ID: "1", Name: "uno"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	a, err := s.GetAccount("1")
	require.NoError(t, err)
	assert.Equal(t, "uno", a.Name)
}

func serve(t *testing.T, s *Store, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(s, opts))
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestServer_ListBareArray(t *testing.T) {
	srv := serve(t, seededStore(t), Options{})

	resp, body := request(t, http.MethodGet, srv.URL+"/rubros/listar?page=1&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []Account
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "4000348", rows[0].ID)

	_, body = request(t, http.MethodGet, srv.URL+"/rubros/listar?page=3&limit=1", "")
	assert.JSONEq(t, `[]`, string(body))
}

func TestServer_ListWithTotal(t *testing.T) {
	srv := serve(t, seededStore(t), Options{ReportTotal: true})

	_, body := request(t, http.MethodGet, srv.URL+"/rubros/listar?page=2&limit=1", "")
	var env struct {
		Data        []Account `json:"data"`
		TotalGlobal int       `json:"totalGlobal"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, 2, env.TotalGlobal)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "1000478", env.Data[0].ID)

	_, body = request(t, http.MethodGet, srv.URL+"/rubros/listar-global", "")
	assert.Contains(t, string(body), `"totalClientes":2`)
}

func TestServer_Detail(t *testing.T) {
	srv := serve(t, seededStore(t), Options{})

	resp, body := request(t, http.MethodGet, srv.URL+"/rubros/ofertas-detalle/4000348", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"clienteNombre":"Droguería Alemana"`)

	resp, body = request(t, http.MethodGet, srv.URL+"/rubros/ofertas-detalle/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"success":false`)
}

func TestServer_LineItemLifecycle(t *testing.T) {
	s := seededStore(t)
	srv := serve(t, s, Options{})

	create := `{"ClienteId":"1000478","ClienteNombre":"Almacenes Éxito","RubroId":"500","RubroNombre":"Gastos Mercadeo","Porcentaje":2.5}`
	resp, body := request(t, http.MethodPost, srv.URL+"/rubros", create)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"success":true,"message":"Rubro creado"}`, string(body))

	resp, _ = request(t, http.MethodPost, srv.URL+"/rubros", create)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = request(t, http.MethodPut, srv.URL+"/rubros/1000478/500", `7.25`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a, err := s.GetAccount("1000478")
	require.NoError(t, err)
	assert.Equal(t, json.Number("7.25"), a.LineItems[0].Percentage)

	resp, _ = request(t, http.MethodPut, srv.URL+"/rubros/1000478/500", `"abc"`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = request(t, http.MethodDelete, srv.URL+"/rubros/1000478/500", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = request(t, http.MethodDelete, srv.URL+"/rubros/1000478/500", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ItemLifecycle(t *testing.T) {
	s := seededStore(t)
	srv := serve(t, s, Options{})

	create := `{"ClienteId":"4000348","ClienteNombre":"Droguería Alemana","CodigoProducto":"614763","ProductoNombre":"Gel","TotalCosto":100,"TotalPrecio":250}`
	resp, _ := request(t, http.MethodPost, srv.URL+"/rubros/ofertas", create)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = request(t, http.MethodPost, srv.URL+"/rubros/ofertas", create)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = request(t, http.MethodPut, srv.URL+"/rubros/ofertas/4000348/614763", `{"TotalPrecio":300}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a, err := s.GetAccount("4000348")
	require.NoError(t, err)
	require.Len(t, a.Items, 2)
	assert.Equal(t, json.Number("300"), a.Items[1].TotalBase)
	assert.Equal(t, json.Number("100"), a.Items[1].TotalCost)

	resp, _ = request(t, http.MethodDelete, srv.URL+"/rubros/ofertas/4000348/614763", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = request(t, http.MethodPut, srv.URL+"/rubros/ofertas/4000348/614763", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BadRequests(t *testing.T) {
	srv := serve(t, seededStore(t), Options{})

	resp, _ := request(t, http.MethodPost, srv.URL+"/rubros", `{"ClienteId":"1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = request(t, http.MethodPost, srv.URL+"/rubros/ofertas", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := request(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestServer_Summaries(t *testing.T) {
	s := seededStore(t)
	require.NoError(t, s.AddItem("1000478", "", Item{Code: "617573", Name: "Crema X", TotalBase: "200000", TotalCost: "50000"}))
	srv := serve(t, s, Options{})

	get := func(query string) []ProductSummary {
		t.Helper()
		resp, body := request(t, http.MethodGet, srv.URL+"/rubros/calculos"+query, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var env summaryResponse
		require.NoError(t, json.Unmarshal(body, &env))
		return env.Data
	}

	all := get("")
	require.Len(t, all, 2)
	assert.Equal(t, "617573", all[0].Code)
	assert.Equal(t, "Crema X", all[0].Name)
	assert.Equal(t, 2, all[0].Clients)
	assert.Equal(t, json.Number("1200000"), all[0].Totals["ventasBrutas"])
	assert.Equal(t, json.Number("20000"), all[0].Totals["descuentos"])
	assert.Equal(t, json.Number("609900"), all[0].Totals["utilidadOperacion"])
	assert.Equal(t, json.Number("0"), all[0].Totals["g500"])
	assert.Equal(t, "682335", all[1].Code)
	assert.Equal(t, json.Number("144750"), all[1].Totals["utilidadOperacion"])

	byCode := get("?codigos=682335")
	require.Len(t, byCode, 1)
	assert.Equal(t, "682335", byCode[0].Code)

	filtered := get("?codigos=617573;%20682335&clientes=4000348")
	require.Len(t, filtered, 1)
	assert.Equal(t, 1, filtered[0].Clients)
	assert.Equal(t, json.Number("482000"), filtered[0].Totals["utilidadOperacion"])
	assert.Equal(t, json.Number("452600"), filtered[0].Totals["utilidadDespCTO"])

	assert.Len(t, get("?clientes=4000348&clientes=1000478"), 2)

	_, body := request(t, http.MethodGet, srv.URL+"/rubros/calculos?clientes=999", "")
	assert.JSONEq(t, `{"data":[]}`, string(body))
}
