// Package source talks to the line-item backend over HTTP and decodes its
// responses into model types.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rubros-dev/rubros/internal/model"
	"github.com/rubros-dev/rubros/internal/waterfall"
)

// GlobalScanLimit is the page size used when scanning the global listing for one account.
const GlobalScanLimit = 1000

// ClientConfig represents the configuration for the backend client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration // Default: 30 seconds
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client is a line-item backend client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a new backend client.
func NewClient(config ClientConfig) *Client {
	hc := config.HTTPClient
	if hc == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: hc,
		baseURL:    config.BaseURL,
		logger:     logger,
	}
}

// ListAccounts fetches one page of accounts. Pages are 1-based.
func (c *Client) ListAccounts(ctx context.Context, page, limit int) (model.AccountPage, error) {
	return c.list(ctx, "/rubros/listar", page, limit)
}

// ListGlobal fetches one page of the global listing.
func (c *Client) ListGlobal(ctx context.Context, page, limit int) (model.AccountPage, error) {
	return c.list(ctx, "/rubros/listar-global", page, limit)
}

func (c *Client) list(ctx context.Context, path string, page, limit int) (model.AccountPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return model.AccountPage{}, err
	}
	return decodePage(body)
}

// AccountDetail fetches one account with its line items and items. When the
// detail endpoint fails with an HTTP error, the global listing is scanned instead.
func (c *Client) AccountDetail(ctx context.Context, accountID string) (model.Account, error) {
	body, err := c.do(ctx, http.MethodGet, "/rubros/ofertas-detalle/"+url.PathEscape(accountID), nil, nil)
	if err == nil {
		return decodeDetail(body, accountID)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || errors.Is(err, ErrRejected) {
		return model.Account{}, err
	}
	c.logger.Debug("detail endpoint failed, scanning global listing", "account", accountID, "status", apiErr.Status)

	page, err := c.ListGlobal(ctx, 1, GlobalScanLimit)
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning global listing: %w", err)
	}
	for _, a := range page.Accounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %s: %w", accountID, &APIError{Status: http.StatusNotFound, Message: "account not found"})
}

// LineItemRequest creates a line item on an account.
type LineItemRequest struct {
	AccountID   string
	AccountName string
	ConceptID   string
	Name        string
	Percentage  decimal.Decimal
}

type createLineItemDTO struct {
	ClienteID     string      `json:"ClienteId"`
	ClienteNombre string      `json:"ClienteNombre"`
	RubroID       string      `json:"RubroId"`
	RubroNombre   string      `json:"RubroNombre"`
	Porcentaje    json.Number `json:"Porcentaje"`
}

// CreateLineItem creates a line item. A duplicate (account, concept) pair fails with ErrConflict.
func (c *Client) CreateLineItem(ctx context.Context, req LineItemRequest) error {
	dto := createLineItemDTO{
		ClienteID:     req.AccountID,
		ClienteNombre: req.AccountName,
		RubroID:       req.ConceptID,
		RubroNombre:   req.Name,
		Porcentaje:    json.Number(req.Percentage.String()),
	}
	_, err := c.do(ctx, http.MethodPost, "/rubros", nil, dto)
	return err
}

// UpdateLineItem sets a line item's percentage. The body is the bare number.
func (c *Client) UpdateLineItem(ctx context.Context, accountID, conceptID string, pct decimal.Decimal) error {
	_, err := c.do(ctx, http.MethodPut, lineItemPath(accountID, conceptID), nil, json.Number(pct.String()))
	return err
}

// DeleteLineItem removes a line item.
func (c *Client) DeleteLineItem(ctx context.Context, accountID, conceptID string) error {
	_, err := c.do(ctx, http.MethodDelete, lineItemPath(accountID, conceptID), nil, nil)
	return err
}

// ItemRequest creates an item on an account.
type ItemRequest struct {
	AccountID   string
	AccountName string
	Code        string
	Name        string
	BaseQty     decimal.Decimal
	CostQty     decimal.Decimal
}

type createItemDTO struct {
	ClienteID      string      `json:"ClienteId"`
	ClienteNombre  string      `json:"ClienteNombre"`
	CodigoProducto string      `json:"CodigoProducto"`
	ProductoNombre string      `json:"ProductoNombre"`
	TotalCosto     json.Number `json:"TotalCosto"`
	TotalPrecio    json.Number `json:"TotalPrecio"`
}

// CreateItem creates an item. A duplicate (account, code) pair fails with ErrConflict.
func (c *Client) CreateItem(ctx context.Context, req ItemRequest) error {
	dto := createItemDTO{
		ClienteID:      req.AccountID,
		ClienteNombre:  req.AccountName,
		CodigoProducto: req.Code,
		ProductoNombre: req.Name,
		TotalCosto:     json.Number(req.CostQty.String()),
		TotalPrecio:    json.Number(req.BaseQty.String()),
	}
	_, err := c.do(ctx, http.MethodPost, "/rubros/ofertas", nil, dto)
	return err
}

// ItemChanges is a partial item update. Nil fields are left unchanged.
type ItemChanges struct {
	Name    *string
	BaseQty *decimal.Decimal
	CostQty *decimal.Decimal
}

type updateItemDTO struct {
	ProductoNombre *string      `json:"ProductoNombre,omitempty"`
	TotalCosto     *json.Number `json:"TotalCosto,omitempty"`
	TotalPrecio    *json.Number `json:"TotalPrecio,omitempty"`
}

func numberPtr(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

// UpdateItem applies changes to an item.
func (c *Client) UpdateItem(ctx context.Context, accountID, code string, ch ItemChanges) error {
	dto := updateItemDTO{
		ProductoNombre: ch.Name,
		TotalCosto:     numberPtr(ch.CostQty),
		TotalPrecio:    numberPtr(ch.BaseQty),
	}
	_, err := c.do(ctx, http.MethodPut, itemPath(accountID, code), nil, dto)
	return err
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, accountID, code string) error {
	_, err := c.do(ctx, http.MethodDelete, itemPath(accountID, code), nil, nil)
	return err
}

// ProductSummaries fetches per-product totals computed by the backend. Empty
// codes or clients leave that filter out.
func (c *Client) ProductSummaries(ctx context.Context, codes, clients []string) ([]waterfall.ProductSummary, error) {
	q := url.Values{}
	if len(codes) > 0 {
		q.Set("codigos", strings.Join(codes, ","))
	}
	for _, id := range clients {
		q.Add("clientes", id)
	}

	body, err := c.do(ctx, http.MethodGet, "/rubros/calculos", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeSummaries(body)
}

func lineItemPath(accountID, conceptID string) string {
	return "/rubros/" + url.PathEscape(accountID) + "/" + url.PathEscape(conceptID)
}

func itemPath(accountID, code string) string {
	return "/rubros/ofertas/" + url.PathEscape(accountID) + "/" + url.PathEscape(code)
}

// do sends a request and returns the response body. Non-2xx statuses and
// {success: false} acknowledgments become *APIError; transport failures wrap ErrNetwork.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", "method", method, "path", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(body)}
		c.logger.Debug("backend error", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)
		return nil, apiErr
	}
	if rejected, msg := decodeEnvelope(body); rejected {
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}
