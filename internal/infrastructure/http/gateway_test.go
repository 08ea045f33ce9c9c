package httpgateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domcart "github.com/Zhima-Mochi/notafiscal-console/internal/domain/cart"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	dominvoice "github.com/Zhima-Mochi/notafiscal-console/internal/domain/invoice"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, method, path string, status int, body string, check func(*http.Request, []byte)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method || r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		if check != nil {
			check(r, raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/"
}

func TestStockClient_ListProducts(t *testing.T) {
	url := serve(t, http.MethodGet, "/products", http.StatusOK,
		`[{"id":"p-1","name":"Pen","description":"Blue","price":10.5,"balance":5}]`, nil)
	client := NewStockClient(Options{BaseURL: url}, observability.Nop())

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p-1", products[0].ID)
	assert.True(t, products[0].Price.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, 5, products[0].Balance)
}

func TestStockClient_CreateProduct(t *testing.T) {
	var sent map[string]any
	url := serve(t, http.MethodPost, "/products", http.StatusCreated,
		`{"id":"p-2","name":"Pen","description":"Blue ink","price":2.99,"balance":7}`,
		func(r *http.Request, raw []byte) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.Unmarshal(raw, &sent))
		})
	client := NewStockClient(Options{BaseURL: url}, nil)

	p, err := client.CreateProduct(context.Background(), domcatalog.Draft{
		Name: "Pen", Description: "Blue ink", Price: decimal.RequireFromString("2.99"), Balance: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "p-2", p.ID)
	assert.NotContains(t, sent, "id")
	assert.Equal(t, 2.99, sent["price"])
	assert.Equal(t, float64(7), sent["balance"])
}

func TestStockClient_ServerErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"error body":   {http.StatusConflict, `{"error":"Product with this name already exists"}`, "Product with this name already exists"},
		"field errors": {http.StatusUnprocessableEntity, `[{"failedField":"Product.Name","tag":"required","value":""}]`, "invalid data: name required"},
		"no body":      {http.StatusInternalServerError, ``, "internal server error"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			url := serve(t, http.MethodPost, "/products", tc.status, tc.body, nil)
			client := NewStockClient(Options{BaseURL: url}, observability.Nop())

			_, err := client.CreateProduct(context.Background(), domcatalog.Draft{Name: "Pen"})

			var ferr *failure.FetchError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tc.status, ferr.Status)
			assert.Equal(t, tc.want, ferr.Message)
			assert.Equal(t, "create product", ferr.Op)
		})
	}
}

func TestStockClient_MalformedResult(t *testing.T) {
	url := serve(t, http.MethodGet, "/products", http.StatusOK, `{"id":`, nil)
	client := NewStockClient(Options{BaseURL: url}, nil)

	_, err := client.ListProducts(context.Background())

	var ferr *failure.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, http.StatusOK, ferr.Status)
	assert.Equal(t, "unexpected response from stock", ferr.Message)
	assert.Error(t, ferr.Err)
}

func TestStockClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewStockClient(Options{BaseURL: url, Timeout: time.Second}, observability.Nop())
	_, err := client.ListProducts(context.Background())

	var ferr *failure.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 0, ferr.Status)
	assert.Equal(t, "stock service unreachable", ferr.Message)
	assert.Error(t, ferr.Unwrap())
}

func TestStockClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewStockClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, observability.Nop())
	_, err := client.ListProducts(context.Background())

	var ferr *failure.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "stock service timed out", ferr.Message)
}

func TestBillingClient_CreateInvoice(t *testing.T) {
	var sent invoiceDTO
	url := serve(t, http.MethodPost, "/invoice", http.StatusCreated,
		`{"id":"i-1","code":"20240101001","status":"ABERTO","totalValue":30,"products":[{"product_id":"p-1","amount":3}]}`,
		func(_ *http.Request, raw []byte) {
			assert.NoError(t, json.Unmarshal(raw, &sent))
		})
	client := NewBillingClient(Options{BaseURL: url}, observability.Nop())

	inv, err := client.CreateInvoice(context.Background(), dominvoice.FromLines([]domcart.Line{
		{ProductID: "p-1", Name: "Pen", Price: decimal.NewFromInt(10), Amount: 3},
	}))
	require.NoError(t, err)
	assert.Equal(t, "20240101001", inv.Code)
	assert.Equal(t, dominvoice.StatusOpen, inv.Status)
	assert.True(t, inv.TotalValue.Equal(decimal.NewFromInt(30)))

	require.Len(t, sent.Products, 1)
	assert.Equal(t, "p-1", sent.Products[0].ProductID)
	assert.Equal(t, 3, sent.Products[0].Amount)
	assert.Empty(t, sent.Code)
}

func TestBillingClient_ListOpenInvoices(t *testing.T) {
	url := serve(t, http.MethodGet, "/invoices/open", http.StatusOK,
		`[{"code":"A","status":"ABERTO","totalValue":12.5,"products":[]},{"code":"B","status":"ABERTO","totalValue":1,"products":null}]`, nil)
	client := NewBillingClient(Options{BaseURL: url}, observability.Nop())

	invoices, err := client.ListOpenInvoices(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "A", invoices[0].Code)
	assert.True(t, invoices[0].IsOpen())
}

func TestBillingClient_CloseInvoice(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		url := serve(t, http.MethodPut, "/invoices/NF-1/close", http.StatusOK,
			`{"message":"Invoice successfully closed and stock updated","invoice":{"code":"NF-1","status":"FECHADA","totalValue":30}}`, nil)
		client := NewBillingClient(Options{BaseURL: url}, observability.Nop())

		inv, err := client.CloseInvoice(context.Background(), "NF-1")
		require.NoError(t, err)
		assert.Equal(t, dominvoice.StatusClosed, inv.Status)
		assert.Equal(t, "NF-1", inv.Code)
	})

	t.Run("bare invoice", func(t *testing.T) {
		url := serve(t, http.MethodPut, "/invoices/NF-2/close", http.StatusOK,
			`{"code":"NF-2","status":"FECHADA","totalValue":5}`, nil)
		client := NewBillingClient(Options{BaseURL: url}, observability.Nop())

		inv, err := client.CloseInvoice(context.Background(), "NF-2")
		require.NoError(t, err)
		assert.Equal(t, "NF-2", inv.Code)
		assert.True(t, inv.TotalValue.Equal(decimal.NewFromInt(5)))
	})

	t.Run("already closed", func(t *testing.T) {
		url := serve(t, http.MethodPut, "/invoices/NF-3/close", http.StatusBadRequest,
			`{"error":"Invoice is already closed"}`, nil)
		client := NewBillingClient(Options{BaseURL: url}, observability.Nop())

		_, err := client.CloseInvoice(context.Background(), "NF-3")
		var ferr *failure.FetchError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, "Invoice is already closed", ferr.Message)
	})
}
