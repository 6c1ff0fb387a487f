package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"api_pos/api"
	"api_pos/internal/auth"
	"api_pos/internal/sales"
	"api_pos/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testEnv struct {
	router     *gin.Engine
	db         *store.DB
	productID  int64
	customerID int64
	sellerID   int64
	adminID    int64
}

func initRoutesTests(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// 1. Base de datos temporal con datos de referencia
	db, err := store.Open("file:"+filepath.Join(t.TempDir(), "api.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	env := &testEnv{db: db}
	env.productID, err = db.CreateProduct(ctx, "Licuadora", "", 4)
	require.NoError(t, err)
	env.customerID, err = db.CreateCustomer(ctx, "Pedro Ramírez")
	require.NoError(t, err)
	env.sellerID, err = db.CreateUser(ctx, "Lucía", "unused")
	require.NoError(t, err)
	hash, err := auth.Hash("s3cret")
	require.NoError(t, err)
	env.adminID, err = db.CreateUser(ctx, "Admin", hash)
	require.NoError(t, err)
	require.NoError(t, db.OpenLedger(ctx, 1))

	// 2. Configurar Gin con las rutas de ventas
	gin.SetMode(gin.TestMode)
	env.router = gin.New()
	logger := zaptest.NewLogger(t)
	api.InitRoutes(env.router, sales.NewService(db, auth.BcryptVerifier{}, nil, logger), logger, true)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) saleBody(cantidad int) map[string]interface{} {
	return map[string]interface{}{
		"clienteId":         e.customerID,
		"vendedorId":        e.sellerID,
		"empresaId":         1,
		"metodoPago":        "CONTADO",
		"monto":             250,
		"montoConDescuento": 250,
		"productos": []map[string]interface{}{
			{"productoId": e.productID, "cantidad": cantidad, "precio": 125},
		},
	}
}

// TestSalesHappyPath_FullFlow prueba el flujo completo de POST -> GET -> DELETE.
func TestSalesHappyPath_FullFlow(t *testing.T) {
	env := initRoutesTests(t)

	var saleID int64

	//1: POST /sales
	t.Run("POST_CreateSale", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/sales", env.saleBody(2))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

		var created sales.Sale
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotZero(t, created.ID)
		assert.Equal(t, sales.PaymentCash, created.PaymentMethod)
		assert.True(t, decimal.NewFromInt(250).Equal(created.DiscountedAmount))
		require.Len(t, created.Items, 1)
		assert.Equal(t, 2, created.Items[0].Quantity)

		saleID = created.ID
	})

	if saleID == 0 {
		t.Fatal("Sale ID was not successfully generated in POST_CreateSale step.")
	}

	//2: GET /sales/:id
	t.Run("GET_Sale", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/sales/%d", saleID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got sales.Sale
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, saleID, got.ID)
		require.Len(t, got.Items, 1)
		require.NotNil(t, got.Items[0].Product)
		assert.Equal(t, "Licuadora", got.Items[0].Product.Name)
	})

	//3: GET /sales?vendedorId=
	t.Run("GET_ListSales", func(t *testing.T) {
		w := env.do(t, http.MethodGet, fmt.Sprintf("/sales?vendedorId=%d", env.sellerID), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Results  []sales.Sale `json:"results"`
			Quantity int          `json:"quantity"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Quantity)
		require.Len(t, body.Results, 1)
		assert.Equal(t, saleID, body.Results[0].ID)
	})

	//4: DELETE /sales/:id
	t.Run("DELETE_Sale", func(t *testing.T) {
		w := env.do(t, http.MethodDelete, fmt.Sprintf("/sales/%d", saleID), map[string]interface{}{
			"userId":        env.adminID,
			"adminPassword": "s3cret",
			"sucursalId":    1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"success": true}`, w.Body.String())

		w = env.do(t, http.MethodGet, fmt.Sprintf("/sales/%d", saleID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCreateSale_Credit(t *testing.T) {
	env := initRoutesTests(t)
	body := env.saleBody(1)
	body["metodoPago"] = "CREDITO"
	body["monto"] = 1000
	body["montoConDescuento"] = 1000
	body["creditoInicial"] = 200
	body["interes"] = 10
	body["numeroCuotas"] = 6
	body["dpi"] = "1234 56789 0101"
	body["testigos"] = []map[string]string{{"nombre": "Luis"}}

	w := env.do(t, http.MethodPost, "/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created sales.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, sales.PaymentCredit, created.PaymentMethod)
	assert.True(t, decimal.NewFromInt(1100).Equal(created.Amount), "amount %s", created.Amount)
	assert.NotNil(t, created.CreditID)
}

func TestCreateSale_VisitFlow(t *testing.T) {
	env := initRoutesTests(t)
	visitID, err := env.db.OpenVisit(context.Background(), env.customerID)
	require.NoError(t, err)

	body := env.saleBody(1)
	body["registroVisitaId"] = visitID
	w := env.do(t, http.MethodPost, "/sales/visit", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created sales.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.VisitID)
	assert.Equal(t, visitID, *created.VisitID)

	// En /sales el id de visita se ignora
	w = env.do(t, http.MethodPost, "/sales", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created = sales.Sale{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Nil(t, created.VisitID)
}

func TestSalesErrorMapping(t *testing.T) {
	env := initRoutesTests(t)

	zeroInstallments := env.saleBody(1)
	zeroInstallments["metodoPago"] = "CREDITO"

	unknownCustomer := env.saleBody(1)
	unknownCustomer["clienteId"] = 999

	badMethod := env.saleBody(1)
	badMethod["metodoPago"] = "TRUEQUE"

	noProducts := env.saleBody(1)
	noProducts["productos"] = []interface{}{}

	missingAmount := env.saleBody(1)
	delete(missingAmount, "montoConDescuento")

	missingPrice := env.saleBody(1)
	missingPrice["productos"] = []map[string]interface{}{{"productoId": env.productID, "cantidad": 1}}

	negativeInitial := env.saleBody(1)
	negativeInitial["metodoPago"] = "CREDITO"
	negativeInitial["creditoInicial"] = -50
	negativeInitial["numeroCuotas"] = 3

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"insufficient stock", http.MethodPost, "/sales", env.saleBody(10), http.StatusConflict},
		{"zero installments", http.MethodPost, "/sales", zeroInstallments, http.StatusBadRequest},
		{"unknown customer", http.MethodPost, "/sales", unknownCustomer, http.StatusNotFound},
		{"unknown payment method", http.MethodPost, "/sales", badMethod, http.StatusBadRequest},
		{"no products", http.MethodPost, "/sales", noProducts, http.StatusBadRequest},
		{"missing discounted amount", http.MethodPost, "/sales", missingAmount, http.StatusBadRequest},
		{"missing product price", http.MethodPost, "/sales", missingPrice, http.StatusBadRequest},
		{"negative initial payment", http.MethodPost, "/sales", negativeInitial, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/sales", "not-a-sale", http.StatusBadRequest},
		{"invalid sale id", http.MethodGet, "/sales/abc", nil, http.StatusBadRequest},
		{"unknown sale", http.MethodGet, "/sales/999", nil, http.StatusNotFound},
		{"invalid list filter", http.MethodGet, "/sales?clienteId=x", nil, http.StatusBadRequest},
		{
			"wrong admin password", http.MethodDelete, "/sales/1",
			map[string]interface{}{"userId": env.adminID, "adminPassword": "nope", "sucursalId": 1},
			http.StatusUnauthorized,
		},
		{"missing reversal body", http.MethodDelete, "/sales/1", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	q, err := env.db.StockQuantity(context.Background(), env.productID)
	require.NoError(t, err)
	assert.Equal(t, 4, q, "rejected requests leave stock untouched")
}

func TestPingAndMetrics(t *testing.T) {
	env := initRoutesTests(t)

	w := env.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "pong"}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
