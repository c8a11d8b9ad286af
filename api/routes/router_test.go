package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderdesk/api/middleware"
	"github.com/angelmondragon/orderdesk/internal/catalog"
	"github.com/angelmondragon/orderdesk/internal/connectivity"
	"github.com/angelmondragon/orderdesk/internal/notices"
	"github.com/angelmondragon/orderdesk/internal/records"
	"github.com/angelmondragon/orderdesk/internal/sessions"
	"github.com/angelmondragon/orderdesk/internal/store"
	"github.com/angelmondragon/orderdesk/pkg/config"
	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/models"
	"github.com/angelmondragon/orderdesk/pkg/types"
)

type recordedCall struct {
	Method string
	Path   string
	Body   string
}

// fakeRecordStore plays the remote REST API.
type fakeRecordStore struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecordStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Method: r.Method, Path: r.URL.RequestURI(), Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/customers":
		_, _ = io.WriteString(w, `[{"id":1,"customerId":"C-1","name":"Acme"},{"id":2,"customerId":"C-2","name":"Globex"}]`)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/delete-customers/"):
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Path == "/products":
		_, _ = io.WriteString(w, `[{"id":7,"productId":"P-1","productName":"Widget A","price":"2.50","currency":"USD"}]`)
	case r.Method == http.MethodGet && r.URL.Path == "/purchase-orders":
		_, _ = io.WriteString(w, `[{"id":"9","customerId":"C-1","customerName":"Acme","orderDate":"2024-03-01T00:00:00Z","expectedDeliveryDate":"2024-03-05","paymentMethod":"Cash","billingAddress":"1 Main","shippingAddress":"1 Main","products":[{"productName":"Widget A","quantity":"2"}],"location":{"latitude":12.5,"longitude":77.25}}]`)
	case r.Method == http.MethodPost && r.URL.Path == "/store-purchase-order":
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `[]`)
	}
}

func (f *fakeRecordStore) callsTo(method, path string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Method == method && strings.HasPrefix(c.Path, path) {
			out = append(out, c)
		}
	}
	return out
}

func newTestRouter(t *testing.T) (http.Handler, *fakeRecordStore) {
	t.Helper()
	remote := &fakeRecordStore{}
	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	logg := logger.Nop()
	client, err := store.NewClient(srv.URL, store.WithLogger(logg))
	require.NoError(t, err)

	signal := connectivity.Static(true)
	notifier := notices.NewNotifier(logg)

	orders := store.NewResourceClient(client, store.PurchaseOrders())
	cfg := &config.Config{
		App:     config.AppConfig{Env: config.AppEnvDev},
		Metrics: config.MetricsConfig{Enabled: false},
	}

	deps := Dependencies{
		RecordStore: client,
		Idempotency: middleware.NewMemoryIdempotencyStore(),
		Notifier:    notifier,
		Catalog:     catalog.NewProvider(client, 0, 0, logg),
		Products: records.NewController[models.Product](store.NewResourceClient(client, store.Products()), signal, notifier, logg,
			records.Options[models.Product]{Labels: records.Labels{Singular: "product", Plural: "products"}, ValidateCreate: true}),
		Customers: records.NewController[models.Customer](store.NewResourceClient(client, store.Customers()), signal, notifier, logg,
			records.Options[models.Customer]{Labels: records.Labels{Singular: "customer", Plural: "customers"}, ValidateCreate: true, GateReads: true}),
		Users: records.NewController[models.User](store.NewResourceClient(client, store.Users()), signal, notifier, logg,
			records.Options[models.User]{Labels: records.Labels{Singular: "user", Plural: "users"}, ValidateCreate: true, ValidateUpdate: true}),
		PurchaseOrders: records.NewController[models.PurchaseOrder](orders, signal, notifier, logg,
			records.Options[models.PurchaseOrder]{Labels: records.Labels{Singular: "purchase order", Plural: "purchase orders"}}),
	}
	deps.Drafts = sessions.NewService(sessions.Deps{
		Store:    sessions.NewMemoryStore(time.Hour, time.Minute),
		Writer:   orders,
		Catalog:  deps.Catalog,
		Signal:   signal,
		Notifier: notifier,
		Logger:   logg,
	})

	return NewRouter(cfg, logg, deps), remote
}

func do(t *testing.T, h http.Handler, method, url, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Notices []types.Notice  `json:"notices"`
	Error   *types.APIError `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealthLive(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.AppEnvDev, rec.Header().Get("X-OrderDesk-Env"))
}

func TestHealthReadyProbesRecordStore(t *testing.T) {
	h, remote := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, remote.callsTo(http.MethodHead, "/"), 1)
}

func TestCustomerListAndConfirmedDelete(t *testing.T) {
	h, remote := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/customers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		State string            `json:"state"`
		Items []models.Customer `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	assert.Equal(t, "ready", list.State)
	require.Len(t, list.Items, 2)

	rec = do(t, h, http.MethodDelete, "/api/v1/customers/C-1", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), env.Error.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you want to delete this customer?")
	assert.Empty(t, remote.callsTo(http.MethodDelete, "/delete-customers/"))

	rec = do(t, h, http.MethodDelete, "/api/v1/customers/C-1?confirm=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env = decode(t, rec)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Customer deleted successfully", env.Notices[0].Message)
	assert.Len(t, remote.callsTo(http.MethodDelete, "/delete-customers/C-1"), 1)

	rec = do(t, h, http.MethodGet, "/api/v1/customers?refresh=false", "", nil)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "C-2", list.Items[0].CustomerID)
}

func TestPurchaseOrdersAreListedAsViewsAndCannotBeDeleted(t *testing.T) {
	h, remote := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/purchase-orders", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget A (Quantity: 2)")

	rec = do(t, h, http.MethodDelete, "/api/v1/purchase-orders/9?confirm=true", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, remote.callsTo(http.MethodDelete, "/"))
}

func TestProductCreateRejectsMissingFields(t *testing.T) {
	h, remote := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/products", `{"productId":"P-9"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotEmpty(t, env.Notices)
	assert.Equal(t, notices.TitleError, env.Notices[0].Title)
	assert.Empty(t, remote.callsTo(http.MethodPost, "/store-product"))
}

func TestDraftBuildAndSubmit(t *testing.T) {
	h, remote := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/drafts", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		ID    string `json:"id"`
		Mode  string `json:"mode"`
		State string `json:"state"`
		Items []struct {
			Key      string `json:"key"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	require.NotEmpty(t, view.ID)
	assert.Equal(t, "create", view.Mode)
	base := "/api/v1/drafts/" + view.ID

	fields := `{"customerId":"C-1","customerName":"Acme","orderDate":"2024-03-01","expectedDeliveryDate":"2024-03-05",
		"paymentMethod":"Cash","billingAddress":"1 Main","shippingAddress":"1 Main","latitude":"12.5","longitude":"77.25"}`
	rec = do(t, h, http.MethodPatch, base, fields, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/picker/open", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, base+"/picker/search", `{"query":"wid"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, remote.callsTo(http.MethodGet, "/products?search=wid"), 1)

	rec = do(t, h, http.MethodPost, base+"/items", `{"key":"P-1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPut, base+"/items/P-1", `{"quantity":"abc"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/items/P-1", `{"quantity":"3"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	rec = do(t, h, http.MethodPost, base+"/submit", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "submit without an Idempotency-Key")

	rec = do(t, h, http.MethodPost, base+"/submit", "", map[string]string{"Idempotency-Key": "submit-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	require.NotEmpty(t, env.Notices)
	assert.Equal(t, "Purchase order stored successfully", env.Notices[len(env.Notices)-1].Message)

	sent := remote.callsTo(http.MethodPost, "/store-purchase-order")
	require.Len(t, sent, 1)
	var payload models.PurchaseOrder
	require.NoError(t, json.Unmarshal([]byte(sent[0].Body), &payload))
	require.Len(t, payload.Products, 1)
	assert.Equal(t, models.Quantity(3), payload.Products[0].Quantity)
	assert.Contains(t, sent[0].Body, `"quantity":"3"`)

	rec = do(t, h, http.MethodGet, base, "", nil)
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, "editing", view.State)
	assert.Empty(t, view.Items)
}

func TestOrderEditOpensEditDraft(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/purchase-orders/9/edit", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view struct {
		Mode    string `json:"mode"`
		OrderID string `json:"orderId"`
		Fields  struct {
			OrderDate string `json:"orderDate"`
			Latitude  string `json:"latitude"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &view))
	assert.Equal(t, "edit", view.Mode)
	assert.Equal(t, "9", view.OrderID)
	assert.Equal(t, "2024-03-01", view.Fields.OrderDate)
	assert.Equal(t, "12.5", view.Fields.Latitude)

	rec = do(t, h, http.MethodPost, "/api/v1/purchase-orders/404/edit", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
