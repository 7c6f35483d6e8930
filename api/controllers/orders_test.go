package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/orders"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
)

type stubOrders struct {
	stockIn    orders.StockInput
	customIn   orders.CustomInput
	photoBytes []byte
	photoName  string
	updateIn   orders.UpdateInput
	filter     orders.ListFilter
	deleted    int64
	kind       enums.OrderKind
	calls      int
	err        error
}

func (s *stubOrders) CreateStock(ctx context.Context, actor authz.Actor, in orders.StockInput) (int64, error) {
	s.calls++
	s.stockIn = in
	return 7, s.err
}

func (s *stubOrders) CreateCustom(ctx context.Context, actor authz.Actor, in orders.CustomInput, photo *uploads.Photo) (int64, error) {
	s.calls++
	s.customIn = in
	if photo != nil {
		s.photoName = photo.Filename
		s.photoBytes, _ = io.ReadAll(photo.Content)
	}
	return 9, s.err
}

func (s *stubOrders) Update(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64, in orders.UpdateInput) error {
	s.calls++
	s.kind = kind
	s.updateIn = in
	return s.err
}

func (s *stubOrders) Delete(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) error {
	s.calls++
	s.kind = kind
	s.deleted = id
	return s.err
}

func (s *stubOrders) Get(ctx context.Context, actor authz.Actor, kind enums.OrderKind, id int64) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: id, Kind: kind, Quantity: s.updateIn.Quantity}, s.err
}

func (s *stubOrders) ListStock(ctx context.Context, actor authz.Actor, filter orders.ListFilter) ([]orders.OrderDTO, error) {
	s.filter = filter
	return nil, s.err
}

func (s *stubOrders) ListCustom(ctx context.Context, actor authz.Actor, filter orders.ListFilter) ([]orders.OrderDTO, error) {
	s.filter = filter
	return []orders.OrderDTO{{ID: 1, Kind: enums.OrderKindCustom}}, s.err
}

func withRouteParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func formPost(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func validStockForm() url.Values {
	return url.Values{
		"tipo":          {"normal"},
		"sabor":         {"Chocolate"},
		"tamano":        {"Mediano"},
		"cantidad":      {"2"},
		"sucursal":      {"Jutiapa 1"},
		"fecha_entrega": {"2025-01-09"},
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestOrderRegisterStock(t *testing.T) {
	svc := &stubOrders{}
	form := validStockForm()
	form.Set("precio", "45.50")
	resp := httptest.NewRecorder()
	OrderRegister(svc, 1<<20, nil).ServeHTTP(resp, formPost("/api/pedidos/registrar", form))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.stockIn.Flavor != enums.FlavorChocolate || svc.stockIn.Quantity != 2 || svc.stockIn.Branch != enums.BranchJutiapa1 {
		t.Fatalf("unexpected input %+v", svc.stockIn)
	}
	if svc.stockIn.UnitPrice == nil || svc.stockIn.UnitPrice.String() != "45.5" {
		t.Fatalf("expected manual price 45.5 got %v", svc.stockIn.UnitPrice)
	}
	if !strings.Contains(resp.Body.String(), `"id":7`) {
		t.Fatalf("expected new id in body: %s", resp.Body.String())
	}
}

func TestOrderRegisterRejectsBadInput(t *testing.T) {
	cases := map[string]func(url.Values){
		"quantity not numeric": func(v url.Values) { v.Set("cantidad", "dos") },
		"unknown flavor":       func(v url.Values) { v.Set("sabor", "Vainilla") },
		"bad date":             func(v url.Values) { v.Set("fecha_entrega", "09/01/2025") },
		"unsafe details":       func(v url.Values) { v.Set("detalles", "sin azucar; DROP") },
		"unknown kind":         func(v url.Values) { v.Set("tipo", "mayorista") },
		"padded branch":        func(v url.Values) { v.Set("sucursal", "  Jutiapa 1  ") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubOrders{}
			form := validStockForm()
			mutate(form)
			resp := httptest.NewRecorder()
			OrderRegister(svc, 1<<20, nil).ServeHTTP(resp, formPost("/api/pedidos/registrar", form))

			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
			if svc.calls != 0 {
				t.Fatalf("service should not be called")
			}
		})
	}
}

func TestOrderRegisterCustomWithPhoto(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"tipo":          "cliente",
		"sabor":         "Fresas",
		"tamano":        "Media plancha",
		"cantidad":      "1",
		"sucursal":      "Jutiapa 1",
		"fecha_entrega": "2025-01-10",
		"color":         "rosado",
		"dedicatoria":   "Feliz cumple",
	} {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	part, err := mw.CreateFormFile("foto", "pastel.png")
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nimage"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pedidos/registrar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	svc := &stubOrders{}
	OrderRegister(svc, 1<<20, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.customIn.Color != "rosado" || svc.customIn.Dedication != "Feliz cumple" {
		t.Fatalf("unexpected custom input %+v", svc.customIn)
	}
	if svc.photoName != "pastel.png" || !bytes.HasPrefix(svc.photoBytes, []byte("\x89PNG")) {
		t.Fatalf("photo not forwarded: %q", svc.photoName)
	}
}

func TestOrderRegisterTooLarge(t *testing.T) {
	form := validStockForm()
	form.Set("detalles", strings.Repeat("a", multipartMemory+4096))
	resp := httptest.NewRecorder()
	svc := &stubOrders{}
	OrderRegister(svc, 1024, nil).ServeHTTP(resp, formPost("/api/pedidos/registrar", form))

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", resp.Code)
	}
	if svc.calls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestOrderUpdateAndDelete(t *testing.T) {
	svc := &stubOrders{}
	values := url.Values{"cantidad": {"4"}, "fecha_entrega": {"2025-01-12"}, "detalles": {"con velas"}}
	req := httptest.NewRequest(http.MethodPut, "/api/pedidos/cliente/3", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	OrderUpdate(svc, nil).ServeHTTP(resp, withRouteParams(req, map[string]string{"tipo": "clientes", "id": "3"}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.kind != enums.OrderKindCustom || svc.updateIn.Quantity != 4 || svc.updateIn.Details != "con velas" {
		t.Fatalf("unexpected update %s %+v", svc.kind, svc.updateIn)
	}

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/pedidos/normal/11", nil)
	OrderDelete(svc, nil).ServeHTTP(resp, withRouteParams(req, map[string]string{"tipo": "normal", "id": "11"}))
	if resp.Code != http.StatusOK || svc.deleted != 11 || svc.kind != enums.OrderKindStock {
		t.Fatalf("unexpected delete result %d id=%d kind=%s", resp.Code, svc.deleted, svc.kind)
	}
}

func TestOrderUpdateClosedForEdit(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeClosedForEdit, "el pedido ya no puede editarse")}
	values := url.Values{"cantidad": {"4"}, "fecha_entrega": {"2025-01-12"}}
	req := httptest.NewRequest(http.MethodPut, "/api/pedidos/normal/3", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	OrderUpdate(svc, nil).ServeHTTP(resp, withRouteParams(req, map[string]string{"tipo": "normal", "id": "3"}))

	if code := errorCode(t, resp); code != string(pkgerrors.CodeClosedForEdit) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeClosedForEdit, code)
	}
}

func TestOrderDetailBadID(t *testing.T) {
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pedidos/normal/abc", nil)
	OrderDetail(&stubOrders{}, nil).ServeHTTP(resp, withRouteParams(req, map[string]string{"tipo": "normal", "id": "abc"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrdersListFilter(t *testing.T) {
	svc := &stubOrders{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pedidos/normales?fecha=2025-01-05&sucursal=Jutiapa+2", nil)
	OrdersList(svc, enums.OrderKindStock, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.filter.From == nil || svc.filter.From.String() != "2025-01-05" || svc.filter.Branch != "Jutiapa 2" {
		t.Fatalf("unexpected filter %+v", svc.filter)
	}
	if !strings.Contains(resp.Body.String(), `"pedidos":[]`) {
		t.Fatalf("empty list should encode as []: %s", resp.Body.String())
	}

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/pedidos/clientes?fecha_inicio=2025-13-01", nil)
	OrdersList(svc, enums.OrderKindCustom, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrdersListFilterKeepsBranchVerbatim(t *testing.T) {
	svc := &stubOrders{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/pedidos/normales?sucursal=+Jutiapa+1+", nil)
	OrdersList(svc, enums.OrderKindStock, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.filter.Branch != " Jutiapa 1 " {
		t.Fatalf("branch should reach the service untrimmed, got %q", svc.filter.Branch)
	}
}
