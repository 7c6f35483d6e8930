package orders

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mipastel/pedidos-backend/internal/audit"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/db"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
)

type recorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorder) Record(_ context.Context, ev audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(action enums.AuditAction, status enums.AuditStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Action == action && ev.Status == status {
			n++
		}
	}
	return n
}

type priceTable map[string]decimal.Decimal

func (p priceTable) LookupPrice(_ context.Context, flavor enums.Flavor, size enums.Size) (decimal.Decimal, error) {
	if flavor.IsOther() {
		return decimal.Zero, nil
	}
	return p[string(flavor)+"|"+string(size)], nil
}

type fakePhotos struct {
	saved   []string
	removed []string
}

func (f *fakePhotos) Save(_ context.Context, photo uploads.Photo) (string, error) {
	ref := uploads.PublicPrefix + "1736236800_" + photo.Filename
	f.saved = append(f.saved, ref)
	return ref, nil
}

func (f *fakePhotos) Remove(ref string) error {
	f.removed = append(f.removed, ref)
	return nil
}

type failingCustomStore struct {
	CustomStore
}

func (f failingCustomStore) WithTx(*gorm.DB) CustomStore { return f }

func (failingCustomStore) Create(context.Context, *models.CustomOrder) (int64, error) {
	return 0, errors.New("connection reset")
}

var (
	jutiapa1 = authz.Actor{Username: "jutiapa1", Role: enums.RoleOperator, Branch: enums.BranchJutiapa1}
	jutiapa2 = authz.Actor{Username: "jutiapa2", Role: enums.RoleOperator, Branch: enums.BranchJutiapa2}
	admin    = authz.Actor{Username: "admin", Role: enums.RoleAdmin}
)

type fixture struct {
	svc      Service
	audit    *recorder
	photos   *fakePhotos
	normales *gorm.DB
	clientes *gorm.DB
	now      time.Time
}

func (f *fixture) today(days int) time.Time {
	return f.now.AddDate(0, 0, days)
}

func newFixture(t *testing.T, mutate ...func(*ServiceParams)) *fixture {
	t.Helper()
	f := &fixture{
		audit:    &recorder{},
		photos:   &fakePhotos{},
		normales: openTestDB(t, "normales", &models.StockOrder{}),
		clientes: openTestDB(t, "clientes", &models.CustomOrder{}),
		now:      at("2025-01-08", 10, 30),
	}
	az, err := authz.New(authz.Params{Audit: f.audit})
	require.NoError(t, err)

	p := ServiceParams{
		Stock:    NewStockRepository(f.normales),
		Custom:   NewCustomRepository(f.clientes),
		StockDB:  db.Wrap("normales", config.DriverSQLite, f.normales),
		CustomDB: db.Wrap("clientes", config.DriverSQLite, f.clientes),
		Prices: priceTable{
			"Chocolate|Mediano": decimal.NewFromInt(50),
			"Fresas|Grande":     decimal.NewFromInt(155),
		},
		Authz:  az,
		Audit:  f.audit,
		Photos: f.photos,
		Clock:  func() time.Time { return f.now },
	}
	for _, m := range mutate {
		m(&p)
	}
	f.svc, err = NewService(p)
	require.NoError(t, err)
	return f
}

func (f *fixture) stockInput(branch enums.Branch, deliveryDays int) StockInput {
	return StockInput{
		Flavor:       enums.FlavorChocolate,
		Size:         enums.SizeMediano,
		Quantity:     2,
		Branch:       branch,
		DeliveryDate: dateOf(f.today(deliveryDays)),
	}
}

func dateOf(t time.Time) dbtypes.Date { return dbtypes.NewDate(t) }

func TestCreateStockThenList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateStock(ctx, jutiapa1, f.stockInput(enums.BranchJutiapa1, 1))
	require.NoError(t, err)
	require.NotZero(t, id)

	rows, err := f.svc.ListStock(ctx, jutiapa1, ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100.00", rows[0].Total.StringFixed(2))
	assert.Equal(t, "50.00", rows[0].UnitPrice.StringFixed(2))
	assert.True(t, rows[0].Editable)
	assert.Equal(t, enums.OrderKindStock, rows[0].Kind)

	assert.Equal(t, 1, f.audit.count(enums.AuditActionCreate, enums.AuditStatusSuccess))
	ev := f.audit.events[len(f.audit.events)-1]
	assert.Equal(t, "pedido_normal", ev.Resource)
	assert.Equal(t, id, ev.ResourceID)

	got, err := f.svc.Get(ctx, jutiapa1, enums.OrderKindStock, id)
	require.NoError(t, err)
	assert.Equal(t, rows[0].Total, got.Total)
	assert.Equal(t, f.stockInput(enums.BranchJutiapa1, 1).DeliveryDate.String(), got.DeliveryDate.String())
}

func TestCreateStockForeignBranchIsDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateStock(ctx, jutiapa1, f.stockInput(enums.BranchJutiapa2, 1))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	var n int64
	require.NoError(t, f.normales.Model(&models.StockOrder{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, 1, f.audit.count(enums.AuditActionPermissionDenied, enums.AuditStatusDenied))
	assert.Zero(t, f.audit.count(enums.AuditActionCreate, enums.AuditStatusSuccess))
}

func TestCreateStockValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := map[string]func(in *StockInput){
		"zero quantity":       func(in *StockInput) { in.Quantity = 0 },
		"past delivery":       func(in *StockInput) { in.DeliveryDate = in.DeliveryDate.AddDays(-2) },
		"custom-only size":    func(in *StockInput) { in.Size = enums.SizeBoda },
		"unknown flavor":      func(in *StockInput) { in.Flavor = "Vainilla" },
		"unpriced product":    func(in *StockInput) { in.Flavor = enums.FlavorOreo },
		"zero explicit price": func(in *StockInput) { p := decimal.Zero; in.UnitPrice = &p },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := f.stockInput(enums.BranchJutiapa1, 0)
			mutate(&in)
			_, err := f.svc.CreateStock(ctx, jutiapa1, in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), err.Error())
		})
	}
}

func TestCreateStockOtherFlavorAllowsZeroPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := f.stockInput(enums.BranchJutiapa1, 0)
	in.Flavor = enums.FlavorOther
	in.CustomFlavorName = "Pistacho"
	id, err := f.svc.CreateStock(ctx, jutiapa1, in)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, admin, enums.OrderKindStock, id)
	require.NoError(t, err)
	assert.True(t, got.UnitPrice.IsZero())
	assert.Equal(t, "Pistacho", got.CustomFlavorName)
	assert.True(t, got.Editable, "delivery today is still editable")
}

func TestCreateCustomRequiresPositivePrice(t *testing.T) {
	f := newFixture(t)
	in := CustomInput{StockInput: f.stockInput(enums.BranchJutiapa1, 1)}
	in.Flavor = enums.FlavorOther

	_, err := f.svc.CreateCustom(context.Background(), jutiapa1, in, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateCustomStoresPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := decimal.RequireFromString("175.00")
	in := CustomInput{StockInput: f.stockInput(enums.BranchJutiapa1, 3), Color: "azul", Dedication: "Feliz dia"}
	in.Size = enums.SizeBoda
	in.UnitPrice = &price

	id, err := f.svc.CreateCustom(ctx, jutiapa1, in, &uploads.Photo{Filename: "pastel.png", Content: bytes.NewReader([]byte("x"))})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, jutiapa1, enums.OrderKindCustom, id)
	require.NoError(t, err)
	require.NotNil(t, got.PhotoPath)
	assert.Equal(t, f.photos.saved[0], *got.PhotoPath)
	assert.Equal(t, "350.00", got.Total.StringFixed(2))
	assert.Equal(t, "azul", *got.Color)
	assert.Empty(t, f.photos.removed)
}

func TestCreateCustomRemovesPhotoWhenInsertFails(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Custom = failingCustomStore{}
	})
	price := decimal.NewFromInt(200)
	in := CustomInput{StockInput: f.stockInput(enums.BranchJutiapa1, 1)}
	in.UnitPrice = &price

	_, err := f.svc.CreateCustom(context.Background(), jutiapa1, in, &uploads.Photo{Filename: "a.jpg"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, f.photos.saved, f.photos.removed)
	assert.Equal(t, 1, f.audit.count(enums.AuditActionCreate, enums.AuditStatusFailure))
}

func TestUpdateClosedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := &models.StockOrder{
		Flavor:       enums.FlavorChocolate,
		Size:         enums.SizeMediano,
		Quantity:     1,
		UnitPrice:    decimal.NewFromInt(50),
		Branch:       enums.BranchJutiapa1,
		CreatedAt:    f.today(-3),
		DeliveryDate: dateOf(f.today(-1)),
	}
	require.NoError(t, f.normales.Create(past).Error)

	err := f.svc.Update(ctx, jutiapa1, enums.OrderKindStock, past.ID, UpdateInput{Quantity: 5, DeliveryDate: dateOf(f.today(2))})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeClosedForEdit))
	assert.Zero(t, f.audit.count(enums.AuditActionUpdate, enums.AuditStatusSuccess))

	err = f.svc.Delete(ctx, admin, enums.OrderKindStock, past.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeClosedForEdit))

	got, err := f.svc.Get(ctx, jutiapa1, enums.OrderKindStock, past.ID)
	require.NoError(t, err)
	assert.False(t, got.Editable)
	assert.Equal(t, 1, got.Quantity)
}

func TestUpdateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateStock(ctx, jutiapa1, f.stockInput(enums.BranchJutiapa1, 1))
	require.NoError(t, err)

	in := UpdateInput{Quantity: 3, DeliveryDate: dateOf(f.today(2)), Details: "velas"}
	require.NoError(t, f.svc.Update(ctx, jutiapa1, enums.OrderKindStock, id, in))
	first, err := f.svc.Get(ctx, jutiapa1, enums.OrderKindStock, id)
	require.NoError(t, err)

	require.NoError(t, f.svc.Update(ctx, jutiapa1, enums.OrderKindStock, id, in))
	second, err := f.svc.Get(ctx, jutiapa1, enums.OrderKindStock, id)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "150.00", second.Total.StringFixed(2))
	assert.Equal(t, 2, f.audit.count(enums.AuditActionUpdate, enums.AuditStatusSuccess))
}

func TestUpdateRejectsPastDeliveryAndForeignBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.CreateStock(ctx, jutiapa1, f.stockInput(enums.BranchJutiapa1, 1))
	require.NoError(t, err)

	err = f.svc.Update(ctx, jutiapa1, enums.OrderKindStock, id, UpdateInput{Quantity: 1, DeliveryDate: dateOf(f.today(-1))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.svc.Update(ctx, jutiapa2, enums.OrderKindStock, id, UpdateInput{Quantity: 1, DeliveryDate: dateOf(f.today(1))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = f.svc.Update(ctx, jutiapa1, enums.OrderKindStock, 9999, UpdateInput{Quantity: 1, DeliveryDate: dateOf(f.today(1))})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := decimal.NewFromInt(120)
	in := CustomInput{StockInput: f.stockInput(enums.BranchJutiapa1, 0)}
	in.UnitPrice = &price
	id, err := f.svc.CreateCustom(ctx, jutiapa1, in, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, jutiapa1, enums.OrderKindCustom, id))
	err = f.svc.Delete(ctx, jutiapa1, enums.OrderKindCustom, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 1, f.audit.count(enums.AuditActionDelete, enums.AuditStatusSuccess))
}

func TestListScopesOperatorsToTheirBranch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateStock(ctx, jutiapa1, f.stockInput(enums.BranchJutiapa1, 1))
	require.NoError(t, err)
	_, err = f.svc.CreateStock(ctx, jutiapa2, f.stockInput(enums.BranchJutiapa2, 1))
	require.NoError(t, err)

	rows, err := f.svc.ListStock(ctx, jutiapa1, ListFilter{Branch: "all"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.BranchJutiapa1, rows[0].Branch)

	_, err = f.svc.ListStock(ctx, jutiapa1, ListFilter{Branch: "Jutiapa 2"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	rows, err = f.svc.ListStock(ctx, admin, ListFilter{Branch: "todas"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.svc.ListStock(ctx, admin, ListFilter{Branch: "Jutiapa 2"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
