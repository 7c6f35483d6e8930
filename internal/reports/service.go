package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/orders"
	"github.com/mipastel/pedidos-backend/pkg/db/models"
	dbtypes "github.com/mipastel/pedidos-backend/pkg/db/types"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/metrics"
)

// Report kinds, also used as metric labels.
const (
	KindProduction      = "produccion"
	KindProductionRange = "produccion_rango"
	KindSales           = "ventas"
	KindSalesRange      = "ventas_rango"
	KindStatistics      = "estadisticas"
)

// Request selects the orders a report covers. Ranged requests need both
// dates; daily ones default to today.
type Request struct {
	From   *dbtypes.Date
	To     *dbtypes.Date
	Branch string
	Ranged bool
}

// File is a generated report on disk.
type File struct {
	Path string
	Name string
}

// Service builds report files and statistics.
type Service interface {
	Production(ctx context.Context, actor authz.Actor, req Request) (*File, error)
	Sales(ctx context.Context, actor authz.Actor, req Request) (*File, error)
	Statistics(ctx context.Context, actor authz.Actor, req Request) (*Statistics, error)
}

// ServiceParams bundles the report dependencies.
type ServiceParams struct {
	Stock    orders.StockStore
	Custom   orders.CustomStore
	Authz    *authz.Authorizer
	Renderer *Renderer
	Dir      string
	Timeout  time.Duration
	Metrics  *metrics.ReportMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	stock    orders.StockStore
	custom   orders.CustomStore
	authz    *authz.Authorizer
	renderer *Renderer
	dir      string
	timeout  time.Duration
	metrics  *metrics.ReportMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService validates dependencies and prepares the output directory.
func NewService(p ServiceParams) (Service, error) {
	if p.Stock == nil || p.Custom == nil {
		return nil, fmt.Errorf("order stores are required")
	}
	if p.Authz == nil {
		return nil, fmt.Errorf("authorizer is required")
	}
	if p.Dir == "" {
		return nil, fmt.Errorf("reports dir is required")
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports dir: %w", err)
	}
	now := p.Clock
	if now == nil {
		now = time.Now
	}
	renderer := p.Renderer
	if renderer == nil {
		renderer = NewRenderer(now, true)
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		stock:    p.Stock,
		custom:   p.Custom,
		authz:    p.Authz,
		renderer: renderer,
		dir:      p.Dir,
		timeout:  p.Timeout,
		metrics:  p.Metrics,
		logg:     logg,
		now:      now,
	}, nil
}

func (s *service) Production(ctx context.Context, actor authz.Actor, req Request) (*File, error) {
	kind := KindProduction
	if req.Ranged {
		kind = KindProductionRange
	}
	return s.generate(ctx, actor, req, kind, func(w io.Writer, h Header, stock []models.StockOrder, custom []models.CustomOrder) error {
		return s.renderer.Production(w, h, BuildProduction(stock, custom, h.Branch, req.Ranged))
	})
}

func (s *service) Sales(ctx context.Context, actor authz.Actor, req Request) (*File, error) {
	kind := KindSales
	if req.Ranged {
		kind = KindSalesRange
	}
	return s.generate(ctx, actor, req, kind, func(w io.Writer, h Header, stock []models.StockOrder, custom []models.CustomOrder) error {
		return s.renderer.Sales(w, h, BuildSales(stock, custom))
	})
}

func (s *service) Statistics(ctx context.Context, actor authz.Actor, req Request) (*Statistics, error) {
	h, stock, custom, err := s.load(ctx, actor, req, KindStatistics)
	if err != nil {
		return nil, err
	}
	st := BuildStatistics(h.From, h.To, h.Branch, stock, custom)
	return &st, nil
}

type renderFunc func(w io.Writer, h Header, stock []models.StockOrder, custom []models.CustomOrder) error

// generate renders into a temp file in the reports dir and renames it into
// place. A cancelled or timed out request leaves no file behind.
func (s *service) generate(ctx context.Context, actor authz.Actor, req Request, kind string, render renderFunc) (*File, error) {
	start := s.now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	h, stock, custom, err := s.load(ctx, actor, req, kind)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"report": kind, "stock_rows": len(stock), "custom_rows": len(custom)})

	tmp, err := os.CreateTemp(s.dir, ".report-*.pdf")
	if err != nil {
		return nil, s.fail(ctx, kind, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "no se pudo generar el reporte"))
	}
	tmpPath := tmp.Name()

	done := make(chan error, 1)
	go func() {
		rerr := render(tmp, h, stock, custom)
		if cerr := tmp.Close(); rerr == nil {
			rerr = cerr
		}
		done <- rerr
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		go func() {
			<-done
			_ = os.Remove(tmpPath)
		}()
		return nil, s.fail(ctx, kind, pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "la generacion del reporte fue cancelada"))
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return nil, s.fail(ctx, kind, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "no se pudo generar el reporte"))
	}

	name := fileName(kind, h)
	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, s.fail(ctx, kind, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "no se pudo guardar el reporte"))
	}

	s.metrics.ObserveDuration(kind, s.now().Sub(start))
	s.metrics.IncSuccess(kind)
	s.logg.Info(s.logg.WithField(ctx, "file", path), "reports.generated")
	return &File{Path: path, Name: name}, nil
}

func (s *service) load(ctx context.Context, actor authz.Actor, req Request, kind string) (Header, []models.StockOrder, []models.CustomOrder, error) {
	branch, err := s.authz.ScopeBranch(ctx, actor, req.Branch, "report", "reporte_"+kind)
	if err != nil {
		return Header{}, nil, nil, err
	}
	if req.Ranged && (req.From == nil || req.To == nil) {
		return Header{}, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "fecha_inicio y fecha_fin son requeridas").
			WithDetails(map[string]any{"field": "fecha_inicio"})
	}
	from, to := orders.ResolveRange(req.From, req.To, dbtypes.NewDate(s.now()))
	if to.Before(from) {
		return Header{}, nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "la fecha fin debe ser posterior a la fecha inicio").
			WithDetails(map[string]any{"field": "fecha_fin"})
	}

	q := orders.Query{From: from, To: to, Branch: branch}
	stock, err := s.stock.List(ctx, q)
	if err != nil {
		return Header{}, nil, nil, s.fail(ctx, kind, s.storeError(err))
	}
	custom, err := s.custom.List(ctx, q)
	if err != nil {
		return Header{}, nil, nil, s.fail(ctx, kind, s.storeError(err))
	}
	// Reports read oldest first.
	reverseStock(stock)
	reverseCustom(custom)
	return Header{From: from, To: to, Branch: branch}, stock, custom, nil
}

func (s *service) storeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "la generacion del reporte fue cancelada")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "error al consultar pedidos")
}

func (s *service) fail(ctx context.Context, kind string, err error) error {
	s.metrics.IncFailure(kind)
	s.logg.Error(ctx, "reports.failed", err)
	return err
}

func fileName(kind string, h Header) string {
	var name string
	switch kind {
	case KindProductionRange:
		name = "Reporte_" + h.From.String() + "_a_" + h.To.String()
	case KindSales:
		name = "Ventas_MiPastel_" + h.From.String()
	case KindSalesRange:
		name = "Ventas_MiPastel_" + h.From.String() + "_a_" + h.To.String()
	default:
		name = "Listas_MiPastel_" + h.From.String()
	}
	if h.Branch != "" {
		name += "_" + strings.ReplaceAll(string(h.Branch), " ", "_")
	}
	return name + ".pdf"
}

func reverseStock(rows []models.StockOrder) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func reverseCustom(rows []models.CustomOrder) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
