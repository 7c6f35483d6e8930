package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mipastel/pedidos-backend/api/controllers"
	"github.com/mipastel/pedidos-backend/api/middleware"
	"github.com/mipastel/pedidos-backend/internal/auth"
	"github.com/mipastel/pedidos-backend/internal/authz"
	"github.com/mipastel/pedidos-backend/internal/catalog"
	"github.com/mipastel/pedidos-backend/internal/orders"
	"github.com/mipastel/pedidos-backend/internal/reports"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/config"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	"github.com/mipastel/pedidos-backend/pkg/logger"
	"github.com/mipastel/pedidos-backend/pkg/redis"
)

// Deps is the service graph the router exposes. RateLimiter is optional and
// must be left nil (not a nil *redis.Client) when Redis is not configured.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Auth        auth.Service
	Authz       *authz.Authorizer
	Catalog     catalog.Service
	Orders      orders.Service
	Reports     reports.Service
	RateLimiter *redis.Client
	Databases   []controllers.NamedPinger
	Metrics     http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cookies := auth.CookieOptions{MaxAge: cfg.Auth.SessionDuration(), Secure: cfg.SecureCookies()}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.Origins()),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy("login", cfg.RateLimit.Window, cfg.RateLimit.IPLimit)
	loginLimit := middleware.AuthRateLimit(loginPolicy, nil, logg)
	if d.RateLimiter != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, d.RateLimiter, logg)
	}

	metricsHandler := d.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r.With(loginLimit).Post("/login", controllers.AuthLogin(d.Auth, cookies, logg))
	r.Get("/logout", controllers.AuthLogout(d.Auth, cookies, logg))
	r.Get("/health", controllers.Health(cfg, logg, d.Databases...))
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(d.Auth, logg))

		r.Route("/api", func(r chi.Router) {
			r.Get("/catalogo", controllers.CatalogIndex())
			r.Get("/obtener-precio", controllers.PriceLookup(d.Catalog, logg))
			r.Get("/precios", controllers.PriceList(d.Catalog, logg))
			r.With(middleware.RequireAdmin(d.Authz, "update", "precios", logg)).
				Put("/precios", controllers.PriceBulkUpdate(d.Catalog, logg))

			r.Route("/pedidos", func(r chi.Router) {
				r.Get("/normales", controllers.OrdersList(d.Orders, enums.OrderKindStock, logg))
				r.Get("/clientes", controllers.OrdersList(d.Orders, enums.OrderKindCustom, logg))
				r.Post("/registrar", controllers.OrderRegister(d.Orders, cfg.Uploads.MaxBytes(), logg))
				r.Get("/{tipo}/{id}", controllers.OrderDetail(d.Orders, logg))
				r.Put("/{tipo}/{id}", controllers.OrderUpdate(d.Orders, logg))
				r.Delete("/{tipo}/{id}", controllers.OrderDelete(d.Orders, logg))
			})
		})

		r.Route("/reportes", func(r chi.Router) {
			r.Get("/pdf", controllers.ProductionReport(d.Reports, false, logg))
			r.Get("/rango-pdf", controllers.ProductionReport(d.Reports, true, logg))
			r.Get("/ventas-pdf", controllers.SalesReport(d.Reports, false, logg))
			r.Get("/ventas-rango-pdf", controllers.SalesReport(d.Reports, true, logg))
			r.Get("/estadisticas", controllers.StatisticsReport(d.Reports, logg))
		})

		r.Handle(uploads.PublicPrefix+"*", photoServer(cfg.Uploads.Dir))
	})

	return r
}

// photoServer serves stored photos without directory listings.
func photoServer(dir string) http.Handler {
	files := http.StripPrefix(uploads.PublicPrefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
