package controllers

import (
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/mipastel/pedidos-backend/api/middleware"
	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/api/validators"
	"github.com/mipastel/pedidos-backend/internal/reports"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// ProductionReport is daily ("fecha") or ranged ("fecha_inicio", "fecha_fin").
func ProductionReport(svc reports.Service, ranged bool, logg *logger.Logger) http.HandlerFunc {
	return pdfHandler(ranged, logg, func(r *http.Request, req reports.Request) (*reports.File, error) {
		return svc.Production(r.Context(), middleware.ActorFromRequest(r), req)
	})
}

func SalesReport(svc reports.Service, ranged bool, logg *logger.Logger) http.HandlerFunc {
	return pdfHandler(ranged, logg, func(r *http.Request, req reports.Request) (*reports.File, error) {
		return svc.Sales(r.Context(), middleware.ActorFromRequest(r), req)
	})
}

// StatisticsReport returns the JSON summary. Without dates it covers today.
func StatisticsReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "fecha_inicio")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "fecha_fin")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		st, err := svc.Statistics(r.Context(), middleware.ActorFromRequest(r), reports.Request{
			From:   from,
			To:     to,
			Branch: strings.TrimSpace(r.URL.Query().Get("sucursal")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, st)
	}
}

func pdfHandler(ranged bool, logg *logger.Logger, generate func(*http.Request, reports.Request) (*reports.File, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		req := reports.Request{Branch: strings.TrimSpace(r.URL.Query().Get("sucursal")), Ranged: ranged}
		var err error
		if ranged {
			if req.From, err = validators.RequireQueryDate(r, "fecha_inicio"); err == nil {
				req.To, err = validators.RequireQueryDate(r, "fecha_fin")
			}
		} else {
			req.From, err = validators.RequireQueryDate(r, "fecha")
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		file, err := generate(r, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		streamFile(w, r, file, logg)
	}
}

func streamFile(w http.ResponseWriter, r *http.Request, file *reports.File, logg *logger.Logger) {
	f, err := os.Open(file.Path)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reporte no disponible"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil && logg != nil {
		logg.Warn(logg.WithFields(r.Context(), map[string]any{"file": file.Name, "error": err.Error()}), "reports.stream_aborted")
	}
}
