package controllers

import (
	"net/http"

	"github.com/mipastel/pedidos-backend/api/middleware"
	"github.com/mipastel/pedidos-backend/api/responses"
	"github.com/mipastel/pedidos-backend/api/validators"
	"github.com/mipastel/pedidos-backend/internal/orders"
	"github.com/mipastel/pedidos-backend/internal/uploads"
	"github.com/mipastel/pedidos-backend/pkg/enums"
	pkgerrors "github.com/mipastel/pedidos-backend/pkg/errors"
	"github.com/mipastel/pedidos-backend/pkg/logger"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

type orderList struct {
	Orders []orders.OrderDTO `json:"pedidos"`
}

type orderCreated struct {
	ID   int64           `json:"id"`
	Kind enums.OrderKind `json:"tipo"`
}

// OrdersList serves both list endpoints.
func OrdersList(svc orders.Service, kind enums.OrderKind, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromRequest(r)
		var list []orders.OrderDTO
		if kind == enums.OrderKindCustom {
			list, err = svc.ListCustom(r.Context(), actor, filter)
		} else {
			list, err = svc.ListStock(r.Context(), actor, filter)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []orders.OrderDTO{}
		}
		responses.WriteSuccess(w, orderList{Orders: list})
	}
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := orderKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), middleware.ActorFromRequest(r), kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// OrderRegister creates either kind from a form post. Custom orders may
// attach a photo under "foto".
func OrderRegister(svc orders.Service, maxUpload int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartMemory)
		if err := parseForm(r, multipartMemory); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if r.MultipartForm != nil {
			defer func() { _ = r.MultipartForm.RemoveAll() }()
		}

		form := bindOrderForm(r)
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actor := middleware.ActorFromRequest(r)
		var id int64
		kind := enums.OrderKind(form.Kind)
		switch kind {
		case enums.OrderKindCustom:
			in, err := form.customInput()
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			photo, closePhoto, err := uploadedPhoto(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			defer closePhoto()
			id, err = svc.CreateCustom(ctx, actor, in, photo)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		default:
			in, err := form.stockInput()
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			id, err = svc.CreateStock(ctx, actor, in)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, orderCreated{ID: id, Kind: kind})
	}
}

func OrderUpdate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		kind, err := orderKind(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := parseForm(r, multipartMemory); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		form := bindUpdateForm(r)
		if err := validators.ValidateStruct(&form); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		in, err := form.input()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Update(ctx, middleware.ActorFromRequest(r), kind, id, in); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		dto, err := svc.Get(ctx, middleware.ActorFromRequest(r), kind, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func OrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := orderKind(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.ActorFromRequest(r), kind, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "eliminado": true})
	}
}

// uploadedPhoto returns nil when no file was attached.
func uploadedPhoto(r *http.Request) (*uploads.Photo, func(), error) {
	file, header, err := r.FormFile("foto")
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "archivo de foto invalido").
			WithDetails(map[string]any{"field": "foto"})
	}
	if header.Filename == "" || header.Size == 0 {
		_ = file.Close()
		return nil, func() {}, nil
	}
	return &uploads.Photo{Filename: header.Filename, Size: header.Size, Content: file}, func() { _ = file.Close() }, nil
}
