package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crm/internal/config"
	"crm/internal/domain/model"
	"crm/internal/middleware"
	"crm/internal/repository"
	"crm/internal/usecase"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// 写真2枚（各10MiB）とフォーム項目が入る大きさ
const OrderBodyLimit = "25M"

type OrderHandler struct {
	uc      *usecase.OrderUsecase
	history *usecase.OrderHistoryUsecase
	log     *zap.Logger
}

func NewOrderHandler(uc *usecase.OrderUsecase, history *usecase.OrderHistoryUsecase, log *zap.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, history: history, log: log}
}

// フォームでもJSONでも受ける
type OrderCreateRequest struct {
	CustomerName        string  `json:"customer_name" form:"customer_name"`
	CustomerPhone       string  `json:"customer_phone" form:"customer_phone"`
	CustomerAddress     string  `json:"customer_address" form:"customer_address"`
	PhoneAgreementNotes *string `json:"phone_agreement_notes"`
}

type OrderUpdateRequest struct {
	CustomerName        *string `json:"customer_name"`
	CustomerPhone       *string `json:"customer_phone"`
	CustomerAddress     *string `json:"customer_address"`
	PhoneAgreementNotes *string `json:"phone_agreement_notes"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/api/orders")
	//multipartを一時ファイルに展開する前に弾く
	g.Use(echomw.BodyLimit(OrderBodyLimit))
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.ActiveUserGuard(userRepo, h.log))

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.PUT("/:id", h.update)
	g.POST("/:id/submit", h.submit)
	g.POST("/:id/confirm", h.confirm)
	g.PUT("/:id/details", h.addDetails)
	g.POST("/:id/complete", h.complete)
	g.POST("/:id/ready", h.ready)
	g.POST("/:id/deliver", h.deliver)
	g.GET("/:id/history", h.listHistory)
}

func isFormRequest(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// 送られてきたキーだけ値を返す
func optionalForm(form url.Values, key string) *string {
	vs, ok := form[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

func parseOrderID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func invalidID(c echo.Context) error {
	return writeError(c, usecase.ErrValidation("invalid id"))
}

func (h *OrderHandler) create(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	var req OrderCreateRequest
	if isFormRequest(c) {
		form, err := c.FormParams()
		if err != nil {
			return writeError(c, usecase.ErrValidation("invalid body"))
		}
		req.CustomerName = form.Get("customer_name")
		req.CustomerPhone = form.Get("customer_phone")
		req.CustomerAddress = form.Get("customer_address")
		req.PhoneAgreementNotes = optionalForm(form, "phone_agreement_notes")
	} else if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.ErrValidation("invalid body"))
	}

	out, err := h.uc.Create(c.Request().Context(), id, usecase.CreateOrderInput{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		PhoneAgreementNotes: req.PhoneAgreementNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}

	status := c.QueryParam("status_filter")
	if status == "" {
		status = c.QueryParam("status")
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return writeError(c, usecase.ErrValidation("invalid page"))
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return writeError(c, usecase.ErrValidation("invalid limit"))
	}

	out, err := h.uc.List(c.Request().Context(), id, usecase.ListOrdersInput{
		StatusFilter: status,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func queryInt(c echo.Context, key string) (int, error) {
	v := c.QueryParam(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return invalidID(c)
	}

	out, err := h.uc.Get(c.Request().Context(), id, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) update(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return invalidID(c)
	}

	var req OrderUpdateRequest
	if isFormRequest(c) {
		form, err := c.FormParams()
		if err != nil {
			return writeError(c, usecase.ErrValidation("invalid body"))
		}
		req.CustomerName = optionalForm(form, "customer_name")
		req.CustomerPhone = optionalForm(form, "customer_phone")
		req.CustomerAddress = optionalForm(form, "customer_address")
		req.PhoneAgreementNotes = optionalForm(form, "phone_agreement_notes")
	} else if err := c.Bind(&req); err != nil {
		return writeError(c, usecase.ErrValidation("invalid body"))
	}

	out, err := h.uc.UpdateFields(c.Request().Context(), id, orderID, usecase.UpdateOrderInput{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		CustomerAddress:     req.CustomerAddress,
		PhoneAgreementNotes: req.PhoneAgreementNotes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) submit(c echo.Context) error {
	return h.runTransition(c, h.uc.Submit)
}

func (h *OrderHandler) confirm(c echo.Context) error {
	return h.runTransition(c, h.uc.Confirm)
}

func (h *OrderHandler) complete(c echo.Context) error {
	return h.runTransition(c, h.uc.Complete)
}

func (h *OrderHandler) ready(c echo.Context) error {
	return h.runTransition(c, h.uc.MarkReady)
}

func (h *OrderHandler) deliver(c echo.Context) error {
	return h.runTransition(c, h.uc.MarkDelivered)
}

type transitionFunc func(ctx context.Context, id model.Identity, orderID int64) (usecase.OrderView, error)

func (h *OrderHandler) runTransition(c echo.Context, fn transitionFunc) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return invalidID(c)
	}

	out, err := fn(c.Request().Context(), id, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart: customer_requirements, deadline, price, material_photo, furniture_photo
func (h *OrderHandler) addDetails(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return invalidID(c)
	}

	// 数値でなければ0として渡し、状態チェックの後にusecaseで弾く
	price, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("price")), 10, 64)
	if err != nil {
		price = 0
	}

	in := usecase.AddDetailsInput{
		CustomerRequirements: c.FormValue("customer_requirements"),
		Deadline:             c.FormValue("deadline"),
		Price:                price,
	}

	var files []multipart.File
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	for _, p := range []struct {
		field string
		dst   **usecase.PhotoUpload
	}{
		{"material_photo", &in.MaterialPhoto},
		{"furniture_photo", &in.FurniturePhoto},
	} {
		fh, err := c.FormFile(p.field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			return writeError(c, usecase.ErrValidation("invalid multipart body"))
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, usecase.ErrUploadRejected(p.field+": cannot open file"))
		}
		files = append(files, f)
		*p.dst = &usecase.PhotoUpload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Content:  f,
		}
	}

	out, err := h.uc.AddDetails(c.Request().Context(), id, orderID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listHistory(c echo.Context) error {
	id, ok := getIdentityFromContext(c)
	if !ok {
		return unauthenticated(c)
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return invalidID(c)
	}

	out, err := h.history.History(c.Request().Context(), id, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
