package api_router

import (
	"errors"
	"strings"

	"github.com/haierkeys/gift-share-service/internal/app"
	"github.com/haierkeys/gift-share-service/internal/domain"
	"github.com/haierkeys/gift-share-service/internal/dto"
	"github.com/haierkeys/gift-share-service/internal/service"
	pkgapp "github.com/haierkeys/gift-share-service/pkg/app"
	"github.com/haierkeys/gift-share-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

// ShareEndpoint HTTP 入口，每个分享类型一个
type ShareEndpoint interface {
	Submit(c *gin.Context)
	Consume(c *gin.Context)
}

// ShareHandler 分享 API 路由处理器
// P 为存储的内容类型，R 为提交时的请求结构
type ShareHandler[P domain.Payload, R any] struct {
	*Handler
	service service.ShareService[P]
}

// NewShareHandler 创建 ShareHandler 实例
func NewShareHandler[P domain.Payload, R any](a *app.App, svc service.ShareService[P]) *ShareHandler[P, R] {
	return &ShareHandler[P, R]{
		Handler: NewHandler(a),
		service: svc,
	}
}

// NewShareEndpoints 按分享类型名返回所有入口
func NewShareEndpoints(a *app.App) map[string]ShareEndpoint {
	return map[string]ShareEndpoint{
		app.ArtifactGift:   NewShareHandler[domain.GiftPayload, dto.GiftSubmitRequest](a, a.GiftService),
		app.ArtifactLetter: NewShareHandler[domain.LetterPayload, dto.LetterSubmitRequest](a, a.LetterService),
	}
}

// Submit creates a share and returns its token and URL
// @Summary Create share
// @Tags Share
// @Accept json
// @Produce json
// @Param artifact path string true "gift or letter"
// @Success 200 {object} pkgapp.Res{data=dto.ShareCreatedResponse} "Success"
// @Router /api/{artifact}/submit [post]
func (h *ShareHandler[P, R]) Submit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := new(R)

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	var payload P
	if err := copier.Copy(&payload, params); err != nil {
		h.logError(c.Request.Context(), "ShareHandler.Submit", err)
		response.ToResponse(code.ErrorShareCreateFailed)
		return
	}

	ctx := c.Request.Context()
	created, err := h.service.CreateShare(ctx, payload, pkgapp.GetAccountID(c))
	if err != nil {
		h.logError(ctx, "ShareHandler.Submit", err)
		response.ToResponse(errorCode(err, code.ErrorShareCreateFailed))
		return
	}

	res := dto.ShareCreatedResponse{}
	if err := copier.Copy(&res, created); err != nil {
		h.logError(ctx, "ShareHandler.Submit", err)
		response.ToResponse(code.ErrorShareCreateFailed)
		return
	}
	res.Tier = string(created.Tier)
	// 未配置 public-base-url 时用请求的 host 补全
	if strings.HasPrefix(res.ShareURL, "/") {
		res.ShareURL = pkgapp.GetAccessHost(c) + res.ShareURL
	}

	response.ToResponse(code.Success.WithData(res))
}

// Consume spends one read of a share and returns its payload
// @Summary Open share
// @Tags Share
// @Produce json
// @Param artifact path string true "gift or letter"
// @Param token query string true "Share token"
// @Success 200 {object} pkgapp.Res{data=dto.ShareViewResponse[any]} "Success"
// @Router /api/{artifact}/share [get]
func (h *ShareHandler[P, R]) Consume(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ShareQueryRequest{}

	// 格式不对的 Token 一律按不存在处理
	valid, _ := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorShareNotFound)
		return
	}

	ctx := c.Request.Context()
	view, err := h.service.ConsumeShare(ctx, params.Token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logError(ctx, "ShareHandler.Consume", err)
		}
		response.ToResponse(errorCode(err, code.ErrorServerInternal))
		return
	}

	response.ToResponse(code.Success.WithData(dto.ShareViewResponse[P]{
		Payload:         view.Payload,
		ExpiresAt:       view.ExpiresAt,
		AccessLimit:     view.AccessLimit,
		AccessRemaining: view.AccessRemaining,
	}))
}

// Dispatch 按路径中的 :artifact 分发到对应入口
func Dispatch(endpoints map[string]ShareEndpoint, pick func(ShareEndpoint) gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := endpoints[strings.ToLower(c.Param("artifact"))]
		if !ok {
			pkgapp.NewResponse(c).ToResponse(code.ErrorUnknownArtifact)
			return
		}
		pick(e)(c)
	}
}

// errorCode 将领域错误映射为响应码
func errorCode(err error, fallback *code.Code) *code.Code {
	var cObj *code.Code
	switch {
	case errors.As(err, &cObj):
		return cObj
	case errors.Is(err, domain.ErrNotFound):
		return code.ErrorShareNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return code.ErrorStoreUnavailable
	case errors.Is(err, domain.ErrTokenExhaustion):
		return code.ErrorShareTokenExhausted
	default:
		return fallback
	}
}
