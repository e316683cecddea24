package campaign

import (
	"github.com/OrderlyNetwork/aden/internal/model"
	"github.com/OrderlyNetwork/aden/internal/service"
	"github.com/OrderlyNetwork/aden/pkg/errors"
	"github.com/OrderlyNetwork/aden/pkg/errors/ecode"
	"github.com/OrderlyNetwork/aden/pkg/response"
	"github.com/OrderlyNetwork/aden/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

type Handler struct {
	service *service.CampaignService
}

func NewHandler(service *service.CampaignService) *Handler {
	return &Handler{
		service: service,
	}
}

// LeaderboardGet 排行榜分页查询
// GET /api/v1/campaign/leaderboard?campaign_id=137&metric=volume&page=1
func (h *Handler) LeaderboardGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.CampaignLeaderboardReq
		if err := ctx.ShouldBindQuery(&req); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}

		res, err := h.service.LeaderboardGet(ctx, &req)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, res)
	}
}

// InfoGet 活动信息与倒计时
func (h *Handler) InfoGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.CampaignInfoReq
		if err := ctx.ShouldBindQuery(&req); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}

		res, err := h.service.CampaignInfoGet(ctx, req.CampaignId)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, res)
	}
}

// ListGet 全部活动登记，管理端用
func (h *Handler) ListGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res, err := h.service.CampaignList(ctx)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, res)
	}
}

// Upsert 创建或更新活动登记
func (h *Handler) Upsert() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req model.CampaignUpsertReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, validator.Translate(err)), nil)
			return
		}

		if err := h.service.CampaignUpsert(ctx, &req); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}

// Delete 下线活动
func (h *Handler) Delete() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		campaignId := cast.ToInt64(ctx.Query("campaign_id"))
		if campaignId <= 0 {
			response.JSON(ctx, errors.WithCode(ecode.ValidateErr, "campaign_id is required"), nil)
			return
		}

		if err := h.service.CampaignDelete(ctx, campaignId); err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, nil)
	}
}
