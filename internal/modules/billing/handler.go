package billing

import (
	"github.com/gin-gonic/gin"
	"github.com/kontenhub/cms/internal/middleware"
	"github.com/kontenhub/cms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	rg.GET("/plans", h.listPlans)
	rg.POST("/plans", authMW, adminMW, h.createPlan)
	rg.GET("/paymentMethods", h.listPaymentMethods)
	rg.POST("/paymentMethods", authMW, adminMW, h.createPaymentMethod)

	rg.GET("/subscriptions", authMW, h.listSubscriptions)
	rg.POST("/subscriptions", authMW, h.subscribe)
	rg.GET("/payments", authMW, h.listPayments)
	rg.POST("/payments", authMW, h.createPayment)
}

func (h *Handler) listPlans(c *gin.Context) {
	plans, err := h.svc.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plans)
}

func (h *Handler) createPlan(c *gin.Context) {
	var dto CreatePlanDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	plan, err := h.svc.CreatePlan(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

func (h *Handler) listPaymentMethods(c *gin.Context) {
	methods, err := h.svc.ListPaymentMethods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, methods)
}

func (h *Handler) createPaymentMethod(c *gin.Context) {
	var dto CreatePaymentMethodDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.CreatePaymentMethod(c.Request.Context(), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, m)
}

func (h *Handler) listSubscriptions(c *gin.Context) {
	subs, err := h.svc.ListSubscriptions(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subs)
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Subscribe(c.Request.Context(), middleware.CurrentPrincipal(c), dto.PlanID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

func (h *Handler) listPayments(c *gin.Context) {
	payments, err := h.svc.ListPayments(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, payments)
}

func (h *Handler) createPayment(c *gin.Context) {
	var dto CreatePaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	payment, err := h.svc.CreatePayment(c.Request.Context(), middleware.CurrentPrincipal(c), &dto)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}
