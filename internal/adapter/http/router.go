package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/usecase/lifecycle"
)

type Routes struct {
	Health    *Handler
	Interests *InterestHandler
	Contracts *ContractHandler
	Dashboard *DashboardHandler
	Metrics   http.Handler // optional
}

func NewRoutes(engine *lifecycle.Engine, health *Handler, metrics http.Handler) *Routes {
	return &Routes{
		Health:    health,
		Interests: NewInterestHandler(engine),
		Contracts: NewContractHandler(engine),
		Dashboard: NewDashboardHandler(engine),
		Metrics:   metrics,
	}
}

// Register mounts every route on e. Middleware is the caller's concern.
func (r *Routes) Register(e *echo.Echo) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	in := e.Group("/interests")
	in.POST("", r.Interests.Submit)
	in.GET("", r.Interests.List)
	in.GET("/:id", r.Interests.Get)
	in.POST("/:id/start-review", r.Interests.StartReview)
	in.POST("/:id/review", r.Interests.Review)
	in.POST("/:id/convert", r.Interests.Convert)

	ct := e.Group("/contracts")
	ct.POST("", r.Contracts.Create)
	ct.GET("", r.Contracts.List)
	ct.POST("/recompute", r.Contracts.RecomputeAll)
	ct.GET("/:id", r.Contracts.Get)
	ct.PATCH("/:id/terms", r.Contracts.UpdateTerms)
	ct.POST("/:id/schedule", r.Contracts.GenerateSchedule)
	ct.POST("/:id/activate", r.Contracts.Activate)
	ct.POST("/:id/amend", r.Contracts.Amend)
	ct.POST("/:id/record-payment", r.Contracts.RecordPayment)
	ct.POST("/:id/archive", r.Contracts.Archive)
	ct.POST("/:id/cancel", r.Contracts.Cancel)
	ct.POST("/:id/recompute", r.Contracts.Recompute)

	e.GET("/dashboard/stats", r.Dashboard.Stats)
}
