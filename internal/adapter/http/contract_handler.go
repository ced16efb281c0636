package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/usecase/lifecycle"
)

type ContractHandler struct{ engine *lifecycle.Engine }

func NewContractHandler(e *lifecycle.Engine) *ContractHandler { return &ContractHandler{engine: e} }

// updateTermsReq is a partial update; absent fields keep their value.
type updateTermsReq struct {
	AssetID     *string `json:"asset_id"     validate:"omitempty,ident"`
	InvestorID  *string `json:"investor_id"  validate:"omitempty,ident"`
	TotalAmount *int64  `json:"total_amount" validate:"omitempty,gte=0"`
	Duration    *int    `json:"duration"     validate:"omitempty,gte=0,lte=600"`
	StartDate   *string `json:"start_date"   validate:"omitempty,datetime=2006-01-02"`
	Version     int     `json:"version"      validate:"gte=0"`
}

type amendReq struct {
	TotalAmount int64  `json:"total_amount" validate:"required,gt=0"`
	Duration    int    `json:"duration"     validate:"required,gt=0,lte=600"`
	StartDate   string `json:"start_date"   validate:"omitempty,datetime=2006-01-02"`
	Version     int    `json:"version"      validate:"gte=0"`
}

type paymentReq struct {
	InstallmentSeq int    `json:"installment_seq" validate:"required,gt=0"`
	PaidAt         string `json:"paid_at"`
	Version        int    `json:"version"         validate:"gte=0"`
}

func (h *ContractHandler) Create(c echo.Context) error {
	var req termsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	in, err := req.input()
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.CreateContractDirect(c.Request().Context(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ContractHandler) List(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return writeError(c, err)
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.ListContracts(c.Request().Context(), contract.Filter{
		InvestorID: c.QueryParam("investor_id"),
		Status:     contract.Status(c.QueryParam("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (h *ContractHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.engine.GetContract(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ContractHandler) UpdateTerms(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req updateTermsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	in := lifecycle.UpdateTermsInput{
		ContractID:      id,
		AssetID:         req.AssetID,
		InvestorID:      req.InvestorID,
		TotalAmount:     req.TotalAmount,
		Duration:        req.Duration,
		ExpectedVersion: req.Version,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return writeError(c, err)
		}
		in.StartDate = start
	}
	out, err := h.engine.UpdateContractTerms(c.Request().Context(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// withRef reads the path id and the optional {version} body shared by the bodiless commands.
func (h *ContractHandler) withRef(c echo.Context, fn func(ref lifecycle.ContractRef) error) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req versionReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	return fn(lifecycle.ContractRef{ContractID: id, ExpectedVersion: req.Version})
}

func (h *ContractHandler) GenerateSchedule(c echo.Context) error {
	return h.withRef(c, func(ref lifecycle.ContractRef) error {
		out, err := h.engine.GenerateSchedule(c.Request().Context(), actorFrom(c), ref)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})
}

func (h *ContractHandler) Activate(c echo.Context) error {
	return h.withRef(c, func(ref lifecycle.ContractRef) error {
		out, err := h.engine.ActivateContract(c.Request().Context(), actorFrom(c), ref)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})
}

func (h *ContractHandler) Amend(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req amendReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.AmendContract(c.Request().Context(), actorFrom(c), lifecycle.AmendInput{
		ContractID:      id,
		TotalAmount:     req.TotalAmount,
		Duration:        req.Duration,
		StartDate:       start,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ContractHandler) RecordPayment(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	paidAt, err := parseInstant(req.PaidAt)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.RecordPayment(c.Request().Context(), actorFrom(c), lifecycle.PaymentInput{
		ContractID:      id,
		Seq:             req.InstallmentSeq,
		PaidAt:          paidAt,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ContractHandler) Archive(c echo.Context) error {
	return h.setAdminStatus(c, contract.StatusArchived)
}

func (h *ContractHandler) Cancel(c echo.Context) error {
	return h.setAdminStatus(c, contract.StatusCancelled)
}

func (h *ContractHandler) setAdminStatus(c echo.Context, st contract.Status) error {
	return h.withRef(c, func(ref lifecycle.ContractRef) error {
		out, err := h.engine.SetAdministrativeStatus(c.Request().Context(), actorFrom(c), lifecycle.AdminStatusInput{
			ContractID:      ref.ContractID,
			Status:          st,
			ExpectedVersion: ref.ExpectedVersion,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	})
}

func (h *ContractHandler) Recompute(c echo.Context) error {
	return h.withRef(c, func(ref lifecycle.ContractRef) error {
		out, changed, err := h.engine.RecomputeContract(c.Request().Context(), actorFrom(c), ref)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"changed": changed, "contract": out})
	})
}

func (h *ContractHandler) RecomputeAll(c echo.Context) error {
	out, err := h.engine.RecomputeAll(c.Request().Context(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
