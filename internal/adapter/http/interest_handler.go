package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
	"realestate-lifecycle/internal/usecase/lifecycle"
)

type InterestHandler struct{ engine *lifecycle.Engine }

func NewInterestHandler(e *lifecycle.Engine) *InterestHandler { return &InterestHandler{engine: e} }

type submitInterestReq struct {
	InvestorID  string `json:"investor_id"  validate:"required,ident"`
	AssetID     string `json:"asset_id"     validate:"required,ident"`
	Purpose     string `json:"purpose"      validate:"max=64"`
	AmountRange string `json:"amount_range" validate:"max=64"`
	Timeline    string `json:"timeline"     validate:"max=64"`
}

type versionReq struct {
	Version int `json:"version" validate:"gte=0"`
}

type reviewReq struct {
	Action          string `json:"action"           validate:"required,oneof=approve reject"`
	ReviewNotes     string `json:"review_notes"`
	RejectionReason string `json:"rejection_reason"`
	Version         int    `json:"version"          validate:"gte=0"`
}

// termsReq carries contract terms; every field is optional so drafts can be created.
type termsReq struct {
	ContractCode string `json:"contract_code" validate:"omitempty,ident,max=32"`
	AssetID      string `json:"asset_id"      validate:"omitempty,ident"`
	InvestorID   string `json:"investor_id"   validate:"omitempty,ident"`
	TotalAmount  int64  `json:"total_amount"  validate:"gte=0"`
	Duration     int    `json:"duration"      validate:"gte=0,lte=600"`
	StartDate    string `json:"start_date"    validate:"omitempty,datetime=2006-01-02"`
}

func (r termsReq) input() (lifecycle.TermsInput, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return lifecycle.TermsInput{}, err
	}
	return lifecycle.TermsInput{
		ContractCode: r.ContractCode,
		AssetID:      r.AssetID,
		InvestorID:   r.InvestorID,
		TotalAmount:  r.TotalAmount,
		Duration:     r.Duration,
		StartDate:    start,
	}, nil
}

type convertReq struct {
	termsReq
	Version int `json:"version" validate:"gte=0"`
}

type convertResp struct {
	ContractID string             `json:"contract_id"`
	Interest   *interest.Interest `json:"interest"`
	Contract   *contract.Contract `json:"contract"`
}

func (h *InterestHandler) Submit(c echo.Context) error {
	var req submitInterestReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.engine.SubmitInterest(c.Request().Context(), actorFrom(c), lifecycle.SubmitInterestInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *InterestHandler) List(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return writeError(c, err)
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.ListInterests(c.Request().Context(), interest.Filter{
		InvestorID: c.QueryParam("investor_id"),
		Status:     interest.Status(c.QueryParam("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (h *InterestHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.engine.GetInterest(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InterestHandler) StartReview(c echo.Context) error {
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
	out, err := h.engine.StartReview(c.Request().Context(), actorFrom(c), id, req.Version)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InterestHandler) Review(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.engine.ReviewInterest(c.Request().Context(), actorFrom(c), lifecycle.ReviewInput{
		InterestID:      id,
		Decision:        interest.Decision(req.Action),
		Notes:           req.ReviewNotes,
		RejectionReason: req.RejectionReason,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InterestHandler) Convert(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return missingID(c)
	}
	var req convertReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	terms, err := req.input()
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.engine.ConvertInterest(c.Request().Context(), actorFrom(c), lifecycle.ConvertInput{
		InterestID:      id,
		Terms:           terms,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, convertResp{
		ContractID: out.Contract.ContractID,
		Interest:   out.Interest,
		Contract:   out.Contract,
	})
}
