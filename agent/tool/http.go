package tool

import (
	"net/http"

	"github.com/gin-gonic/gin"
	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
	"github.com/tanpawarit/chative-food-order/agent/router"
)

// HTTPHandler serves POST /v1/tools/:tool with a JSON router.Request body.
type HTTPHandler struct {
	caller Caller
}

func NewHTTPHandler(caller Caller) *HTTPHandler {
	return &HTTPHandler{caller: caller}
}

func (h *HTTPHandler) HandleTool(c *gin.Context) {
	tool := contractx.Tool(c.Param("tool"))
	if !tool.Valid() {
		c.JSON(http.StatusNotFound, contractx.Result{
			Status:  contractx.StatusError,
			Code:    contractx.CodeValidation,
			Message: "Unknown tool " + string(tool) + ".",
		})
		return
	}

	var req router.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, contractx.Result{
			Status:  contractx.StatusError,
			Code:    contractx.CodeValidation,
			Message: "The request body must be a JSON object with query, tenant_key and session_id.",
		})
		return
	}

	res := h.caller.Handle(c.Request.Context(), tool, req)
	c.JSON(httpStatus(res), res)
}

func httpStatus(res contractx.Result) int {
	if res.Status != contractx.StatusError {
		return http.StatusOK
	}
	switch res.Code {
	case contractx.CodeValidation:
		return http.StatusBadRequest
	case contractx.CodeUnknownTenant:
		return http.StatusNotFound
	case contractx.CodeRateLimited:
		return http.StatusTooManyRequests
	case contractx.CodeStoreConflict:
		return http.StatusConflict
	case contractx.CodeSessionUnavailable, contractx.CodeCatalogUnavailable:
		return http.StatusServiceUnavailable
	case contractx.CodeExtractorTimeout:
		return http.StatusGatewayTimeout
	case contractx.CodeExtractorFailure:
		return http.StatusBadGateway
	case contractx.CodeItemNotFound, contractx.CodeItemUnavailable, contractx.CodeLineNotFound, contractx.CodeInvalidQuantity:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
