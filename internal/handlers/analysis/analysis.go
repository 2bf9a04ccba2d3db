// internal/handlers/analysis/analysis.go
package analysis

import (
	"net/http"

	"helloaca-service/internal/domain/analysis"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/response"
	analysissvc "helloaca-service/internal/service/analysis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalysisHandler struct {
	analysisService *analysissvc.Service
}

func NewAnalysisHandler(analysisService *analysissvc.Service) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// Analyze runs the analysis pipeline for a contract.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req analysis.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "contract_id is required", err.Error())
		return
	}

	result, decision, err := h.analysisService.Analyze(c.Request.Context(), userID, req.ContractID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	view, err := h.analysisService.RestrictForUser(c.Request.Context(), userID, result)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.JSON(c, http.StatusOK, analysis.AnalyzeResponse{
		Message:  "Contract analyzed successfully",
		Analysis: view,
		Usage:    analysis.Usage{RemainingTrials: decision.RemainingTrials},
	})
}

// Get returns one analysis, restricted for trial users.
func (h *AnalysisHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	analysisID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid analysis id", nil)
		return
	}

	view, err := h.analysisService.GetView(c.Request.Context(), userID, analysisID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// GetByContract returns the analysis attached to a contract.
func (h *AnalysisHandler) GetByContract(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contract id", nil)
		return
	}

	view, err := h.analysisService.GetViewByContract(c.Request.Context(), userID, contractID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}
