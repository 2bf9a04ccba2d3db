// internal/handlers/contract/contract.go
package contract

import (
	"net/http"

	"helloaca-service/internal/domain/contract"
	"helloaca-service/internal/middleware"
	"helloaca-service/internal/pkg/response"
	contractsvc "helloaca-service/internal/service/contract"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContractHandler struct {
	contractService *contractsvc.Service
}

func NewContractHandler(contractService *contractsvc.Service) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// Upload handles the multipart contract upload.
func (h *ContractHandler) Upload(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req contract.UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ValidationError(c, "invalid upload metadata", err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ValidationError(c, "contract file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.ValidationError(c, "could not read uploaded file", nil)
		return
	}
	defer file.Close()

	resp, err := h.contractService.Upload(c.Request.Context(), userID, &req, contractsvc.FileUpload{
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      file,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, resp)
}

// List returns a page of the caller's contracts.
func (h *ContractHandler) List(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var filters contract.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.ValidationError(c, "invalid list filters", err.Error())
		return
	}

	resp, err := h.contractService.List(c.Request.Context(), userID, &filters)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Get returns one contract.
func (h *ContractHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	contractID, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.contractService.Get(c.Request.Context(), userID, contractID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Update modifies contract metadata.
func (h *ContractHandler) Update(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	contractID, ok := parseID(c)
	if !ok {
		return
	}

	var req contract.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err.Error())
		return
	}

	result, err := h.contractService.Update(c.Request.Context(), userID, contractID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete removes a contract and its stored document.
func (h *ContractHandler) Delete(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	contractID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.contractService.Delete(c.Request.Context(), userID, contractID); err != nil {
		response.FromError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Contract deleted successfully"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "invalid contract id", nil)
		return uuid.Nil, false
	}
	return id, true
}
