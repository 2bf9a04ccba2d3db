// internal/domain/contract/dto.go
package contract

type UploadRequest struct {
	Title        string `form:"title" binding:"required,max=255"`
	Description  string `form:"description" binding:"omitempty,max=2000"`
	ContractType Type   `form:"contract_type" binding:"required,oneof=employment service nda partnership lease other"`
}

type UpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type ListFilters struct {
	Status   Status `form:"status" binding:"omitempty,oneof=uploaded analyzing completed failed"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ListResponse struct {
	Contracts  []Contract `json:"contracts"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type UploadResponse struct {
	Message  string    `json:"message"`
	Contract *Contract `json:"contract"`
	Usage    Usage     `json:"usage"`
}

type Usage struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
}
