package handler

// CreateAccountRequest represents a request to open a client account in an
// application
type CreateAccountRequest struct {
	UserID        string `json:"user_id" binding:"required,uuid"`
	ApplicationID string `json:"application_id" binding:"required,uuid"`
	OperatorID    string `json:"operator_id" binding:"required,uuid"`
}

// CloseAccountRequest represents a request to close an account
type CloseAccountRequest struct {
	OperatorID  string `json:"operator_id" binding:"required,uuid"`
	Description string `json:"description,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	ApplicationID  string `json:"application_id"`
	IsActive       bool   `json:"is_active"`
	CreationStatus string `json:"creation_status"`
	Message        string `json:"message,omitempty"`
	CreatedAt      string `json:"created_at"`
	ActivatedAt    string `json:"activated_at,omitempty"`
	DeactivatedAt  string `json:"deactivated_at,omitempty"`
}

// BalancesResponse represents an account's wallet and income balances. The
// figures are decimal strings.
type BalancesResponse struct {
	Balance       string `json:"balance"`
	IncomeBalance string `json:"income_balance"`
}

// OperationResponse represents one ledger operation in API responses
type OperationResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	OperationType string `json:"operation_type"`
	Value         string `json:"value"`
	Balance       string `json:"balance"`
	Description   string `json:"description,omitempty"`
	OperationDate string `json:"operation_date"`
	TransferID    string `json:"transfer_id,omitempty"`
}

// SubmitTransferRequest represents a request to move funds in or out of an
// account
type SubmitTransferRequest struct {
	AccountID   string `json:"account_id" binding:"required,uuid"`
	Operation   string `json:"operation" binding:"required,oneof=DEPO WWAL WINC"`
	Value       string `json:"value" binding:"required"`
	RequesterID string `json:"requester_id" binding:"required,uuid"`
}

// ApproveTransferRequest represents an operator's approval of a pending
// transfer. Receipt is required for deposit approvals.
type ApproveTransferRequest struct {
	ApproverID string `json:"approver_id" binding:"required,uuid"`
	Receipt    string `json:"receipt,omitempty"`
}

// DisapproveTransferRequest represents an operator's rejection of a pending
// transfer
type DisapproveTransferRequest struct {
	ApproverID string `json:"approver_id" binding:"required,uuid"`
	Message    string `json:"message" binding:"required"`
}

// CompleteTransferRequest represents the final step of a transfer waiting on
// a receipt
type CompleteTransferRequest struct {
	ProcessorID string `json:"processor_id" binding:"required,uuid"`
	Receipt     string `json:"receipt" binding:"required"`
}

// TransferResponse represents a money transfer in API responses
type TransferResponse struct {
	ID             string `json:"id"`
	AccountID      string `json:"account_id"`
	Operation      string `json:"operation"`
	State          string `json:"state"`
	Value          string `json:"value"`
	Receipt        string `json:"receipt,omitempty"`
	DisplayMessage string `json:"display_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	ApprovedAt     string `json:"approved_at,omitempty"`
	FinishedAt     string `json:"finished_at,omitempty"`
}

// RequestIncomeRunRequest represents a request to run the monthly income
// calculation for an application
type RequestIncomeRunRequest struct {
	Year        int    `json:"year" binding:"required,min=2000"`
	Month       int    `json:"month" binding:"required,min=1,max=12"`
	RequesterID string `json:"requester_id" binding:"required,uuid"`
}

// IncomeRunResponse represents an income run in API responses
type IncomeRunResponse struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	PaidRate      string `json:"paid_rate"`
	State         string `json:"state"`
	ErrorMessage  string `json:"error_message,omitempty"`
	CreatedAt     string `json:"created_at"`
	StartedAt     string `json:"started_at,omitempty"`
	FinishedAt    string `json:"finished_at,omitempty"`
}

// CreateApplicationRequest represents a request to register an investment
// product application
type CreateApplicationRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	ProductCode string `json:"product_code" binding:"required,oneof=POOL_ACCOUNT CROWDFUNDING"`
	PaidRate    string `json:"paid_rate" binding:"required"`
}

// UpdateFundStateRequest represents a request to move a crowdfunding raise
// to a new state
type UpdateFundStateRequest struct {
	State string `json:"state" binding:"required,oneof=OPEN OPDE COMP CANC"`
}

// ApplicationResponse represents an application in API responses
type ApplicationResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ProductCode string `json:"product_code"`
	IsActive    bool   `json:"is_active"`
	PaidRate    string `json:"paid_rate"`
	CreatedAt   string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
