package models

// RecordTransactionRequest is the payload for POST /transactions.
type RecordTransactionRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Date     Date            `json:"date" binding:"required"`
	Side     TransactionSide `json:"side" binding:"required"`
	Quantity float64         `json:"quantity" binding:"required"`
	Price    float64         `json:"price" binding:"required"`
	Fees     float64         `json:"fees"`
}

// BatchImportRequest is the payload for POST /instruments/import.
type BatchImportRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
}

// BatchImportResult reports the outcome of a batch snapshot import. A failure
// for one symbol never aborts the batch; it is recorded here instead.
type BatchImportResult struct {
	Imported int      `json:"imported"`
	Errors   []string `json:"errors"`
}

// ErrorResponse is the standard error payload for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
