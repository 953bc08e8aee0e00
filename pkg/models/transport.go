package models

// AnalysisRequest is the multipart form accepted by POST /api/analyze.
// Exactly one of the uploaded image or ImageURL must be supplied.
type AnalysisRequest struct {
	Provider string `form:"provider"`
	APIKey   string `form:"apiKey"`
	Context  string `form:"context"`
	ImageURL string `form:"imageUrl"`
}

// AnalysisResponse carries the critique entries as a JSON-encoded array
type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}
