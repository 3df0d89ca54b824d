package handlers

// NearestRequest - nearest_planet 쿼리 파라미터
type NearestRequest struct {
	Latitude  float64
	Longitude float64
}

// ErrorResponse - 오류 응답 구조체
type ErrorResponse struct {
	Error   string `json:"error"`
	Example string `json:"example,omitempty"`
}

// HealthResponse - healthz 응답 구조체
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
