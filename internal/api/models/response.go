package models

import "time"

// BaseResponse represents the base API response structure
type BaseResponse struct {
	Success   bool        `json:"success" example:"true"`
	Message   string      `json:"message,omitempty" example:"Operation completed successfully"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Redirect  string      `json:"redirect,omitempty" example:"/login"`
	Timestamp int64       `json:"timestamp" example:"1640995200"`
	RequestID string      `json:"request_id,omitempty" example:"req_123456"`
}

// ErrorInfo represents error information
type ErrorInfo struct {
	Code    string `json:"code" example:"UNAUTHORIZED"`
	Message string `json:"message" example:"You are not authenticated"`
	Details string `json:"details,omitempty"`
}

// Success builds a successful envelope around data
func Success(data interface{}) BaseResponse {
	return BaseResponse{Success: true, Data: data, Timestamp: time.Now().Unix()}
}

// Failure builds an error envelope
func Failure(code, message string) BaseResponse {
	return BaseResponse{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		Timestamp: time.Now().Unix(),
	}
}

// SessionResponse describes the current guard outcome and user
type SessionResponse struct {
	State   string      `json:"state" example:"authorized"`
	Loading bool        `json:"loading" example:"false"`
	Role    string      `json:"role" example:"admin"`
	User    interface{} `json:"user"`
}

// ListResponse wraps a proxied backend list
type ListResponse struct {
	Items interface{}    `json:"items"`
	Count int            `json:"count" example:"12"`
	ByKey map[string]int `json:"by_status,omitempty"`
}

// WebSocketMessage represents WebSocket message structure
type WebSocketMessage struct {
	Type      string      `json:"type" example:"orders_snapshot"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp" example:"1640995200"`
}

// HealthCheckResponse represents health check response
type HealthCheckResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp int64                  `json:"timestamp" example:"1640995200"`
	Version   string                 `json:"version" example:"1.0.0"`
	Uptime    int64                  `json:"uptime" example:"86400"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents individual health check
type HealthCheck struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message,omitempty" example:"Service is running normally"`
	Latency string `json:"latency,omitempty" example:"5ms"`
}
