package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AuthMeResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type CreateItemResponse struct {
	ID string `json:"id"`
}
