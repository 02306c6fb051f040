package transport

import (
	"encoding/json"
	"log"
	"net/http"
)

// ServerResponse is the envelope every JSON endpoint returns. Success
// responses carry message/data; failures carry error.
type ServerResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SendJSONRes(w http.ResponseWriter, data interface{}, message string, status int) http.HandlerFunc {
	body, err := json.Marshal(ServerResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return SendErrorRes(w, "Failed to marshal response", http.StatusInternalServerError, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, writeErr := w.Write(body)
	if writeErr != nil {
		log.Println("ERR: Error writing response:", writeErr)
	}

	return http.HandlerFunc(nil)
}

// NOTE: `err` is logged server side, `message` is what the client sees
func SendErrorRes(w http.ResponseWriter, message string, status int, err error) http.HandlerFunc {
	internalMsg := "ERR: " + message
	if err != nil {
		internalMsg += " || Internal error msg: " + err.Error()
	}
	log.Println(internalMsg)

	body, marshalErr := json.Marshal(ServerResponse{
		Success: false,
		Error:   message,
	})
	if marshalErr != nil {
		log.Println("ERR: Error marshaling error response:", marshalErr)
		body = []byte(`{"success":false,"error":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, writeErr := w.Write(body)
	if writeErr != nil {
		log.Println("ERR: Error writing response:", writeErr)
	}

	return http.HandlerFunc(nil)
}
