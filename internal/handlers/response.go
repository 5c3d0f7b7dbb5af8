package handlers

import (
	"encoding/json"
	"net/http"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	storage := make(map[string]any)
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	json.NewEncoder(w).Encode(storage)
}

func responseWithData(w http.ResponseWriter, code int, data any) {
	responseWithJSON(w, code,
		toPayload("success", true),
		toPayload("data", data),
	)
}

// всегда массив, даже пустой
func responseWithList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("count", len(items)),
		toPayload("data", items),
	)
}

func responseWithError(w http.ResponseWriter, code int, message string) {
	responseWithJSON(w, code,
		toPayload("success", false),
		toPayload("message", message),
	)
}
