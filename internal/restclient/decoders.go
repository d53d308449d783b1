package restclient

import (
	"encoding/json"
	"strings"
)

type messageErrorDocument struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// DecodeMessageError reads `{"message": "...", "errors": [...]}` documents, falling back to a plain `error` string.
// Detail messages are appended to the message and the first detail code is reported as the code.
func DecodeMessageError(body []byte) (string, string, error) {
	var document messageErrorDocument
	if decodeError := json.Unmarshal(body, &document); decodeError != nil {
		return "", "", decodeError
	}
	message := strings.TrimSpace(document.Message)
	if len(message) == 0 {
		message = strings.TrimSpace(document.Error)
	}

	code := ""
	details := make([]string, 0, len(document.Errors))
	for _, detail := range document.Errors {
		if len(code) == 0 {
			code = strings.TrimSpace(detail.Code)
		}
		if trimmedDetail := strings.TrimSpace(detail.Message); len(trimmedDetail) > 0 {
			details = append(details, trimmedDetail)
		}
	}
	if len(details) > 0 {
		message = strings.TrimSpace(message + " " + strings.Join(details, "; "))
	}
	return code, message, nil
}

type nestedErrorDocument struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// DecodeNestedError reads `{"error": {"code": "...", "message": "..."}}` documents.
func DecodeNestedError(body []byte) (string, string, error) {
	var document nestedErrorDocument
	if decodeError := json.Unmarshal(body, &document); decodeError != nil {
		return "", "", decodeError
	}
	return strings.TrimSpace(document.Error.Code), strings.TrimSpace(document.Error.Message), nil
}
