package errors

import (
	"errors"
	"fmt"
)

// ValidationMessage is shown when the composed message is empty
const ValidationMessage = "Please enter a message."

// Classify turns any submission failure into the single user-facing string
// that replaces the displayed response.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		validationErr *ValidationError
		timeoutErr    *TimeoutError
		networkErr    *NetworkError
		httpErr       *HTTPError
		decodeErr     *DecodeError
	)

	switch {
	case errors.As(err, &validationErr):
		return ValidationMessage
	case errors.As(err, &timeoutErr):
		return fmt.Sprintf("Network error: %s", timeoutErr.Error())
	case errors.As(err, &networkErr):
		return fmt.Sprintf("Network error: %s", networkErr.Error())
	case errors.As(err, &httpErr):
		status := httpErr.StatusText
		if status == "" {
			status = fmt.Sprintf("HTTP %d", httpErr.StatusCode)
		}
		msg := fmt.Sprintf("Error: %s", status)
		if httpErr.Detail != "" {
			msg += "\n" + httpErr.Detail
		}
		return msg
	case errors.As(err, &decodeErr):
		if decodeErr.Err != nil {
			return fmt.Sprintf("Error: %s", decodeErr.Err.Error())
		}
		return fmt.Sprintf("Error: %s", decodeErr.Error())
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
