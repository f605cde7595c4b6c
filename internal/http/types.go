package http

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/apptd/internal/input"
)

// ParseRequest is the JSON request body shared by the parsing endpoints.
// For image payloads Input carries base64, optionally as a data URI.
type ParseRequest struct {
	Input    string `json:"input"`
	IsImage  bool   `json:"is_image"`
	MIMEType string `json:"mime_type,omitempty"`
}

// TextResponse is the response body for POST /api/v1/appointments/extract-text.
type TextResponse struct {
	RawText    string  `json:"raw_text"`
	Confidence float64 `json:"confidence"`
}

// EntitiesResponse is the response body for POST /api/v1/appointments/extract-entities.
type EntitiesResponse struct {
	Department string  `json:"department"`
	DatePhrase string  `json:"date_phrase"`
	TimePhrase string  `json:"time_phrase"`
	Notes      string  `json:"notes"`
	Confidence float64 `json:"confidence"`
}

// NormalizeResponse is the response body for POST /api/v1/appointments/normalize.
// Status is "ok" or "needs_clarification"; the date fields are present only
// on "ok", Reason only on "needs_clarification".
type NormalizeResponse struct {
	Status     string  `json:"status"`
	Date       string  `json:"date,omitempty"`
	Time       string  `json:"time,omitempty"`
	Timezone   string  `json:"tz,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// AppointmentBody is the resolved record inside FinalResponse.
type AppointmentBody struct {
	Department string `json:"department"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Timezone   string `json:"timezone"`
}

// FinalResponse is the response body for POST /api/v1/appointments/final.
type FinalResponse struct {
	Status      string           `json:"status"`
	Appointment *AppointmentBody `json:"appointment,omitempty"`
	Reason      string           `json:"reason,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Extractor bool   `json:"extractor_available"`
}

// maxImageBytes caps decoded upload size.
const maxImageBytes = 10 << 20 // 10MB

// bindDescriptor decodes the request into an input descriptor, from either
// a JSON body or a multipart "image" file upload.
func bindDescriptor(c echo.Context) (input.Descriptor, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return bindMultipart(c)
	}

	var req ParseRequest
	if err := c.Bind(&req); err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if !req.IsImage {
		desc, err := input.NewDescriptor([]byte(req.Input), input.Text, "")
		if err != nil {
			return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "input must be non-empty text")
		}
		return desc, nil
	}

	payload, err := decodeImagePayload(req.Input)
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	desc, err := input.NewDescriptor(payload, input.Image, req.MIMEType)
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "image payload must be non-empty")
	}
	return desc, nil
}

// bindMultipart reads an uploaded "image" form file.
func bindMultipart(c echo.Context) (input.Descriptor, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "multipart requests require an image file field")
	}
	if fh.Size > maxImageBytes {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB limit")
	}

	f, err := fh.Open()
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "failed to read image file")
	}
	defer f.Close()

	payload, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "failed to read image file")
	}
	if len(payload) > maxImageBytes {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB limit")
	}

	mimeType := fh.Header.Get("Content-Type")
	if v := c.FormValue("mime_type"); v != "" {
		mimeType = v
	}
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "uploaded file must be an image")
	}

	desc, err := input.NewDescriptor(payload, input.Image, mimeType)
	if err != nil {
		return input.Descriptor{}, echo.NewHTTPError(http.StatusBadRequest, "image payload must be non-empty")
	}
	return desc, nil
}

// decodeImagePayload decodes base64 image input, stripping an optional
// data URI prefix (data:image/png;base64,...).
func decodeImagePayload(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+len(";base64,"):]
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("image input must be valid base64")
	}
	if len(payload) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds 10MB limit")
	}
	return payload, nil
}
