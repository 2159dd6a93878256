package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/univlabs/campus-portal-api/pkg/config"
	appErrors "github.com/univlabs/campus-portal-api/pkg/errors"
)

// CaptureService is the HTTP client for the external capture collaborator,
// which runs camera-based attendance capture and image text extraction.
type CaptureService struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewCaptureService(cfg config.CaptureConfig, logger *zap.Logger) *CaptureService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CaptureService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CaptureResult is the collaborator's response to a capture trigger.
type CaptureResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StartCapture asks the collaborator to begin an attendance capture run.
// The call is synchronous and bounded by the configured timeout; a timeout
// or connection failure is reported as such rather than as a generic error.
func (s *CaptureService) StartCapture(ctx context.Context) (*CaptureResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/start-attendance", nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build capture request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.transportError(err, "capture service did not respond")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, appErrors.Clone(appErrors.ErrUnavailable,
			fmt.Sprintf("capture service returned status %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("capture service rejected the request with status %d", resp.StatusCode))
	}

	var result CaptureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "capture service returned an unreadable response")
	}
	s.logger.Info("attendance capture triggered", zap.String("status", result.Status))
	return &result, nil
}

// ExtractText sends an image to the collaborator and returns the raw
// extracted text. The portal never interprets the text.
func (s *CaptureService) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build extraction request")
	}
	if _, err := part.Write(data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build extraction request")
	}
	if err := writer.Close(); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build extraction request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/extract-text", &body)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build extraction request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", s.transportError(err, "text extraction service did not respond")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", appErrors.Clone(appErrors.ErrUnavailable,
			fmt.Sprintf("text extraction returned status %d", resp.StatusCode))
	}

	var payload struct {
		ExtractedText string `json:"extracted_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "text extraction returned an unreadable response")
	}
	return payload.ExtractedText, nil
}

// Health probes the collaborator, retrying once on failure.
func (s *CaptureService) Health(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build health request")
		}
		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		lastErr = fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return s.transportError(lastErr, "capture service is unhealthy")
}

func (s *CaptureService) transportError(err error, message string) error {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
}
