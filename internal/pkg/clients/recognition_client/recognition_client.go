// Package recognition_client talks to the external face recognition and engagement service.
package recognition_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"engage-track/internal/pkg/model/recognition_model"
)

const (
	processFramePath       = "/api/process-frame"
	registerPath           = "/api/register"
	getAttendancePath      = "/api/get-attendance"
	downloadAttendancePath = "/api/download-attendance"
)

// RecognitionRequestError is returned when a per-frame call does not complete
// or its response cannot be parsed.
type RecognitionRequestError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *RecognitionRequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("recognition request %s failed with status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("recognition request %s failed: %v", e.Endpoint, e.Err)
}

func (e *RecognitionRequestError) Unwrap() error { return e.Err }

// ReportFetchError is returned when the attendance list cannot be retrieved.
type ReportFetchError struct {
	Err error
}

func (e *ReportFetchError) Error() string { return "failed to fetch attendance: " + e.Err.Error() }

func (e *ReportFetchError) Unwrap() error { return e.Err }

// ReportDownloadError is returned when the attendance spreadsheet cannot be downloaded.
type ReportDownloadError struct {
	Err error
}

func (e *ReportDownloadError) Error() string {
	return "failed to download attendance report: " + e.Err.Error()
}

func (e *ReportDownloadError) Unwrap() error { return e.Err }

// Report is a downloaded attendance spreadsheet.
type Report struct {
	ContentType string
	Data        []byte
}

// Client is an HTTP client for the recognition service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ProcessFrame sends one encoded frame and returns the recognition result.
func (c *Client) ProcessFrame(ctx context.Context, frame string) (result *recognition_model.RecognitionResult, err error) {

	body, err := json.Marshal(recognition_model.ProcessFrameRequest{Frame: frame})
	if err != nil {
		return nil, &RecognitionRequestError{Endpoint: processFramePath, Err: err}
	}

	data, status, err := c.reqUrl(ctx, http.MethodPost, processFramePath, body)
	if err != nil {
		return nil, &RecognitionRequestError{Endpoint: processFramePath, Status: status, Err: err}
	}

	if err = json.Unmarshal(data, &result); err != nil {
		return nil, &RecognitionRequestError{Endpoint: processFramePath, Status: status, Err: err}
	}
	if result == nil {
		return nil, &RecognitionRequestError{Endpoint: processFramePath, Status: status, Err: errors.New("empty response body")}
	}

	return result, nil
}

// Register enrolls a face under name. The response payload is returned as is.
func (c *Client) Register(ctx context.Context, image, name string) (payload json.RawMessage, err error) {

	body, err := json.Marshal(recognition_model.RegisterRequest{Image: image, Name: name})
	if err != nil {
		return nil, err
	}

	data, status, err := c.reqUrl(ctx, http.MethodPost, registerPath, body)
	if err != nil {
		return nil, &RecognitionRequestError{Endpoint: registerPath, Status: status, Err: err}
	}

	if !json.Valid(data) {
		return nil, &RecognitionRequestError{Endpoint: registerPath, Status: status, Err: errors.New("response is not json")}
	}

	return json.RawMessage(data), nil
}

// GetAttendance returns the attendance records kept by the service.
func (c *Client) GetAttendance(ctx context.Context) (records []recognition_model.AttendanceRecord, err error) {

	data, _, err := c.reqUrl(ctx, http.MethodGet, getAttendancePath, nil)
	if err != nil {
		return nil, &ReportFetchError{Err: err}
	}

	if err = json.Unmarshal(data, &records); err != nil {
		return nil, &ReportFetchError{Err: err}
	}

	if records == nil {
		records = []recognition_model.AttendanceRecord{}
	}

	return records, nil
}

// DownloadAttendance returns the attendance spreadsheet.
func (c *Client) DownloadAttendance(ctx context.Context) (report *Report, err error) {

	req, err := c.newRequest(ctx, http.MethodGet, downloadAttendancePath, nil)
	if err != nil {
		return nil, &ReportDownloadError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ReportDownloadError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ReportDownloadError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &ReportDownloadError{Err: statusError(resp.Status, data)}
	}

	if len(data) == 0 {
		return nil, &ReportDownloadError{Err: errors.New("empty report")}
	}

	return &Report{ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (req *http.Request, err error) {

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// reqUrl makes an HTTP request and returns the response body, status code and an error.
func (c *Client) reqUrl(ctx context.Context, method, path string, body []byte) (data []byte, status int, err error) {

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode >= 400 && resp.StatusCode <= 599 {
		return nil, resp.StatusCode, statusError(resp.Status, data)
	}

	return data, resp.StatusCode, nil
}

// statusError prefers the service's {"error": ...} message over the bare status line.
func statusError(status string, body []byte) error {
	var errResp recognition_model.ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return fmt.Errorf("server returned error with status %s: %s", status, errResp.Error)
	}
	return errors.New("server returned error with status: " + status)
}
