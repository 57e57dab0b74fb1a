package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"examprep/internal/exam"
)

// PlatformAPIClient talks to the content platform's REST backend.
type PlatformAPIClient interface {
	exam.QuestionSource
	ProfileExists(ctx context.Context, authToken string) (bool, error)
	SaveTestResult(ctx context.Context, authToken, subtopic string, score exam.Score) error
}

// UpstreamStatusError is returned for non-2xx responses.
type UpstreamStatusError struct {
	Op     string
	Status int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: upstream returned %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

type platformAPIClient struct {
	HTTP     *http.Client
	BaseURL  string
	validate *validator.Validate
	inflight singleflight.Group
}

func NewPlatformAPIClient(baseURL string, timeout time.Duration) PlatformAPIClient {
	return &platformAPIClient{
		HTTP:     &http.Client{Timeout: timeout},
		BaseURL:  baseURL,
		validate: validator.New(),
	}
}

// QuestionsBySubtopic fetches GET /questions/subtopic/{name}. Concurrent calls
// for the same subtopic share one request. The shared request is not tied to
// any single caller's context; a caller whose ctx ends stops waiting without
// failing the others.
func (c *platformAPIClient) QuestionsBySubtopic(ctx context.Context, subtopic string) ([]exam.QuestionItem, error) {
	ch := c.inflight.DoChan(subtopic, func() (interface{}, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.HTTP.Timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.HTTP.Timeout)
			defer cancel()
		}
		return c.fetchQuestions(fetchCtx, subtopic)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]exam.QuestionItem), nil
	}
}

func (c *platformAPIClient) fetchQuestions(ctx context.Context, subtopic string) ([]exam.QuestionItem, error) {
	endpoint := c.BaseURL + "/questions/subtopic/" + url.PathEscape(subtopic)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build questions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("questions http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &UpstreamStatusError{Op: "fetch questions", Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read questions body: %w", err)
	}
	items, err := decodeQuestionItems(body)
	if err != nil {
		return nil, fmt.Errorf("questions decode: %w", err)
	}
	for i := range items {
		if err := c.validate.Struct(&items[i]); err != nil {
			return nil, fmt.Errorf("question item %d invalid: %w", i, err)
		}
	}
	return items, nil
}

// decodeQuestionItems accepts a bare array or an object wrapping it in "data".
func decodeQuestionItems(body []byte) ([]exam.QuestionItem, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Data []exam.QuestionItem `json:"data"`
		}
		if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	}
	var items []exam.QuestionItem
	if err := sonic.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ProfileExists reports whether the token belongs to a signed-in student.
func (c *platformAPIClient) ProfileExists(ctx context.Context, authToken string) (bool, error) {
	if authToken == "" {
		return false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/student/profile", nil)
	if err != nil {
		return false, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", authToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("profile http error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, &UpstreamStatusError{Op: "profile check", Status: resp.StatusCode}
	}
}

type saveTestResultRequest struct {
	SubTopicName string     `json:"subTopicName"`
	Score        exam.Score `json:"score"`
}

func (c *platformAPIClient) SaveTestResult(ctx context.Context, authToken, subtopic string, score exam.Score) error {
	payload, err := sonic.Marshal(saveTestResultRequest{
		SubTopicName: subtopic,
		Score:        score,
	})
	if err != nil {
		return fmt.Errorf("encode test result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/student/save-test-result", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", authToken)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("save result http error: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return &UpstreamStatusError{Op: "save test result", Status: resp.StatusCode}
	}
	return nil
}
