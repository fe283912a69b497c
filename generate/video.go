package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// VideoClient talks to a REST video generation vendor. The vendor contract:
// POST {base}/v1/videos submits a job and returns its id; GET
// {base}/v1/videos/{id} reports status; the finished job carries a URL for
// the rendered file.
type VideoClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *zap.Logger

	// Polling knobs, overridable through the config.
	PollInterval time.Duration
	PollTimeout  time.Duration
	MaxRetries   int
}

func NewVideoClient(baseURL, apiKey, model string, logger *zap.Logger) *VideoClient {
	return &VideoClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		model:        model,
		http:         &http.Client{Timeout: 60 * time.Second},
		logger:       logger.Named("video"),
		PollInterval: 5 * time.Second,
		PollTimeout:  10 * time.Minute,
		MaxRetries:   3,
	}
}

// Job is the vendor response mapped into our state set.
type Job struct {
	ID       string
	State    State
	VideoURL string
	Error    string
}

type vendorJob struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	URL      string `json:"url"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

func (v vendorJob) toJob() Job {
	j := Job{ID: v.ID, State: MapVendorStatus(v.Status), VideoURL: v.VideoURL, Error: v.Error}
	if j.VideoURL == "" {
		j.VideoURL = v.URL
	}
	if j.Error == "" && j.State == StateFailed {
		j.Error = v.Message
	}
	return j
}

// Submit starts a video job from a motion prompt and an optional source
// image file (sent base64-inline, the image-to-video path).
func (c *VideoClient) Submit(ctx context.Context, prompt, imagePath string) (*Job, error) {
	body := map[string]string{
		"model":  c.model,
		"prompt": prompt,
	}
	if imagePath != "" {
		raw, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read source image: %w", err)
		}
		body["image"] = base64.StdEncoding.EncodeToString(raw)
	}

	var vj vendorJob
	if err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/v1/videos", body, &vj); err != nil {
		return nil, fmt.Errorf("failed to submit video job: %w", err)
	}
	if vj.ID == "" {
		return nil, fmt.Errorf("vendor returned no job id")
	}

	job := vj.toJob()
	c.logger.Info("video job submitted", zap.String("job_id", job.ID), zap.String("state", string(job.State)))
	return &job, nil
}

// TaskStatus fetches the vendor's current view of a job.
func (c *VideoClient) TaskStatus(ctx context.Context, jobID string) (*Job, error) {
	var vj vendorJob
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/v1/videos/"+jobID, nil, &vj); err != nil {
		return nil, err
	}
	job := vj.toJob()
	return &job, nil
}

// WaitForVideo polls a submitted job until it reaches a terminal state or the
// poll timeout elapses. Transient poll errors are retried with exponential
// backoff up to MaxRetries consecutive failures. On success the rendered file
// is downloaded to outPath. progress, when non-nil, is called after every
// successful poll.
func (c *VideoClient) WaitForVideo(ctx context.Context, jobID, outPath string, progress func(State)) error {
	ctx, cancel := context.WithTimeout(ctx, c.PollTimeout)
	defer cancel()

	retries := 0
	backoff := c.PollInterval

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for video job %s: %w", jobID, ctx.Err())
		case <-time.After(backoff):
		}

		job, err := c.TaskStatus(ctx, jobID)
		if err != nil {
			retries++
			if retries > c.MaxRetries {
				return fmt.Errorf("polling job %s failed after %d retries: %w", jobID, c.MaxRetries, err)
			}
			backoff = c.PollInterval * (1 << retries)
			c.logger.Warn("poll failed, backing off",
				zap.String("job_id", jobID),
				zap.Int("retry", retries),
				zap.Duration("backoff", backoff),
				zap.Error(err))
			continue
		}
		retries = 0
		backoff = c.PollInterval

		if progress != nil {
			progress(job.State)
		}

		switch job.State {
		case StateSucceeded:
			if job.VideoURL == "" {
				return fmt.Errorf("job %s succeeded but returned no video url", jobID)
			}
			return c.download(ctx, job.VideoURL, outPath)
		case StateFailed:
			return fmt.Errorf("video job %s failed: %s", jobID, job.Error)
		case StateCanceled:
			return fmt.Errorf("video job %s was canceled by the vendor", jobID)
		default:
			c.logger.Debug("video job still running",
				zap.String("job_id", jobID),
				zap.String("state", string(job.State)))
		}
	}
}

// Cancel asks the vendor to stop a job. Best effort; a 404 means the job
// already finished and is not an error.
func (c *VideoClient) Cancel(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/videos/"+jobID, nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("cancel job %s: vendor returned %s", jobID, resp.Status)
	}
	return nil
}

func (c *VideoClient) download(ctx context.Context, url, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("video download returned %s", resp.Status)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()
	n, err := io.Copy(f, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write video: %w", err)
	}
	c.logger.Info("video downloaded", zap.String("path", outPath), zap.Int64("bytes", n))
	return nil
}

func (c *VideoClient) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("vendor returned %s: %s", resp.Status, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse vendor response: %w", err)
	}
	return nil
}

func (c *VideoClient) auth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
