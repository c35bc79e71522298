package sora

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ValidDurations are the clip lengths the API accepts, in seconds.
var ValidDurations = []int{4, 8, 12}

// IsValidDuration reports whether seconds is an accepted clip length.
func IsValidDuration(seconds int) bool {
	for _, d := range ValidDurations {
		if seconds == d {
			return true
		}
	}
	return false
}

// NearestDuration returns the accepted clip length closest to seconds.
// Ties round down.
func NearestDuration(seconds int) int {
	best := ValidDurations[0]
	for _, d := range ValidDurations[1:] {
		if abs(seconds-d) < abs(seconds-best) {
			best = d
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusPreprocess JobStatus = "preprocessing"
	StatusRunning    JobStatus = "running"
	StatusProcessing JobStatus = "processing"
	StatusSucceeded  JobStatus = "succeeded"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CreateJobRequest describes one clip to render.
type CreateJobRequest struct {
	Prompt   string `json:"prompt"`
	Height   int    `json:"height,omitempty"`
	Width    int    `json:"width,omitempty"`
	Seconds  int    `json:"n_seconds,omitempty"`
	Variants int    `json:"n_variants,omitempty"`
}

// Generation is one rendered variant of a finished job.
type Generation struct {
	ID string `json:"id"`
}

type jobResponse struct {
	ID            string       `json:"id"`
	Status        JobStatus    `json:"status"`
	FailureReason string       `json:"failure_reason,omitempty"`
	Generations   []Generation `json:"generations,omitempty"`
}

// Job is an in-flight video generation that can be polled for completion.
type Job struct {
	// ID is the job identifier.
	ID string

	client *Client
}

// JobResult is the outcome of a finished job.
type JobResult struct {
	JobID        string
	GenerationID string
}

// CreateJob submits a render job. The duration must be one of
// ValidDurations; the API rejects anything else, so the check happens
// before any network traffic.
func (c *Client) CreateJob(ctx context.Context, req *CreateJobRequest) (*Job, error) {
	if !IsValidDuration(req.Seconds) {
		return nil, fmt.Errorf("sora: invalid duration %ds, must be one of %v", req.Seconds, ValidDurations)
	}
	r := *req
	if r.Variants == 0 {
		r.Variants = 1
	}
	body := struct {
		Model string `json:"model"`
		CreateJobRequest
	}{Model: c.config.deployment, CreateJobRequest: r}

	var resp jobResponse
	if err := c.request(ctx, http.MethodPost, "/video/generations/jobs", &body, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("sora: job response has no id")
	}
	return &Job{ID: resp.ID, client: c}, nil
}

// NewJob returns a handle for querying an existing job.
func (c *Client) NewJob(jobID string) *Job {
	return &Job{ID: jobID, client: c}
}

// Generate submits a render job and blocks until it finishes. Bound the
// wait with a context deadline.
func (c *Client) Generate(ctx context.Context, req *CreateJobRequest) (*JobResult, error) {
	job, err := c.CreateJob(ctx, req)
	if err != nil {
		return nil, err
	}
	return job.Wait(ctx)
}

// Wait waits for the job to finish and returns the result.
//
// Uses a default polling interval of 5 seconds. Use WaitWithInterval for
// custom intervals. Bound the wait with a context deadline:
//
//	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
//	defer cancel()
//	result, err := job.Wait(ctx)
func (j *Job) Wait(ctx context.Context) (*JobResult, error) {
	return j.WaitWithInterval(ctx, 5*time.Second)
}

// WaitWithInterval waits for the job to finish with a custom polling interval.
func (j *Job) WaitWithInterval(ctx context.Context, interval time.Duration) (*JobResult, error) {
	// Query immediately before the first ticker interval.
	if result, done, err := j.poll(ctx); done || err != nil {
		return result, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			result, done, err := j.poll(ctx)
			if done || err != nil {
				return result, err
			}
		}
	}
}

func (j *Job) poll(ctx context.Context) (*JobResult, bool, error) {
	var resp jobResponse
	err := j.client.request(ctx, http.MethodGet, "/video/generations/jobs/"+j.ID, nil, &resp)
	if err != nil {
		return nil, false, err
	}
	switch resp.Status {
	case StatusSucceeded:
		if len(resp.Generations) == 0 {
			return nil, true, fmt.Errorf("sora: job %s succeeded with no generations", j.ID)
		}
		return &JobResult{JobID: j.ID, GenerationID: resp.Generations[0].ID}, true, nil
	case StatusFailed, StatusCancelled:
		reason := resp.FailureReason
		if reason == "" {
			reason = string(resp.Status)
		}
		return nil, true, fmt.Errorf("sora: job %s failed: %s", j.ID, reason)
	}
	return nil, false, nil
}

// Status returns the current job status without blocking.
func (j *Job) Status(ctx context.Context) (JobStatus, error) {
	var resp jobResponse
	err := j.client.request(ctx, http.MethodGet, "/video/generations/jobs/"+j.ID, nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// Download streams the rendered clip for a generation to w.
func (c *Client) Download(ctx context.Context, generationID string, w io.Writer) error {
	url := c.url("/video/generations/" + generationID + "/content/video")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Api-Key", c.config.apiKey)

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseError(body, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	return nil
}
