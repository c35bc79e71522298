package flux

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// GenerateRequest is one image generation request.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
	Size   string `json:"size,omitempty"`

	// OutputFormat selects the encoding of returned images, "png" or "jpeg".
	OutputFormat string `json:"output_format,omitempty"`
}

// Image is one generated image. Deployments return either inline base64
// data or a download URL depending on configuration; Bytes resolves both.
type Image struct {
	B64JSON       string `json:"b64_json,omitempty"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// GenerateResponse is the images API response.
type GenerateResponse struct {
	Created int64   `json:"created"`
	Data    []Image `json:"data"`
}

// Generate renders images for the prompt.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	r := *req
	if r.N == 0 {
		r.N = 1
	}
	var resp GenerateResponse
	if err := c.post(ctx, "/images/generations", &r, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("flux: no images in response")
	}
	return &resp, nil
}

// Bytes returns the raw image data, decoding inline base64 or downloading
// from the URL.
func (img *Image) Bytes(ctx context.Context, httpClient *http.Client) ([]byte, error) {
	if img.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image data: %w", err)
		}
		return data, nil
	}
	if img.URL == "" {
		return nil, fmt.Errorf("image has neither data nor url")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
