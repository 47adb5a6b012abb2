// Package imagestore uploads food item pictures to Cloudinary.
package imagestore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"messmate/internal/config"
)

// ErrDisabled is returned by a nil Cloudinary when no credentials are configured.
var ErrDisabled = errors.New("image storage not configured")

const defaultBaseURL = "https://api.cloudinary.com/v1_1"

// Image is the part of the upload response the API keeps.
type Image struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// Cloudinary uploads images with signed requests.
type Cloudinary struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string

	BaseURL string
	HTTP    *http.Client
	Now     func() time.Time
}

// New returns nil when cfg lacks credentials; a nil *Cloudinary reports ErrDisabled.
func New(cfg config.CloudinaryConfig) *Cloudinary {
	if !cfg.Enabled() {
		return nil
	}
	return &Cloudinary{
		cloudName: cfg.CloudName,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		folder:    cfg.Folder,
		BaseURL:   defaultBaseURL,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Now:       time.Now,
	}
}

// UploadFile uploads raw image bytes. publicID may be empty to let Cloudinary pick one.
func (c *Cloudinary) UploadFile(ctx context.Context, data []byte, filename, publicID string) (Image, error) {
	return c.upload(ctx, publicID, func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, bytes.NewReader(data))
		return err
	})
}

// UploadDataURL uploads a "data:image/...;base64," URL or a remote image URL.
func (c *Cloudinary) UploadDataURL(ctx context.Context, data, publicID string) (Image, error) {
	return c.upload(ctx, publicID, func(w *multipart.Writer) error {
		return w.WriteField("file", data)
	})
}

func (c *Cloudinary) upload(ctx context.Context, publicID string, writeFile func(*multipart.Writer) error) (Image, error) {
	if c == nil {
		return Image{}, ErrDisabled
	}
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.Now().Unix(), 10),
	}
	if c.folder != "" {
		params["folder"] = c.folder
	}
	if publicID != "" {
		params["public_id"] = publicID
		params["overwrite"] = "true"
	}
	params["signature"] = sign(params, c.apiSecret)
	params["api_key"] = c.apiKey

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return Image{}, fmt.Errorf("cloudinary: write %s: %w", k, err)
		}
	}
	if err := writeFile(w); err != nil {
		return Image{}, fmt.Errorf("cloudinary: write file: %w", err)
	}
	if err := w.Close(); err != nil {
		return Image{}, fmt.Errorf("cloudinary: close form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", strings.TrimRight(c.BaseURL, "/"), c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary: create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return Image{}, fmt.Errorf("cloudinary: upload failed (%d): %s", resp.StatusCode, string(body))
	}
	var img Image
	if err := json.Unmarshal(body, &img); err != nil {
		return Image{}, fmt.Errorf("cloudinary: decode response: %w", err)
	}
	if img.SecureURL == "" {
		return Image{}, errors.New("cloudinary: response has no secure_url")
	}
	return img, nil
}

// sign is the hex SHA-1 of the sorted "k=v" pairs joined by "&" followed by the secret.
// api_key, file and resource_type are not signed.
func sign(params map[string]string, secret string) string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		switch k {
		case "api_key", "file", "resource_type", "signature":
			continue
		}
		if v != "" {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
