// Package client talks to the image album HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/DavidRambo/image-microservice/internal/model"
)

// DefaultServer is where the service listens when started with defaults.
const DefaultServer = "http://localhost:8000/"

// HTTPDoer describes the HTTP client used to reach the service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    HTTPDoer
}

func New(baseURL string, doer HTTPDoer) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultServer
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    doer,
	}
}

// Upload sends r as the img_upload part with the given media type.
func (c *Client) Upload(ctx context.Context, album int64, filename, contentType string, r io.Reader) (*model.ImagePublic, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="img_upload"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, albumPath(album), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var img model.ImagePublic
	if err := c.doJSON(req, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// Album lists the first page of an album.
func (c *Client) Album(ctx context.Context, album int64) ([]model.ImagePublic, error) {
	req, err := c.newRequest(ctx, http.MethodGet, albumPath(album), nil)
	if err != nil {
		return nil, err
	}

	var images []model.ImagePublic
	if err := c.doJSON(req, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// Starred downloads the starred image of an album.
func (c *Client) Starred(ctx context.Context, album int64) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, starredPath(album), nil)
	if err != nil {
		return nil, "", err
	}
	return c.doBytes(req)
}

// Image downloads an image by id.
func (c *Client) Image(ctx context.Context, id int64) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, imagePath(id), nil)
	if err != nil {
		return nil, "", err
	}
	return c.doBytes(req)
}

// Star makes imageID the starred image of album.
func (c *Client) Star(ctx context.Context, album, imageID int64) error {
	path := starredPath(album) + "?" + url.Values{"image_id": {strconv.FormatInt(imageID, 10)}}.Encode()
	req, err := c.newRequest(ctx, http.MethodPatch, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, imagePath(id), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Clear deletes every image the album listing returns and reports how many went away.
func (c *Client) Clear(ctx context.Context, album int64) (int, error) {
	removed := 0
	for {
		images, err := c.Album(ctx, album)
		if err != nil {
			return removed, err
		}
		if len(images) == 0 {
			return removed, nil
		}
		for _, img := range images {
			if err := c.Delete(ctx, img.ID); err != nil {
				return removed, fmt.Errorf("delete image %d: %w", img.ID, err)
			}
			removed++
		}
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) doBytes(req *http.Request) ([]byte, string, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload)
	return &StatusError{Code: resp.StatusCode, Message: payload.Error}
}

func albumPath(album int64) string {
	return "/album/" + strconv.FormatInt(album, 10)
}

func starredPath(album int64) string {
	return "/starred/" + strconv.FormatInt(album, 10)
}

func imagePath(id int64) string {
	return "/images/" + strconv.FormatInt(id, 10)
}
