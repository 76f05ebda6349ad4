package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gamesage/gamesage-backend/pkg/config"
	"github.com/gamesage/gamesage-backend/pkg/logger"
)

const (
	pingTimeout         = 5 * time.Second
	defaultResourceType = "image"
)

// ErrFolderNotEmpty is returned by DeleteFolder when assets still live under
// the folder. Callers treat it as benign during cleanup.
var ErrFolderNotEmpty = errors.New("cloudinary folder not empty")

// ErrNotFound is returned when the referenced asset does not exist upstream.
var ErrNotFound = errors.New("cloudinary asset not found")

// Client talks to the Cloudinary upload and admin APIs over plain HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// UploadParams describes a single asset upload.
type UploadParams struct {
	Folder       string
	PublicID     string
	FileName     string
	ResourceType string
	Body         io.Reader
}

// UploadResult mirrors the subset of the Cloudinary upload response we persist.
type UploadResult struct {
	PublicID     string `json:"public_id"`
	URL          string `json:"secure_url"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// NewClient validates the configuration and verifies connectivity.
func NewClient(ctx context.Context, cfg config.CloudinaryConfig, logg *logger.Logger) (*Client, error) {
	if cfg.CloudName == "" {
		return nil, errors.New("cloudinary cloud name is required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary api credentials are required")
	}

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com"
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cloudinary health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "cloudinary client initialized")
	}

	return client, nil
}

// Ping hits the admin ping endpoint with basic auth.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.httpClient == nil {
		return errors.New("cloudinary client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminURL("ping"), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary ping returned %s", resp.Status)
	}
	return nil
}

// Upload sends the asset through the signed upload endpoint and returns the
// stored asset metadata.
func (c *Client) Upload(ctx context.Context, params UploadParams) (*UploadResult, error) {
	if params.Body == nil {
		return nil, errors.New("upload body is required")
	}
	resourceType := params.ResourceType
	if resourceType == "" {
		resourceType = defaultResourceType
	}

	timestamp := fmt.Sprint(time.Now().Unix())
	signed := map[string]string{"timestamp": timestamp}
	if params.Folder != "" {
		signed["folder"] = params.Folder
	}
	if params.PublicID != "" {
		signed["public_id"] = params.PublicID
	}

	body := &strings.Builder{}
	writer := multipart.NewWriter(body)
	for key, value := range signed {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("building upload form: %w", err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if err := writer.WriteField("signature", c.sign(signed)); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}

	fileName := params.FileName
	if fileName == "" {
		fileName = "upload"
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, params.Body); err != nil {
		return nil, fmt.Errorf("copying upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalizing upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", c.baseURL, url.PathEscape(c.cloudName), resourceType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("upload", resp)
	}

	result := &UploadResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return result, nil
}

// Destroy removes an asset by public ID. A missing asset maps to ErrNotFound.
func (c *Client) Destroy(ctx context.Context, publicID, resourceType string) error {
	if publicID == "" {
		return errors.New("public id is required")
	}
	if resourceType == "" {
		resourceType = defaultResourceType
	}

	params := map[string]string{
		"public_id":  publicID,
		"invalidate": "true",
		"timestamp":  fmt.Sprint(time.Now().Unix()),
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/destroy", c.baseURL, url.PathEscape(c.cloudName), resourceType)
	resp, err := c.postSignedForm(ctx, endpoint, params)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apiError("destroy", resp)
	}

	var destroyResp struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&destroyResp); err != nil {
		return fmt.Errorf("decoding destroy response: %w", err)
	}
	if destroyResp.Result == "not found" {
		return ErrNotFound
	}
	if destroyResp.Result != "ok" {
		return fmt.Errorf("cloudinary destroy returned %q", destroyResp.Result)
	}
	return nil
}

// Rename moves an asset to a new public ID, used when media changes owner.
func (c *Client) Rename(ctx context.Context, fromPublicID, toPublicID, resourceType string) (*UploadResult, error) {
	if fromPublicID == "" || toPublicID == "" {
		return nil, errors.New("from and to public ids are required")
	}
	if resourceType == "" {
		resourceType = defaultResourceType
	}

	params := map[string]string{
		"from_public_id": fromPublicID,
		"to_public_id":   toPublicID,
		"overwrite":      "true",
		"timestamp":      fmt.Sprint(time.Now().Unix()),
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/rename", c.baseURL, url.PathEscape(c.cloudName), resourceType)
	resp, err := c.postSignedForm(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, apiError("rename", resp)
	}

	result := &UploadResult{}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("decoding rename response: %w", err)
	}
	return result, nil
}

// DeleteFolder removes an empty folder via the admin API.
func (c *Client) DeleteFolder(ctx context.Context, folder string) error {
	if folder == "" {
		return errors.New("folder is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.adminURL("folders/"+url.PathEscape(folder)), nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary delete folder: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		// The admin API refuses deletion while assets remain.
		return ErrFolderNotEmpty
	default:
		return apiError("delete folder", resp)
	}
}

// ListSubFolders returns the paths of the folders nested directly under root.
// A missing root maps to ErrNotFound.
func (c *Client) ListSubFolders(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, errors.New("root folder is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminURL("folders/"+url.PathEscape(root)), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary list subfolders: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, apiError("list subfolders", resp)
	}

	var listResp struct {
		Folders []struct {
			Name string `json:"name"`
			Path string `json:"path"`
		} `json:"folders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("decoding subfolders response: %w", err)
	}

	paths := make([]string, 0, len(listResp.Folders))
	for _, folder := range listResp.Folders {
		paths = append(paths, folder.Path)
	}
	return paths, nil
}

func (c *Client) postSignedForm(ctx context.Context, endpoint string, params map[string]string) (*http.Response, error) {
	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("api_key", c.apiKey)
	form.Set("signature", c.sign(params))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary request: %w", err)
	}
	return resp, nil
}

// sign produces the SHA-1 request signature over the sorted parameter string.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func (c *Client) adminURL(path string) string {
	return fmt.Sprintf("%s/v1_1/%s/%s", c.baseURL, url.PathEscape(c.cloudName), path)
}

func apiError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("cloudinary %s failed: %s: %s", op, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("cloudinary %s failed: %s", op, resp.Status)
}
