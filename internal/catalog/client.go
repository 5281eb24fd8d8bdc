// Package catalog talks to the Google Books API: search for the client,
// single-volume lookup for the metadata refresher.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/booktrack/internal/models"
)

// ErrVolumeNotFound is returned by Lookup when the provider has no such volume.
var ErrVolumeNotFound = errors.New("volume not found")

// DefaultMaxResults matches the page size the web client asked for.
const DefaultMaxResults = 20

// Searcher returns catalog hits for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Volume, error)
}

// Client is a thin Google Books client.
type Client struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	HTTP       *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		MaxResults: DefaultMaxResults,
		HTTP:       &http.Client{Timeout: timeout},
	}
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title       string   `json:"title"`
		Authors     []string `json:"authors"`
		Description string   `json:"description"`
		ImageLinks  struct {
			Thumbnail      string `json:"thumbnail"`
			SmallThumbnail string `json:"smallThumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

func (v volume) toModel() models.Volume {
	cover := v.VolumeInfo.ImageLinks.Thumbnail
	if cover == "" {
		cover = v.VolumeInfo.ImageLinks.SmallThumbnail
	}
	if strings.HasPrefix(cover, "http://") {
		cover = "https://" + strings.TrimPrefix(cover, "http://")
	}
	return models.Volume{
		CatalogID:   v.ID,
		Title:       v.VolumeInfo.Title,
		Author:      strings.Join(v.VolumeInfo.Authors, ", "),
		CoverURL:    cover,
		Description: v.VolumeInfo.Description,
	}
}

// Search queries /volumes. A blank query returns no results without a request.
func (c *Client) Search(ctx context.Context, query string) ([]models.Volume, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Volume{}, nil
	}

	limit := c.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")

	var out struct {
		Items []volume `json:"items"`
	}
	if err := c.get(ctx, "/volumes", params, &out); err != nil {
		return nil, err
	}

	vols := make([]models.Volume, 0, len(out.Items))
	for _, it := range out.Items {
		vols = append(vols, it.toModel())
	}
	return vols, nil
}

// Lookup fetches a single volume by catalog id.
func (c *Client) Lookup(ctx context.Context, catalogID string) (models.Volume, error) {
	var v volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(catalogID), url.Values{}, &v); err != nil {
		return models.Volume{}, err
	}
	return v.toModel(), nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}
	u := c.BaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrVolumeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("catalog status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}
