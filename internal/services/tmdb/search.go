package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/duowatch/duowatch/internal/models"
)

// Search queries the catalog's multi-search endpoint. Results that are
// neither movies nor series (e.g. people) are dropped, the rest are
// normalized into the uniform Item shape.
func (c *Client) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}

	cacheKey := fmt.Sprintf("search:%s:%d", query, page)
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*SearchResult), nil
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	var resp searchResponse
	if err := c.get(ctx, "/search/multi", params, &resp); err != nil {
		return nil, err
	}

	result := &SearchResult{
		Page:         resp.Page,
		Results:      make([]Item, 0, len(resp.Results)),
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
	for _, r := range resp.Results {
		mediaType := models.MediaType(r.MediaType)
		if !mediaType.Valid() {
			continue
		}

		title := r.Title
		if title == "" {
			title = r.Name
		}
		releaseDate := r.ReleaseDate
		if releaseDate == "" {
			releaseDate = r.FirstAirDate
		}

		result.Results = append(result.Results, Item{
			ID:          r.ID,
			MediaType:   mediaType,
			Title:       title,
			ReleaseDate: releaseDate,
			PosterPath:  r.PosterPath,
			Overview:    r.Overview,
			VoteAverage: r.VoteAverage,
		})
	}

	c.cache.Set(cacheKey, result, searchTTL)
	c.logger.WithFields(map[string]interface{}{
		"query": query,
		"count": len(result.Results),
	}).Debug("TMDB search completed")

	return result, nil
}

// GetDetail fetches full detail for one item and normalizes it. Zero-valued
// runtime, vote average and genres are treated as absent.
func (c *Client) GetDetail(ctx context.Context, movieID int64, mediaType models.MediaType) (*Detail, error) {
	cacheKey := fmt.Sprintf("detail:%s:%d", mediaType, movieID)
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*Detail), nil
	}

	path := fmt.Sprintf("/movie/%d", movieID)
	if mediaType == models.MediaTypeTV {
		path = fmt.Sprintf("/tv/%d", movieID)
	}

	var resp detailResponse
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	detail := normalizeDetail(&resp, mediaType)
	c.cache.Set(cacheKey, detail, detailTTL)

	return detail, nil
}

// GetImageConfig fetches the catalog's image base URL and poster sizes
func (c *Client) GetImageConfig(ctx context.Context) (*ImageConfig, error) {
	const cacheKey = "config:image"
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(*ImageConfig), nil
	}

	var resp configResponse
	if err := c.get(ctx, "/configuration", nil, &resp); err != nil {
		return nil, err
	}

	cfg := &ImageConfig{
		BaseURL:     resp.Images.SecureBaseURL,
		PosterSizes: resp.Images.PosterSizes,
	}
	c.cache.Set(cacheKey, cfg, configTTL)

	return cfg, nil
}

// normalizeDetail maps the upstream detail shape to the internal one, once,
// at the boundary
func normalizeDetail(resp *detailResponse, mediaType models.MediaType) *Detail {
	title := resp.Title
	if title == "" {
		title = resp.Name
	}
	releaseDate := resp.ReleaseDate
	if releaseDate == "" {
		releaseDate = resp.FirstAirDate
	}

	var genres []string
	for _, g := range resp.Genres {
		if g.Name != "" {
			genres = append(genres, g.Name)
		}
	}

	detail := &Detail{
		ID:          resp.ID,
		MediaType:   mediaType,
		Title:       title,
		ReleaseDate: releaseDate,
		PosterPath:  resp.PosterPath,
		Overview:    resp.Overview,
		Genres:      genres,
	}

	// Runtime only applies to movies
	if mediaType == models.MediaTypeMovie && resp.Runtime > 0 {
		runtime := resp.Runtime
		detail.Runtime = &runtime
	}
	if resp.VoteAverage > 0 {
		vote := resp.VoteAverage
		detail.VoteAverage = &vote
	}

	return detail
}
