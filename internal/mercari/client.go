// Package mercari is a minimal client for the Mercari JP listing search API.
package mercari

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercari_watch/internal/model"
)

// DefaultEndpoint is the public search endpoint used by the web client.
const DefaultEndpoint = "https://api.mercari.jp/v2/entities:search"

// Search sort parameters: newest listings first.
const (
	SortCreatedTime = "SORT_CREATED_TIME"
	OrderDesc       = "ORDER_DESC"
)

const maxBodySize = 10 * 1024 * 1024

// ErrProvider wraps every failure of the search provider.
var ErrProvider = errors.New("search provider error")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client searches Mercari listings.
type Client struct {
	client   HTTPClient
	endpoint string
	pageSize int
	signer   *signer
	log      *slog.Logger
}

// New creates a Client with the given HTTP client and a fresh DPoP key.
func New(client HTTPClient, log *slog.Logger) (*Client, error) {
	s, err := newSigner()
	if err != nil {
		return nil, err
	}
	return &Client{
		client:   client,
		endpoint: DefaultEndpoint,
		pageSize: 120,
		signer:   s,
		log:      log,
	}, nil
}

// SetEndpoint overrides the search endpoint URL.
func (c *Client) SetEndpoint(url string) {
	c.endpoint = url
}

type searchCondition struct {
	Keyword          string   `json:"keyword"`
	ExcludeKeyword   string   `json:"excludeKeyword"`
	Sort             string   `json:"sort"`
	Order            string   `json:"order"`
	Status           []string `json:"status"`
	SizeID           []int    `json:"sizeId"`
	CategoryID       []int    `json:"categoryId"`
	BrandID          []int    `json:"brandId"`
	SellerID         []string `json:"sellerId"`
	PriceMin         int      `json:"priceMin"`
	PriceMax         int      `json:"priceMax"`
	ItemConditionID  []int    `json:"itemConditionId"`
	ShippingPayerID  []int    `json:"shippingPayerId"`
	ShippingFromArea []int    `json:"shippingFromArea"`
	ShippingMethod   []string `json:"shippingMethod"`
	ColorID          []int    `json:"colorId"`
	HasCoupon        bool     `json:"hasCoupon"`
	Attributes       []string `json:"attributes"`
	ItemTypes        []string `json:"itemTypes"`
	SkuIDs           []string `json:"skuIds"`
}

type searchRequest struct {
	UserID          string          `json:"userId"`
	PageSize        int             `json:"pageSize"`
	PageToken       string          `json:"pageToken"`
	SearchSessionID string          `json:"searchSessionId"`
	IndexRouting    string          `json:"indexRouting"`
	ThumbnailTypes  []string        `json:"thumbnailTypes"`
	SearchCondition searchCondition `json:"searchCondition"`
	DefaultDatasets []string        `json:"defaultDatasets"`
	ServiceFrom     string          `json:"serviceFrom"`
}

type searchItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Price      string   `json:"price"`
	Created    string   `json:"created"`
	Thumbnails []string `json:"thumbnails"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

func newSearchRequest(keyword string, pageSize int) searchRequest {
	return searchRequest{
		PageSize:        pageSize,
		SearchSessionID: strings.ReplaceAll(uuid.NewString(), "-", ""),
		IndexRouting:    "INDEX_ROUTING_UNSPECIFIED",
		ThumbnailTypes:  []string{},
		SearchCondition: searchCondition{
			Keyword:          keyword,
			Sort:             SortCreatedTime,
			Order:            OrderDesc,
			Status:           []string{},
			SizeID:           []int{},
			CategoryID:       []int{},
			BrandID:          []int{},
			SellerID:         []string{},
			ItemConditionID:  []int{},
			ShippingPayerID:  []int{},
			ShippingFromArea: []int{},
			ShippingMethod:   []string{},
			ColorID:          []int{},
			Attributes:       []string{},
			ItemTypes:        []string{},
			SkuIDs:           []string{},
		},
		DefaultDatasets: []string{"DATASET_TYPE_MERCARI", "DATASET_TYPE_BEYOND"},
		ServiceFrom:     "suruga",
	}
}

// Search returns listings matching keyword, newest first, in the order the
// API returned them. Items with an unparsable price or creation time are
// skipped.
func (c *Client) Search(ctx context.Context, keyword string) ([]model.Listing, error) {
	body, err := json.Marshal(newSearchRequest(keyword, c.pageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrProvider, err)
	}
	proof, err := c.signer.proof(http.MethodPost, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Platform", "web")
	req.Header.Set("DPoP", proof)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http post: %w", ErrProvider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProvider, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrProvider, err)
	}

	var sr searchResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrProvider, err)
	}

	listings := make([]model.Listing, 0, len(sr.Items))
	for _, it := range sr.Items {
		l, err := toListing(it)
		if err != nil {
			c.log.Warn("skip search item", "id", it.ID, "error", err)
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func toListing(it searchItem) (model.Listing, error) {
	price, err := strconv.ParseInt(it.Price, 10, 64)
	if err != nil {
		return model.Listing{}, fmt.Errorf("parse price %q: %w", it.Price, err)
	}
	created, err := strconv.ParseInt(it.Created, 10, 64)
	if err != nil {
		return model.Listing{}, fmt.Errorf("parse created %q: %w", it.Created, err)
	}
	return model.Listing{
		ID:            it.ID,
		Name:          it.Name,
		Price:         price,
		CreatedAt:     time.Unix(created, 0).UTC(),
		ThumbnailURLs: it.Thumbnails,
	}, nil
}
