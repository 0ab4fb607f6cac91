package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrNotFound means the listing service answered and the listing does not exist.
	ErrNotFound = errors.New("listing not found")
	// ErrUnavailable means the listing service could not be reached or misbehaved.
	ErrUnavailable = errors.New("listing service unavailable")
)

// Listing is the resolved view of a marketplace listing.
type Listing struct {
	ID       int64  `json:"id"`
	SellerID int64  `json:"seller_id"`
	Title    string `json:"title"`
}

// Resolver resolves a listing id to its seller and title.
type Resolver interface {
	Resolve(ctx context.Context, listingID int64) (Listing, error)
}

// Client calls the listing service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a listing client with a per-call timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Resolve fetches GET {base}/listings/{id}. A 404 maps to ErrNotFound;
// transport failures and unexpected statuses map to ErrUnavailable so
// callers can tell "no such listing" from "resolver down".
func (c *Client) Resolve(ctx context.Context, listingID int64) (Listing, error) {
	ctx, span := otel.Tracer("listing-chat-service/listing").Start(ctx, "listing.resolve")
	span.SetAttributes(attribute.Int64("listing.id", listingID))
	defer span.End()

	url := fmt.Sprintf("%s/listings/%d", c.baseURL, listingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Listing{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Listing{}, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return Listing{}, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var listing Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return Listing{}, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return listing, nil
}
