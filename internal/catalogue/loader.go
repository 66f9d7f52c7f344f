package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"storefront/backend/internal/domain"
)

const maxFeedBytes = 8 << 20

// Loader fetches remote product feeds for catalogue import.
type Loader struct {
	client *http.Client
}

func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: 15 * time.Second}}
}

// feedEnvelope covers the two accepted shapes: a bare JSON array of DTOs
// or an object wrapping the array under "items".
type feedEnvelope struct {
	Items []ProductDTO `json:"items"`
}

// LoadFromURL fetches and normalises a product feed. Malformed entries are
// skipped with a warning rather than failing the whole import.
func (l *Loader) LoadFromURL(ctx context.Context, feedURL string) (products []domain.Product, skipped int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: invalid feed url: %v", domain.ErrInvalidInput, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch product feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("fetch product feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read product feed: %w", err)
	}

	dtos, err := decodeFeed(body)
	if err != nil {
		return nil, 0, err
	}

	for _, dto := range dtos {
		product, err := FromDTO(dto)
		if err != nil {
			log.Printf("[catalogue] WARN: skipping feed entry: %v", err)
			skipped++
			continue
		}
		products = append(products, product)
	}
	return products, skipped, nil
}

func decodeFeed(body []byte) ([]ProductDTO, error) {
	var list []ProductDTO
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}
	var envelope feedEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Items != nil {
		return envelope.Items, nil
	}
	return nil, fmt.Errorf("%w: feed must be a JSON array or an object with an items array", domain.ErrInvalidInput)
}
