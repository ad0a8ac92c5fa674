package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/domain"
	"bricklink/taxonomy/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// BrickLinkClient loads category trees and item breadcrumbs from the catalog.
type BrickLinkClient interface {
	GetCategoryTree(ctx context.Context, categoryType domain.CategoryType) (domain.CategoryTreeMap, error)
	GetItemCategory(ctx context.Context, itemType domain.CategoryType, itemID string) (domain.SubcategoryHierarchy, error)
}

type brickLinkClient struct {
	rl            ratelimit.Limiter
	baseURL       string
	httpClient    *resty.Client
	parser        *catalogParser
	proxySupplier proxy.ProxySupplier

	// Circuit breaker for quota exceeded
	circuitBreakerMutex sync.RWMutex
	quotaExceededUntil  time.Time
	circuitBreakerDelay time.Duration
}

func NewBrickLinkClient(cfg config.BrickLinkConfig, proxySupplier proxy.ProxySupplier) BrickLinkClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &brickLinkClient{
		rl:                  rl,
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:          client,
		parser:              newCatalogParser(strings.TrimRight(cfg.BaseURL, "/")),
		proxySupplier:       proxySupplier,
		circuitBreakerDelay: 30 * time.Minute,
	}
}

func (c *brickLinkClient) GetCategoryTree(ctx context.Context, categoryType domain.CategoryType) (domain.CategoryTreeMap, error) {
	url := fmt.Sprintf("%s/catalogTree.asp?itemType=%s", c.baseURL, categoryType.String())

	page, err := c.fetchHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTML for %s category tree: %w", categoryType, err)
	}

	tree, err := c.parser.ParseCatalogTree(page, categoryType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category tree: %w", err)
	}

	log.Debugf("Successfully fetched %s category tree with %d nodes", categoryType, len(tree)-1)
	return tree, nil
}

func (c *brickLinkClient) GetItemCategory(ctx context.Context, itemType domain.CategoryType, itemID string) (domain.SubcategoryHierarchy, error) {
	url := fmt.Sprintf("%s/v2/catalog/catalogitem.page?%s=%s", c.baseURL, itemType, itemID)

	page, err := c.fetchHTML(ctx, url)
	if err != nil {
		return domain.SubcategoryHierarchy{}, fmt.Errorf("failed to fetch HTML for item %s: %w", itemID, err)
	}

	hierarchy, err := c.parser.ParseItemCategory(page, itemID)
	if err != nil {
		return domain.SubcategoryHierarchy{}, fmt.Errorf("failed to parse item category: %w", err)
	}

	return hierarchy, nil
}

func (c *brickLinkClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.quotaExceededUntil)
	wasTriggered := !c.quotaExceededUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.quotaExceededUntil.IsZero() && now.After(c.quotaExceededUntil) {
			c.quotaExceededUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *brickLinkClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.quotaExceededUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! All requests disabled until %v (%v)",
		c.quotaExceededUntil.Format("15:04:05"), c.circuitBreakerDelay)
}

func (c *brickLinkClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.quotaExceededUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *brickLinkClient) fetchHTML(ctx context.Context, url string) (string, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return "", fmt.Errorf("circuit breaker is open - requests disabled for %v more", remaining.Round(time.Second))
	}

	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	page := resp.String()
	if !strings.Contains(page, "Quota Exceeded") {
		return page, nil
	}

	log.Warnf("🚫 Rate limit exceeded for URL: %s", url)

	if c.proxySupplier != nil {
		if newProxy := c.proxySupplier.Get(); newProxy != "" {
			log.Infof("🔄 Switching to new proxy: %s", newProxy)
			c.httpClient.SetProxy(newProxy)

			retryResp, retryErr := c.httpClient.R().
				SetContext(ctx).
				Get(url)
			if retryErr == nil && !retryResp.IsError() {
				retryPage := retryResp.String()
				if !strings.Contains(retryPage, "Quota Exceeded") {
					log.Infof("✅ Retry successful with new proxy")
					return retryPage, nil
				}
			}
		}
	}

	c.triggerCircuitBreaker()
	return "", fmt.Errorf("quota exceeded - circuit breaker activated for %v", c.circuitBreakerDelay)
}
