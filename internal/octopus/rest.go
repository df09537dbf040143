package octopus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/septivank/octobot/internal/domain"
	"github.com/septivank/octobot/tools/timeparser"
)

// Account fetches the configured account with its properties and agreements
func (c *Client) Account(ctx context.Context) (Account, error) {
	endpoint := c.endpoint("/accounts/" + url.PathEscape(c.creds.AccountNumber) + "/")
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Account{}, err
	}
	req.SetBasicAuth(c.creds.APIKey, "")

	var resp accountResponse
	if err := c.do(req, &resp); err != nil {
		return Account{}, fmt.Errorf("failed to fetch account: %w", err)
	}

	account, err := resp.toAccount()
	if err != nil {
		return Account{}, fmt.Errorf("%w: account %s: %w", domain.ErrUpstreamUnavailable, c.creds.AccountNumber, err)
	}
	return account, nil
}

// Product fetches a product's rate table. The products endpoint is public.
func (c *Client) Product(ctx context.Context, productCode string) (Product, error) {
	endpoint := c.endpoint("/products/" + url.PathEscape(productCode) + "/")
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Product{}, err
	}

	var resp productResponse
	if err := c.do(req, &resp); err != nil {
		return Product{}, fmt.Errorf("failed to fetch product %s: %w", productCode, err)
	}
	return resp.toProduct(), nil
}

// Consumption fetches every interval reading for the configured meter
// between from 00:00:00Z and to 23:59:59Z, following pagination links.
func (c *Client) Consumption(ctx context.Context, from, to time.Time) ([]domain.ConsumptionInterval, error) {
	periodFrom, periodTo := timeparser.PeriodBounds(from, to)

	query := url.Values{}
	query.Set("period_from", periodFrom)
	query.Set("period_to", periodTo)
	query.Set("page_size", strconv.Itoa(c.creds.PageSize))

	next := c.endpoint(fmt.Sprintf("/electricity-meter-points/%s/meters/%s/consumption/",
		url.PathEscape(c.creds.MPAN), url.PathEscape(c.creds.SerialNumber))) + "?" + query.Encode()

	var intervals []domain.ConsumptionInterval
	seen := make(map[string]struct{})
	for next != "" {
		if _, ok := seen[next]; ok {
			return nil, fmt.Errorf("%w: consumption pagination loops at %s", domain.ErrUpstreamUnavailable, next)
		}
		seen[next] = struct{}{}

		req, err := c.newRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.creds.APIKey, "")

		var page consumptionResponse
		if err := c.do(req, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch consumption: %w", err)
		}

		for _, r := range page.Results {
			interval := domain.ConsumptionInterval{Consumption: r.Consumption}
			if start, err := timeparser.ParseProviderTimestamp(r.IntervalStart); err == nil {
				interval.IntervalStart = start
			}
			if end, err := timeparser.ParseProviderTimestamp(r.IntervalEnd); err == nil {
				interval.IntervalEnd = end
			}
			intervals = append(intervals, interval)
		}

		next = ""
		if page.Next != nil && *page.Next != "" {
			if err := c.checkSameOrigin(*page.Next); err != nil {
				return nil, err
			}
			next = *page.Next
		}
	}

	return intervals, nil
}

// checkSameOrigin rejects pagination links that leave the provider's host,
// since every page request carries the API key.
func (c *Client) checkSameOrigin(link string) error {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	target, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("%w: malformed consumption next link: %w", domain.ErrUpstreamUnavailable, err)
	}
	if !strings.EqualFold(target.Scheme, base.Scheme) || !strings.EqualFold(target.Host, base.Host) {
		return fmt.Errorf("%w: consumption next link points at foreign host %s", domain.ErrUpstreamUnavailable, target.Host)
	}
	return nil
}
