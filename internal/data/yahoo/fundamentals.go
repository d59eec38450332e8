package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/flashpoint/internal/contracts"
)

const statsBaseURL = "https://finance.yahoo.com"

// FetchFundamentals scrapes float, short interest and ownership
// metrics from the key-statistics page. Yahoo does not publish borrow
// fees, so BorrowFee stays zero.
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*contracts.FundamentalSnapshot, error) {
	fullURL := fmt.Sprintf("%s/quote/%s/key-statistics", statsBaseURL, url.PathEscape(symbol))

	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "text/html",
	}
	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, headers)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	fund, err := parseKeyStatistics(symbol, string(body))
	if err != nil {
		return nil, fmt.Errorf("parse key statistics failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"float":  fund.FloatShares,
		"short":  fund.ShortPercent,
	}).Debug("Fetched fundamentals")
	return fund, nil
}

// parseKeyStatistics extracts metric rows from a key-statistics page.
// Rows are label/value pairs; labels carry footnote suffixes, so
// matching is by prefix and substring.
func parseKeyStatistics(symbol, html string) (*contracts.FundamentalSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	fund := &contracts.FundamentalSnapshot{Symbol: symbol}

	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		label := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())

		switch {
		case strings.Contains(label, "Short % of Float"):
			fund.ShortPercent = parseAbbrevNumber(value)
		case strings.Contains(label, "Shares Short") && !strings.Contains(label, "prior"):
			fund.ShortShares = int64(parseAbbrevNumber(value))
		case strings.HasPrefix(label, "Float"):
			fund.FloatShares = int64(parseAbbrevNumber(value))
		case strings.Contains(label, "Avg Vol (3 month)"):
			fund.AvgVolume = int64(parseAbbrevNumber(value))
		case strings.Contains(label, "Market Cap"):
			fund.MarketCap = parseAbbrevNumber(value)
		case strings.Contains(label, "% Held by Insiders"):
			fund.InsiderPercent = parseAbbrevNumber(value)
		}
	})

	if fund.FloatShares <= 0 {
		return nil, fmt.Errorf("float not found for %s", symbol)
	}

	// Derive whichever short metric the page omitted.
	if fund.ShortShares == 0 && fund.ShortPercent > 0 {
		fund.ShortShares = int64(float64(fund.FloatShares) * fund.ShortPercent / 100)
	}
	if fund.ShortPercent == 0 && fund.ShortShares > 0 {
		fund.ShortPercent = float64(fund.ShortShares) / float64(fund.FloatShares) * 100
	}

	return fund, nil
}

// parseAbbrevNumber parses Yahoo's abbreviated figures: "12.5M",
// "3.2B", "1,234,567", "22.50%". Missing values ("N/A", "--") parse
// to zero.
func parseAbbrevNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "N/A" || s == "--" || s == "-" {
		return 0
	}

	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1e3
		s = s[:len(s)-1]
	case 'M':
		mult = 1e6
		s = s[:len(s)-1]
	case 'B':
		mult = 1e9
		s = s[:len(s)-1]
	case 'T':
		mult = 1e12
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v * mult
}
