// Package stockprice implements the live quote tool. Stocks are addressed by
// Korean company name or six-digit KRX ticker; quotes come from a polling
// quote API compatible with Naver Finance's realtime endpoint.
package stockprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/seniormts/seniormts/tools"
)

const defaultBaseURL = "https://polling.finance.naver.com/api/realtime/domestic/stock"

var codePattern = regexp.MustCompile(`^\d{6}$`)

// defaultCodes maps well-known company names to KRX tickers.
var defaultCodes = map[string]string{
	"삼성전자":    "005930",
	"SK하이닉스":  "000660",
	"LG에너지솔루션": "373220",
	"현대차":     "005380",
	"기아":      "000270",
	"NAVER":   "035420",
	"카카오":     "035720",
	"POSCO홀딩스": "005490",
}

type Tool struct {
	baseURL    string
	codes      map[string]string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Tool {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Tool{
		baseURL:    baseURL,
		codes:      defaultCodes,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (t *Tool) Name() string { return "stock_price" }

func (t *Tool) Description() string {
	return "use this tool to look up the current market price of a Korean stock by company name or 6-digit ticker code"
}

func (t *Tool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"stock": map[string]interface{}{
				"type":        "string",
				"description": "company name (e.g. 삼성전자) or 6-digit KRX code (e.g. 005930)",
			},
		},
		"required": []string{"stock"},
	}
}

// ResolveCode maps a company name or raw ticker to a KRX code.
func (t *Tool) ResolveCode(stock string) (string, error) {
	stock = strings.TrimSpace(stock)
	if codePattern.MatchString(stock) {
		return stock, nil
	}
	if code, ok := t.codes[stock]; ok {
		return code, nil
	}
	return "", fmt.Errorf("unknown stock %q", stock)
}

type quoteResponse struct {
	Datas []struct {
		ItemCode                     string `json:"itemCode"`
		StockName                    string `json:"stockName"`
		ClosePrice                   string `json:"closePrice"`
		CompareToPreviousClosePrice  string `json:"compareToPreviousClosePrice"`
		FluctuationsRatio            string `json:"fluctuationsRatio"`
	} `json:"datas"`
}

func (t *Tool) Invoke(ctx context.Context, args map[string]interface{}) (string, error) {
	stock, _ := args["stock"].(string)
	if strings.TrimSpace(stock) == "" {
		return "", &tools.InvocationError{Tool: t.Name(), Err: fmt.Errorf("missing required argument: stock")}
	}
	code, err := t.ResolveCode(stock)
	if err != nil {
		return "", &tools.InvocationError{Tool: t.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/"+code, nil)
	if err != nil {
		return "", &tools.InvocationError{Tool: t.Name(), Err: err}
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", &tools.InvocationError{Tool: t.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &tools.InvocationError{Tool: t.Name(), Err: fmt.Errorf("quote API returned status %d", resp.StatusCode)}
	}

	var parsed quoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", &tools.InvocationError{Tool: t.Name(), Err: fmt.Errorf("parse quote response: %w", err)}
	}
	if len(parsed.Datas) == 0 {
		return "", &tools.InvocationError{Tool: t.Name(), Err: fmt.Errorf("no quote data for code %s", code)}
	}

	q := parsed.Datas[0]
	return fmt.Sprintf("%s(%s) 현재가 %s원, 전일 대비 %s원 (%s%%)",
		q.StockName, q.ItemCode, q.ClosePrice, q.CompareToPreviousClosePrice, q.FluctuationsRatio), nil
}
