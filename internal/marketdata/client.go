// Package marketdata provides the market data source client and candle
// aggregation utilities.
package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"nifty-alerts/internal/config"
	apperrors "nifty-alerts/internal/errors"
	"nifty-alerts/internal/models"
)

// Source defines the interface for an intraday market data source.
type Source interface {
	// GetIntraday returns 1-minute candles for the configured instrument in
	// [from, to]. A source outage or malformed payload yields an empty
	// series together with ErrDataUnavailable; callers degrade, they do not
	// crash.
	GetIntraday(ctx context.Context, from, to time.Time) ([]models.Candle, error)

	// GetSpotPrice returns the instrument's last traded price.
	GetSpotPrice(ctx context.Context) (float64, error)
}

const defaultBaseURL = "https://api.dhan.co/v2"

// DhanClient fetches index candles from the DhanHQ intraday charts API.
type DhanClient struct {
	baseURL         string
	accessToken     string
	clientID        string
	securityID      string
	exchangeSegment string
	httpClient      *http.Client
	location        *time.Location
}

// NewDhanClient creates a new DhanHQ market data client.
func NewDhanClient(creds config.DhanCredentials, inst config.InstrumentConfig, loc *time.Location) *DhanClient {
	return &DhanClient{
		baseURL:         defaultBaseURL,
		accessToken:     creds.AccessToken,
		clientID:        creds.ClientID,
		securityID:      inst.SecurityID,
		exchangeSegment: inst.ExchangeSegment,
		httpClient: &http.Client{
			Timeout: 8 * time.Second,
		},
		location: loc,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *DhanClient) SetBaseURL(u string) {
	c.baseURL = u
}

// intradayRequest is the charts/intraday request body.
type intradayRequest struct {
	SecurityID      string `json:"securityId"`
	ExchangeSegment string `json:"exchangeSegment"`
	Instrument      string `json:"instrument"`
	Interval        string `json:"interval"`
	FromDate        string `json:"fromDate"`
	ToDate          string `json:"toDate"`
}

// intradayResponse is the charts/intraday response body: parallel arrays,
// one element per candle.
type intradayResponse struct {
	Open      []float64 `json:"open"`
	High      []float64 `json:"high"`
	Low       []float64 `json:"low"`
	Close     []float64 `json:"close"`
	Volume    []int64   `json:"volume"`
	Timestamp []int64   `json:"timestamp"` // epoch seconds
}

// GetIntraday returns 1-minute candles for [from, to].
func (c *DhanClient) GetIntraday(ctx context.Context, from, to time.Time) ([]models.Candle, error) {
	reqBody := intradayRequest{
		SecurityID:      c.securityID,
		ExchangeSegment: c.exchangeSegment,
		Instrument:      "INDEX",
		Interval:        "1",
		FromDate:        from.In(c.location).Format("2006-01-02 15:04:05"),
		ToDate:          to.In(c.location).Format("2006-01-02 15:04:05"),
	}

	var resp intradayResponse
	if err := c.post(ctx, "/charts/intraday", reqBody, &resp); err != nil {
		return nil, apperrors.NewDataError("intraday", c.securityID, "fetch failed", err)
	}

	return c.toCandles(resp)
}

// toCandles converts the parallel-array payload into a candle series.
// Mismatched or empty arrays degrade to an empty series.
func (c *DhanClient) toCandles(resp intradayResponse) ([]models.Candle, error) {
	n := len(resp.Open)
	if n == 0 {
		return nil, apperrors.ErrDataUnavailable
	}
	if len(resp.High) != n || len(resp.Low) != n || len(resp.Close) != n ||
		len(resp.Volume) != n || len(resp.Timestamp) != n {
		return nil, apperrors.ErrDataUnavailable
	}

	candles := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(resp.Timestamp[i], 0).In(c.location).Truncate(time.Minute),
			Open:      resp.Open[i],
			High:      resp.High[i],
			Low:       resp.Low[i],
			Close:     resp.Close[i],
			Volume:    resp.Volume[i],
		})
	}
	return candles, nil
}

// quoteResponse is the marketfeed/quote response body.
type quoteResponse struct {
	Data map[string]map[string]struct {
		LastPrice float64 `json:"last_price"`
	} `json:"data"`
}

// GetSpotPrice returns the index last traded price.
func (c *DhanClient) GetSpotPrice(ctx context.Context) (float64, error) {
	reqBody := map[string][]string{
		c.exchangeSegment: {c.securityID},
	}

	var resp quoteResponse
	if err := c.post(ctx, "/marketfeed/quote", reqBody, &resp); err != nil {
		return 0, apperrors.NewDataError("quote", c.securityID, "fetch failed", err)
	}

	seg, ok := resp.Data[c.exchangeSegment]
	if !ok {
		return 0, apperrors.ErrDataUnavailable
	}
	q, ok := seg[c.securityID]
	if !ok || q.LastPrice <= 0 {
		return 0, apperrors.ErrDataUnavailable
	}
	return q.LastPrice, nil
}

func (c *DhanClient) post(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("access-token", c.accessToken)
	req.Header.Set("client-id", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
