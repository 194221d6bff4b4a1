package openleg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Bill is the subset of a remote bill record the assistant uses.
type Bill struct {
	PrintNo       string   `json:"printNo"`
	Session       int      `json:"session"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Status        string   `json:"status"`
	StatusDate    string   `json:"statusDate"`
	CommitteeName string   `json:"committeeName"`
	Sponsor       string   `json:"sponsor"`
	SameAs        []string `json:"sameAs"`
}

// Client talks to an OpenLegislation-style REST API. Responses are cached in
// Redis when a client is supplied; cache failures fall through to the network.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	rdb     *redis.Client
	ttl     time.Duration
}

var ErrNotFound = errors.New("openleg: bill not found")

func NewClient(baseURL, apiKey string, rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		rdb:     rdb,
		ttl:     ttl,
	}
}

type apiStatus struct {
	StatusDesc    string `json:"statusDesc"`
	ActionDate    string `json:"actionDate"`
	CommitteeName string `json:"committeeName"`
}

type apiBill struct {
	PrintNo string    `json:"printNo"`
	Session int       `json:"session"`
	Title   string    `json:"title"`
	Summary string    `json:"summary"`
	Status  apiStatus `json:"status"`
	Sponsor struct {
		Member struct {
			FullName string `json:"fullName"`
		} `json:"member"`
	} `json:"sponsor"`
	Amendments struct {
		Items map[string]struct {
			SameAs struct {
				Items []struct {
					BasePrintNo string `json:"basePrintNo"`
				} `json:"items"`
			} `json:"sameAs"`
		} `json:"items"`
	} `json:"amendments"`
}

func (b apiBill) toBill() *Bill {
	out := &Bill{
		PrintNo:       b.PrintNo,
		Session:       b.Session,
		Title:         b.Title,
		Summary:       b.Summary,
		Status:        b.Status.StatusDesc,
		StatusDate:    b.Status.ActionDate,
		CommitteeName: b.Status.CommitteeName,
		Sponsor:       b.Sponsor.Member.FullName,
	}
	seen := map[string]struct{}{}
	for _, amendment := range b.Amendments.Items {
		for _, same := range amendment.SameAs.Items {
			if _, ok := seen[same.BasePrintNo]; ok || same.BasePrintNo == "" {
				continue
			}
			seen[same.BasePrintNo] = struct{}{}
			out.SameAs = append(out.SameAs, same.BasePrintNo)
		}
	}
	return out
}

// GetBill fetches one bill by session year and canonical print number.
func (c *Client) GetBill(ctx context.Context, session int, printNo string) (*Bill, error) {
	key := fmt.Sprintf("openleg:bill:%d:%s", session, printNo)
	var cached Bill
	if c.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	var body struct {
		Success bool    `json:"success"`
		Result  apiBill `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/api/3/bills/%d/%s", c.baseURL, session, url.PathEscape(printNo))
	if err := c.get(ctx, endpoint, nil, &body); err != nil {
		return nil, err
	}
	if !body.Success || body.Result.PrintNo == "" {
		return nil, ErrNotFound
	}

	bill := body.Result.toBill()
	c.cacheSet(ctx, key, bill)
	return bill, nil
}

// SearchBills runs a free-text search within a session.
func (c *Client) SearchBills(ctx context.Context, session int, term string, limit int) ([]*Bill, error) {
	key := fmt.Sprintf("openleg:search:%d:%d:%s", session, limit, strings.ToLower(term))
	var cached []*Bill
	if c.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	var body struct {
		Result struct {
			Items []struct {
				Result apiBill `json:"result"`
			} `json:"items"`
		} `json:"result"`
	}
	params := url.Values{}
	params.Set("term", term)
	params.Set("limit", fmt.Sprint(limit))
	endpoint := fmt.Sprintf("%s/api/3/bills/%d/search", c.baseURL, session)
	if err := c.get(ctx, endpoint, params, &body); err != nil {
		return nil, err
	}

	bills := make([]*Bill, 0, len(body.Result.Items))
	for _, item := range body.Result.Items {
		bills = append(bills, item.Result.toBill())
	}
	c.cacheSet(ctx, key, bills)
	return bills, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openleg request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openleg error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else means the cache is down
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Client) cacheSet(ctx context.Context, key string, v interface{}) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}
