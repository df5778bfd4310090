// Package pubchem looks up compounds by name via the PubChem PUG REST API.
package pubchem

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/formulary-labs/formulation-cli/internal/resilience"
)

const defaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// Client resolves ingredient names against the PubChem compound database.
type Client interface {
	// LookupByName returns compounds matching the exact name, in the
	// database's own order. An unknown name yields an empty slice and a nil
	// error; only transport or protocol failures return an error.
	LookupByName(ctx context.Context, name string) ([]Compound, error)
}

// Compound is a single matched compound record.
type Compound struct {
	CID              int64  `json:"CID"`
	MolecularFormula string `json:"MolecularFormula"`
	IUPACName        string `json:"IUPACName"`
}

// propertyTable mirrors the PUG REST property response envelope.
type propertyTable struct {
	PropertyTable struct {
		Properties []Compound `json:"Properties"`
	} `json:"PropertyTable"`
}

// fault mirrors the PUG REST error envelope.
type fault struct {
	Fault struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Fault"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit for PUG REST calls.
// PubChem's usage policy asks for no more than 5 requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetry overrides the retry configuration for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a PubChem client with rate limiting and retries.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(5, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("pubchem", "lookup_by_name")
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) LookupByName(ctx context.Context, name string) ([]Compound, error) {
	if name == "" {
		return nil, eris.New("pubchem: empty name")
	}

	reqURL := c.baseURL + "/compound/name/" + url.PathEscape(name) + "/property/MolecularFormula,IUPACName/JSON"

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]Compound, error) {
		return c.lookupOnce(ctx, reqURL)
	})
}

func (c *httpClient) lookupOnce(ctx context.Context, reqURL string) ([]Compound, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pubchem: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pubchem: read response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var table propertyTable
		if err := json.Unmarshal(body, &table); err != nil {
			return nil, eris.Wrap(err, "pubchem: unmarshal response")
		}
		return table.PropertyTable.Properties, nil

	case resp.StatusCode == http.StatusNotFound:
		// PUG REST reports unknown names as a 404 fault, not an error.
		var f fault
		if err := json.Unmarshal(body, &f); err == nil && f.Fault.Code != "" {
			return nil, nil
		}
		return nil, nil

	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("pubchem: unexpected status %d: %s", resp.StatusCode, string(body)),
			resp.StatusCode,
		)

	default:
		return nil, eris.Errorf("pubchem: unexpected status %d: %s", resp.StatusCode, string(body))
	}
}
