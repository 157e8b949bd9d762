package crm

import (
	"context"
	"fmt"
	"math"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync"
	"time"

	"crmsync/internal/components/assert"
	"crmsync/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	DefaultTimeout   = 200 * time.Minute

	// probePage is far past the end of the listing, the crm answers it with the last page.
	probePage = 90000
)

type Options struct {
	LoginUrl    string
	RedirectUrl string
	// PageUrl is the listing url with a `{page}` placeholder.
	PageUrl string
	// ProbeUrl defaults to PageUrl rendered with an overflowing page number.
	ProbeUrl    string
	Credentials Credentials

	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits every request made by the client, 0 disables the limit.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// DumpOutput receives every request/response pair when not nil.
	DumpOutput telemetry.MessageOutput
}

// RenderPageUrl substitutes the page number into a `{page}` url template.
func RenderPageUrl(template string, page int) string {
	return strings.ReplaceAll(template, "{page}", strconv.Itoa(page))
}

// Client is a single use crm session. The underlying resty client and cookie jar are
// safe for concurrent use, so FetchAll shares them between goroutines.
type Client struct {
	opts Options
	http *resty.Client
	tel  telemetry.API

	mu    sync.Mutex
	state SessionState
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.LoginUrl)
	assert.NotEmptyStr(opts.RedirectUrl)
	assert.NotEmptyStr(opts.PageUrl)

	tel = telemetry.NewScopedAPI("crm_scraper", tel)

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ProbeUrl == "" {
		opts.ProbeUrl = RenderPageUrl(opts.PageUrl, probePage)
	}

	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetHeader("referer", opts.LoginUrl)
	httpClient.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		burst := int(math.Ceil(opts.RequestsPerSecond))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.DumpOutput)

	return &Client{
		opts:  opts,
		http:  httpClient,
		tel:   tel,
		state: StateUnauthenticated,
	}, nil
}

func (c *Client) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(state SessionState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// Close releases idle connections, the client cannot be used afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.state = StateClosed
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) requireAuthenticated() error {
	state := c.State()
	if state != StateAuthenticated {
		return fmt.Errorf("%w: session is %s, not authenticated", ErrSessionState, state)
	}
	return nil
}

// get performs a GET request and returns the response if it was successful.
func (c *Client) get(ctx context.Context, url string) (*resty.Response, error) {
	if c.State() == StateClosed {
		return nil, fmt.Errorf("%w: client is closed", ErrSessionState)
	}
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, err)
	}
	if !res.IsSuccess() {
		return res, fmt.Errorf("%w: GET %s: %s", ErrHttpStatus, url, res.Status())
	}
	return res, nil
}

// finalUrl is the url of the last request made after following redirects.
func finalUrl(res *resty.Response) string {
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		return res.RawResponse.Request.URL.String()
	}
	return res.Request.URL
}

// Fetch downloads a single page.
func (c *Client) Fetch(ctx context.Context, target FetchTarget) (FetchedPage, error) {
	c.tel.ReportDebug(report_client_fetch, target.Page, target.Url)

	err := c.requireAuthenticated()
	if err != nil {
		return FetchedPage{}, err
	}
	res, err := c.get(ctx, target.Url)
	if err != nil {
		return FetchedPage{}, err
	}
	return FetchedPage{
		Url:     target.Url,
		Page:    target.Page,
		Content: string(res.Body()),
	}, nil
}
