package crm

import (
	"context"
	"net/url"
	"os"
	"slices"
	"testing"
	"time"

	"crmsync/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestExtractCsrfToken(t *testing.T) {
	fixture, err := os.ReadFile("testdata/login.html")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		body     string
		expected string
		err      error
	}{
		{
			name:     "fixture",
			body:     string(fixture),
			expected: "abc123",
		},
		{
			name:     "inside larger document",
			body:     `<div><p>hello</p><form><input type="hidden" name="csrfmiddlewaretoken" value="abc123"></form></div>`,
			expected: "abc123",
		},
		{
			name:     "extra attributes",
			body:     `<input id="tok" type="hidden" name="csrfmiddlewaretoken" data-x="1" value="Zx9-_q" />`,
			expected: "Zx9-_q",
		},
		{
			name: "missing",
			body: `<form><input type="hidden" name="next" value="/dashboard/"></form>`,
			err:  ErrTokenNotFound,
		},
		{
			name: "empty value",
			body: `<input type="hidden" name="csrfmiddlewaretoken" value="">`,
			err:  ErrTokenNotFound,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			token, err := ExtractCsrfToken(test.body)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				require.ErrorIs(t, err, ErrMarkupStructure)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, token)
		})
	}
}

func TestLogin(t *testing.T) {
	fake := newFakeCrm(t, 3, 50)
	client, tel := fake.newClient(t)

	err := client.Login(testContext(t))
	require.NoError(t, err)
	require.Equal(t, StateAuthenticated, client.State())
	require.Empty(t, tel.Broken())

	serverUrl, err := url.Parse(fake.server.URL)
	require.NoError(t, err)
	var names []string
	for _, cookie := range client.http.GetClient().Jar.Cookies(serverUrl) {
		names = append(names, cookie.Name)
	}
	require.Contains(t, names, "sessionid")
	require.Contains(t, names, "csrftoken")

	err = client.Login(testContext(t))
	require.ErrorIs(t, err, ErrSessionState)
}

func TestLoginFailures(t *testing.T) {
	testCases := []struct {
		name   string
		setup  func(f *fakeCrm, opts *Options)
		errors []error
	}{
		{
			name: "wrong password",
			setup: func(f *fakeCrm, opts *Options) {
				opts.Credentials.Password = "wrong"
			},
			errors: []error{ErrLoginFailed, ErrRedirectMismatch},
		},
		{
			name: "redirected elsewhere after login",
			setup: func(f *fakeCrm, opts *Options) {
				f.redirectTo = "/onboarding/"
			},
			errors: []error{ErrLoginFailed, ErrRedirectMismatch},
		},
		{
			name: "no csrf token",
			setup: func(f *fakeCrm, opts *Options) {
				f.omitToken = true
			},
			errors: []error{ErrLoginFailed, ErrTokenNotFound, ErrMarkupStructure},
		},
		{
			name: "server error on submit",
			setup: func(f *fakeCrm, opts *Options) {
				f.failLogin = true
			},
			errors: []error{ErrLoginFailed, ErrHttpStatus},
		},
		{
			name: "unreachable",
			setup: func(f *fakeCrm, opts *Options) {
				opts.LoginUrl = "http://127.0.0.1:1/accounts/login/"
			},
			errors: []error{ErrLoginFailed, ErrNetwork},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			fake := newFakeCrm(t, 3, 50)
			opts := fake.options()
			test.setup(fake, &opts)

			client, err := NewClient(opts, &telemetry.Recorder{})
			require.NoError(t, err)
			defer client.Close()

			err = client.Login(testContext(t))
			for _, expected := range test.errors {
				require.ErrorIs(t, err, expected)
			}
			require.Equal(t, StateLoginFailed, client.State())

			_, err = client.Probe(testContext(t))
			require.ErrorIs(t, err, ErrSessionState)
			require.Empty(t, fake.fetchedPages())
		})
	}
}

func TestLoginRedirectMismatch(t *testing.T) {
	fake := newFakeCrm(t, 3, 50)
	fake.redirectTo = "/onboarding/"
	client, tel := fake.newClient(t)

	err := client.Login(testContext(t))
	require.ErrorIs(t, err, ErrRedirectMismatch)
	require.NotErrorIs(t, err, ErrHttpStatus)
	require.Contains(t, err.Error(), fake.server.URL+"/onboarding/")
	require.Equal(t, StateLoginFailed, client.State())

	var warnings []string
	for _, r := range tel.Reports() {
		if r.Kind == "warning" && r.Id == "crm_scraper: "+report_client_login {
			warnings = append(warnings, r.Id)
		}
	}
	require.Len(t, warnings, 1)
	require.Empty(t, tel.Broken())
}

func TestParsePagination(t *testing.T) {
	fixture, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	state, err := ParsePagination(string(fixture))
	require.NoError(t, err)
	require.Equal(t, RemoteState{PageCount: 54, RecordCount: 1072}, state)

	state, err = ParsePagination(renderListing(3, 3, 50))
	require.NoError(t, err)
	require.Equal(t, RemoteState{PageCount: 3, RecordCount: 50}, state)

	_, err = ParsePagination(`<div class="display">Showing 1 - 20 of 50</div>`)
	require.ErrorIs(t, err, ErrPaginationNotFound)
	require.ErrorIs(t, err, ErrMarkupStructure)

	_, err = ParsePagination(`<div class="pages"><a>1</a><a>2</a></div>`)
	require.ErrorIs(t, err, ErrPaginationNotFound)

	_, err = ParsePagination(`<div class="pages"><a>1</a><a>Next</a></div><div class="display">1 of 5</div>`)
	require.ErrorIs(t, err, ErrParse)

	_, err = ParsePagination(`<div class="pages"><a>1</a></div><div class="display">nothing here</div>`)
	require.ErrorIs(t, err, ErrParse)
}

func TestProbe(t *testing.T) {
	fake := newFakeCrm(t, 5, 92)
	client, tel := fake.newClient(t)
	ctx := testContext(t)

	require.NoError(t, client.Login(ctx))
	state, err := client.Probe(ctx)
	require.NoError(t, err)
	require.Equal(t, RemoteState{PageCount: 5, RecordCount: 92}, state)
	require.Equal(t, int64(92), tel.Count("crm_scraper: "+report_client_probe))
	require.Equal(t, []int{5}, fake.fetchedPages())
}

func TestNewFetchTarget(t *testing.T) {
	target, err := NewFetchTarget("https://crm.example.com/students/?status=new&page=12")
	require.NoError(t, err)
	require.Equal(t, 12, target.Page)

	for _, invalid := range []string{
		"https://crm.example.com/students/",
		"https://crm.example.com/students/?page=",
		"https://crm.example.com/students/?page=abc",
		"https://crm.example.com/students/?page=0",
		"https://crm.example.com/students/?page=-3",
	} {
		_, err := NewFetchTarget(invalid)
		require.ErrorIs(t, err, ErrParse, invalid)
	}
}

func TestRenderPageUrl(t *testing.T) {
	require.Equal(
		t,
		"https://crm.example.com/students/?page=7",
		RenderPageUrl("https://crm.example.com/students/?page={page}", 7),
	)
}

func targetsFor(t *testing.T, template string, n int) []FetchTarget {
	targets := make([]FetchTarget, n)
	for i := range targets {
		target, err := NewFetchTarget(RenderPageUrl(template, i+1))
		require.NoError(t, err)
		targets[i] = target
	}
	return targets
}

func TestPartition(t *testing.T) {
	testCases := []struct {
		count     int
		batchSize int
		batches   int
		lastSize  int
	}{
		{count: 0, batchSize: 5, batches: 0},
		{count: 1, batchSize: 5, batches: 1, lastSize: 1},
		{count: 5, batchSize: 5, batches: 1, lastSize: 5},
		{count: 6, batchSize: 5, batches: 2, lastSize: 1},
		{count: 23, batchSize: 5, batches: 5, lastSize: 3},
		{count: 23, batchSize: 0, batches: 5, lastSize: 3},
		{count: 7, batchSize: 1, batches: 7, lastSize: 1},
		{count: 3, batchSize: 10, batches: 1, lastSize: 3},
	}

	for _, test := range testCases {
		targets := targetsFor(t, "https://crm.example.com/students/?page={page}", test.count)
		batches := Partition(targets, test.batchSize)
		require.Len(t, batches, test.batches, "count=%d batch=%d", test.count, test.batchSize)
		if test.batches == 0 {
			continue
		}
		require.Len(t, batches[len(batches)-1], test.lastSize)

		var flattened []FetchTarget
		for _, batch := range batches {
			flattened = append(flattened, batch...)
		}
		if diff := cmp.Diff(targets, flattened); diff != "" {
			t.Fatal(diff)
		}
	}
}

func TestFetchAll(t *testing.T) {
	fake := newFakeCrm(t, 23, 23*fakePerPage)
	fake.jitter = 30 * time.Millisecond
	client, tel := fake.newClient(t)
	ctx := testContext(t)
	require.NoError(t, client.Login(ctx))

	targets := targetsFor(t, fake.options().PageUrl, 23)
	pages, err := client.FetchAll(ctx, targets, 5)
	require.NoError(t, err)
	require.Len(t, pages, len(targets))
	for i, page := range pages {
		require.Equal(t, targets[i].Url, page.Url)
		require.Equal(t, i+1, page.Page)
		require.Equal(t, renderListing(i+1, 23, 23*fakePerPage), page.Content)
	}
	require.LessOrEqual(t, fake.maxInflight, 5)
	require.Equal(t, int64(23), tel.Count("crm_scraper: "+report_client_fetch_all))

	// batches never overlap, so every page of a batch is requested before the next batch
	fetched := fake.fetchedPages()
	for i := 0; i < len(fetched); i += 5 {
		batch := slices.Clone(fetched[i:min(i+5, len(fetched))])
		slices.Sort(batch)
		for j, page := range batch {
			require.Equal(t, i+j+1, page)
		}
	}
}

func TestFetchAllFailure(t *testing.T) {
	fake := newFakeCrm(t, 10, 10*fakePerPage)
	fake.failPage = 3
	fake.jitter = 10 * time.Millisecond
	client, tel := fake.newClient(t)
	ctx := testContext(t)
	require.NoError(t, client.Login(ctx))

	pages, err := client.FetchAll(ctx, targetsFor(t, fake.options().PageUrl, 10), 5)
	require.ErrorIs(t, err, ErrHttpStatus)
	require.Nil(t, pages)
	require.Contains(t, tel.Broken(), "crm_scraper: "+report_client_fetch_all)

	// the failing batch runs to completion, the next one never starts
	fetched := fake.fetchedPages()
	slices.Sort(fetched)
	require.Equal(t, []int{1, 2, 3, 4, 5}, fetched)
}

func TestClosedClient(t *testing.T) {
	fake := newFakeCrm(t, 3, 50)
	client, _ := fake.newClient(t)
	client.Close()
	require.Equal(t, StateClosed, client.State())

	_, err := client.Fetch(testContext(t), FetchTarget{Url: fake.server.URL + "/students/?page=1", Page: 1})
	require.ErrorIs(t, err, ErrSessionState)
	require.Empty(t, fake.fetchedPages())

	err = client.Login(testContext(t))
	require.ErrorIs(t, err, ErrSessionState)
}
