package crm

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

const (
	report_client_csrf_token = "client.csrf-token"
	report_client_login      = "client.login"
	report_client_probe      = "client.probe"
	report_client_fetch      = "client.fetch"
	report_client_fetch_all  = "client.fetch-all"
)

var (
	ErrNetwork          = errors.New("network error")
	ErrHttpStatus       = errors.New("unexpected http status")
	ErrMarkupStructure  = errors.New("unexpected markup structure")
	ErrRedirectMismatch = errors.New("redirect mismatch")
	ErrParse            = errors.New("parse error")
	ErrLoginFailed      = errors.New("login failed")
	ErrSessionState     = errors.New("invalid session state")

	ErrTokenNotFound      = fmt.Errorf("%w: csrf token not found", ErrMarkupStructure)
	ErrPaginationNotFound = fmt.Errorf("%w: pagination not found", ErrMarkupStructure)
	ErrNoTableFound       = fmt.Errorf("%w: no table found in html", ErrMarkupStructure)
	ErrNoRowsFound        = fmt.Errorf("%w: no rows found in table", ErrMarkupStructure)
)

// Credentials are the login form values, the crm identifies users by email.
type Credentials struct {
	Username string
	Password string
}

// RemoteState is what the pagination probe reports about the listing.
type RemoteState struct {
	PageCount   int
	RecordCount int
}

// FetchTarget is a single listing page to download.
type FetchTarget struct {
	Url  string
	Page int
}

// NewFetchTarget reads the page ordinal out of the `page` query parameter.
func NewFetchTarget(rawUrl string) (FetchTarget, error) {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return FetchTarget{}, fmt.Errorf("%w: fetch target url: %w", ErrParse, err)
	}
	value := parsed.Query().Get("page")
	if value == "" {
		return FetchTarget{}, fmt.Errorf("%w: no page number in '%s'", ErrParse, rawUrl)
	}
	page, err := strconv.Atoi(value)
	if err != nil || page <= 0 {
		return FetchTarget{}, fmt.Errorf("%w: invalid page number '%s' in '%s'", ErrParse, value, rawUrl)
	}
	return FetchTarget{Url: rawUrl, Page: page}, nil
}

type FetchedPage struct {
	Url     string
	Page    int
	Content string
}

// Row is the trimmed text of every th/td cell of a single tr, it may be empty.
type Row []string

type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateTokenExtracted
	StateCredentialsSubmitted
	// StateAuthenticated is only reached after the redirect check passed.
	StateAuthenticated
	StateLoginFailed
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateTokenExtracted:
		return "token-extracted"
	case StateCredentialsSubmitted:
		return "credentials-submitted"
	case StateAuthenticated:
		return "authenticated"
	case StateLoginFailed:
		return "login-failed"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}
