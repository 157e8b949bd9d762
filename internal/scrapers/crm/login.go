package crm

import (
	"context"
	"fmt"
)

// Login authenticates the session. It walks the login state machine once, a client that
// has failed to log in (or has already logged in) must be discarded.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateUnauthenticated {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot login from state %s", ErrSessionState, state)
	}
	c.mu.Unlock()

	loginError := func(err error) error {
		c.setState(StateLoginFailed)
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	token, err := c.csrfToken(ctx)
	if err != nil {
		return loginError(err)
	}
	c.setState(StateTokenExtracted)

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":               c.opts.Credentials.Username,
			"password":            c.opts.Credentials.Password,
			"csrfmiddlewaretoken": token,
		}).
		Post(c.opts.LoginUrl)
	c.setState(StateCredentialsSubmitted)
	if err != nil {
		err = fmt.Errorf("%w: POST %s: %w", ErrNetwork, c.opts.LoginUrl, err)
		c.tel.ReportBroken(report_client_login, err)
		return loginError(err)
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: POST %s: %s", ErrHttpStatus, c.opts.LoginUrl, res.Status())
		c.tel.ReportBroken(report_client_login, err)
		return loginError(err)
	}

	res, err = c.get(ctx, c.opts.RedirectUrl)
	if err != nil {
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("redirect request: %w", err),
		)
		return loginError(err)
	}
	resolved := finalUrl(res)
	if resolved != c.opts.RedirectUrl {
		err = fmt.Errorf("%w: expected '%s' got '%s'", ErrRedirectMismatch, c.opts.RedirectUrl, resolved)
		c.tel.ReportWarning(report_client_login, err)
		return loginError(err)
	}

	c.setState(StateAuthenticated)
	c.tel.ReportDebug(report_client_login, "authenticated", c.opts.Credentials.Username)
	return nil
}
