package crm

import (
	"context"
	"fmt"
	"regexp"
)

var csrfTokenRegex = regexp.MustCompile(`(?i)<input[^>]*name="csrfmiddlewaretoken"[^>]*value="([^"]+)"`)

// ExtractCsrfToken finds the value of the hidden csrfmiddlewaretoken input in `body`.
func ExtractCsrfToken(body string) (string, error) {
	groups := csrfTokenRegex.FindStringSubmatch(body)
	if len(groups) < 2 {
		return "", ErrTokenNotFound
	}
	return groups[1], nil
}

func (c *Client) csrfToken(ctx context.Context) (string, error) {
	res, err := c.get(ctx, c.opts.LoginUrl)
	if err != nil {
		c.tel.ReportBroken(
			report_client_csrf_token,
			fmt.Errorf("login page request: %w", err),
		)
		return "", err
	}
	token, err := ExtractCsrfToken(res.String())
	if err != nil {
		c.tel.ReportBroken(
			report_client_csrf_token,
			err,
			c.opts.LoginUrl,
		)
		return "", err
	}
	return token, nil
}
