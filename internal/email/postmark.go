// Package email sends group invitations through the Postmark HTTP API.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

// Invite is one invitation to join a group.
type Invite struct {
	ToEmail     string
	ToName      string
	GroupName   string
	InviterName string
	SharingCode string
}

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	apiURL      string
	httpClient  *http.Client
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL points the client at a different Postmark endpoint.
func WithAPIURL(u string) Option {
	return func(cl *Client) {
		cl.apiURL = u
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

// JoinLink is the browser link that joins the group with code.
func (c *Client) JoinLink(code string) string {
	return c.baseURL + "/join/" + url.PathEscape(code)
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendInvite emails the group's join link. Without a server token the link
// is logged instead, so local setups work without Postmark.
func (c *Client) SendInvite(ctx context.Context, inv Invite) error {
	link := c.JoinLink(inv.SharingCode)
	if !c.Configured() {
		c.logger.Info("email not configured, invite link logged instead",
			"to", inv.ToEmail, "group", inv.GroupName, "link", link)
		return nil
	}

	inviter := inv.InviterName
	if inviter == "" {
		inviter = "A housemate"
	}
	subject := fmt.Sprintf("You've been added to %s on Choretally", inv.GroupName)
	textBody := fmt.Sprintf("%s added you to %s.\n\nOpen the link below to see the chore list:\n\n%s", inviter, inv.GroupName, link)
	htmlBody := fmt.Sprintf(
		`<p>%s added you to <strong>%s</strong>.</p><p><a href="%s">Open the chore list</a></p>`,
		html.EscapeString(inviter), html.EscapeString(inv.GroupName), html.EscapeString(link),
	)

	to := inv.ToEmail
	if inv.ToName != "" {
		to = fmt.Sprintf("%q <%s>", inv.ToName, inv.ToEmail)
	}

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
