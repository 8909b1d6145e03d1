// Package api is the HTTP client for login tickets and character profiles.
package api

import (
	"cogito/logger"
	"cogito/settings"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrTicket  = errors.New("ticket request failed")
	ErrProfile = errors.New("profile request failed")
)

func New(config settings.Fchat, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		http:       httpClient,
		ticketUrl:  config.TicketUrl,
		profileUrl: config.ProfileUrl,
		account:    config.Account,
		password:   config.Password,
		lifetime:   TicketLifetime,
		now:        time.Now,
	}
}

// Ticket returns a valid login ticket, requesting a new one when the cached
// ticket is missing or older than the ticket lifetime.
func (c *Client) Ticket(ctx context.Context) (string, error) {
	c.mutex.Lock()
	if c.ticket != "" && c.now().Sub(c.taken) < c.lifetime {
		ticket := c.ticket
		c.mutex.Unlock()
		return ticket, nil
	}
	c.mutex.Unlock()
	return c.Refresh(ctx)
}

// Refresh requests a new ticket unconditionally. Concurrent callers share
// one request.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do("ticket", func() (interface{}, error) {
		return c.requestTicket(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate forgets the cached ticket so the next call requests a new one
func (c *Client) Invalidate() {
	c.mutex.Lock()
	c.ticket = ""
	c.mutex.Unlock()
}

// TicketAge reports how long ago the cached ticket was taken
func (c *Client) TicketAge() time.Duration {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.ticket == "" {
		return 0
	}
	return c.now().Sub(c.taken)
}

// RunRefresher renews the ticket shortly before it expires until ctx is
// cancelled. Each renewal is scheduled with up to a minute of jitter.
func (c *Client) RunRefresher(ctx context.Context) error {
	log := logger.Service("ticket")
	for {
		wait := c.lifetime - c.TicketAge() - time.Duration(rand.Int63n(int64(time.Minute)))
		if wait < time.Second {
			wait = time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := c.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("Ticket renewal failed", "error", err)
			continue
		}
		log.Debug("Ticket renewed")
	}
}

func (c *Client) requestTicket(ctx context.Context) (string, error) {
	form := url.Values{
		"account":       {c.account},
		"password":      {c.password},
		"no_characters": {"true"},
		"no_friends":    {"true"},
		"no_bookmarks":  {"true"},
	}

	var response ticketResponse
	if err := c.post(ctx, c.ticketUrl, form, &response); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTicket, err)
	}
	if response.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrTicket, response.Error)
	}
	if response.Ticket == "" {
		return "", fmt.Errorf("%w: empty ticket", ErrTicket)
	}

	c.mutex.Lock()
	c.ticket = response.Ticket
	c.taken = c.now()
	c.mutex.Unlock()

	logger.Info("Refreshed login ticket", "account", c.account)
	return response.Ticket, nil
}

// FetchProfile returns the profile fields of a character with lower-cased
// keys. Concurrent fetches for the same name share one request.
func (c *Client) FetchProfile(ctx context.Context, name string) (map[string]string, error) {
	v, err, shared := c.group.Do("profile:"+strings.ToLower(name), func() (interface{}, error) {
		return c.requestProfile(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Shared profile fetch", "user", name)
	}

	profile := v.(map[string]string)
	copied := make(map[string]string, len(profile))
	for k, value := range profile {
		copied[k] = value
	}
	return copied, nil
}

func (c *Client) requestProfile(ctx context.Context, name string) (map[string]string, error) {
	ticket, err := c.Ticket(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"name":    {name},
		"account": {c.account},
		"ticket":  {ticket},
	}
	var response profileResponse
	if err := c.post(ctx, c.profileUrl, form, &response); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfile, name, err)
	}
	if response.Error != "" {
		if strings.Contains(strings.ToLower(response.Error), "ticket") {
			c.Invalidate()
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrProfile, name, response.Error)
	}

	profile := map[string]string{}
	for _, group := range response.Info {
		for _, item := range group.Items {
			profile[strings.ToLower(item.Name)] = html.UnescapeString(item.Value)
		}
	}
	return profile, nil
}

func (c *Client) post(ctx context.Context, target string, form url.Values, response interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("received status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(response); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}
