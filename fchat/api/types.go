package api

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// TicketLifetime is how long a ticket is used before renewing it. The
	// server expires them after 30 minutes.
	TicketLifetime = 29 * time.Minute

	userAgent    = "cogito"
	maxBodyBytes = 1 << 20
)

type (
	// Client talks to the account API for login tickets and character profiles
	Client struct {
		http       *http.Client
		ticketUrl  string
		profileUrl string
		account    string
		password   string
		lifetime   time.Duration
		now        func() time.Time

		mutex  sync.Mutex
		ticket string
		taken  time.Time

		group singleflight.Group
	}

	ticketResponse struct {
		Ticket string `json:"ticket"`
		Error  string `json:"error"`
	}

	profileResponse struct {
		Error string               `json:"error"`
		Info  map[string]infoGroup `json:"info"`
	}

	infoGroup struct {
		Group string     `json:"group"`
		Items []infoItem `json:"items"`
	}

	infoItem struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
)
