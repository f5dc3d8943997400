// Package pinger keeps the host process warm on platforms that sleep idle
// services. It has no data dependency on the rest of the bot.
package pinger

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Pinger struct {
	url      string
	interval time.Duration
	log      *slog.Logger
	client   *http.Client
}

func New(url string, interval time.Duration, log *slog.Logger) *Pinger {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Pinger{
		url:      url,
		interval: interval,
		log:      log,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Run pings the configured URL on a fixed interval until the context is
// cancelled. Failures are logged and swallowed: a missed ping affects
// nothing but warmth. A no-op when no URL is configured.
func (p *Pinger) Run(ctx context.Context) {
	if p.url == "" {
		p.log.Info("keep-alive disabled, no url configured")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info("keep-alive started", "url", p.url, "interval", p.interval)
	for {
		select {
		case <-ticker.C:
			p.ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pinger) ping(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Debug("keep-alive request build failed", "err", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("keep-alive ping failed", "err", err)
		return
	}
	resp.Body.Close()
}
