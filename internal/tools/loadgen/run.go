package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/bearer-auth-api/internal/observability"
)

type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
	Client      *http.Client
}

type Result struct {
	TotalRequests int64
	Failures      int64
	Status2xx     int64
	Status4xx     int64
	Status5xx     int64
	Journeys      int64
}

type counters struct {
	total, failures, s2xx, s4xx, s5xx, journeys atomic.Int64
}

func (c *counters) result() Result {
	return Result{
		TotalRequests: c.total.Load(),
		Failures:      c.failures.Load(),
		Status2xx:     c.s2xx.Load(),
		Status4xx:     c.s4xx.Load(),
		Status5xx:     c.s5xx.Load(),
		Journeys:      c.journeys.Load(),
	}
}

// journey is one scripted sequence of calls made by a single simulated client.
type journey func(ctx context.Context, c *client, id string) error

// Run paces journeys at RPS across Concurrency workers until Duration elapses.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 15
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	journeys := journeysForProfile(cfg.Profile)
	if len(journeys) == 0 {
		return Result{}, fmt.Errorf("unknown profile: %s", cfg.Profile)
	}
	profile := strings.ToLower(cfg.Profile)
	if profile == "" {
		profile = "mixed"
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	stats := &counters{}
	c := &client{base: strings.TrimRight(cfg.BaseURL, "/"), http: httpClient, stats: stats, profile: profile}
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x9e3779b97f4a7c15))
	runID := fmt.Sprintf("%x", rng.Uint32())

	jobs := make(chan int64, cfg.Concurrency*2)
	g, gctx := errgroup.WithContext(ctx)
	for range cfg.Concurrency {
		g.Go(func() error {
			for n := range jobs {
				j := journeys[n%int64(len(journeys))]
				if err := j(gctx, c, fmt.Sprintf("%s-%d", runID, n)); err != nil {
					stats.failures.Add(1)
					continue
				}
				stats.journeys.Add(1)
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	var n int64
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			select {
			case jobs <- n:
				n++
			case <-ctx.Done():
				break loop
			}
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return stats.result(), err
	}
	return stats.result(), nil
}

func journeysForProfile(profile string) []journey {
	switch strings.ToLower(profile) {
	case "", "mixed":
		return []journey{fullJourney, fullJourney, badLoginJourney, anonymousJourney}
	case "auth":
		return []journey{fullJourney}
	case "error-heavy":
		return []journey{badLoginJourney, anonymousJourney, invalidRegisterJourney}
	default:
		return nil
	}
}

// fullJourney registers, logs in again, validates and logs out.
func fullJourney(ctx context.Context, c *client, id string) error {
	email := "loadgen-" + id + "@example.test"
	password := "Loadgen123"
	if _, err := c.call(ctx, http.MethodPost, "/register", "", map[string]string{"name": "Load " + id, "email": email, "password": password}); err != nil {
		return err
	}
	token, err := c.call(ctx, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	if _, err := c.call(ctx, http.MethodGet, "/validate-token", token, nil); err != nil {
		return err
	}
	if _, err := c.call(ctx, http.MethodGet, "/profile", token, nil); err != nil {
		return err
	}
	_, err = c.call(ctx, http.MethodPost, "/logout", token, nil)
	return err
}

func badLoginJourney(ctx context.Context, c *client, id string) error {
	_, err := c.call(ctx, http.MethodPost, "/login", "", map[string]string{"email": "ghost-" + id + "@example.test", "password": "Wrong1234"})
	return err
}

func anonymousJourney(ctx context.Context, c *client, _ string) error {
	_, err := c.call(ctx, http.MethodGet, "/validate-token", "", nil)
	return err
}

func invalidRegisterJourney(ctx context.Context, c *client, _ string) error {
	_, err := c.call(ctx, http.MethodPost, "/register", "", map[string]string{"email": "not-an-email"})
	return err
}

type client struct {
	base    string
	http    *http.Client
	stats   *counters
	profile string
}

// call performs one request and returns data.access_token when present.
// Only transport failures are errors; HTTP statuses are tallied.
func (c *client) call(ctx context.Context, method, path, token string, body any) (string, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return "", err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	c.stats.total.Add(1)
	class := "other"
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.stats.s2xx.Add(1)
		class = "2xx"
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		c.stats.s4xx.Add(1)
		class = "4xx"
	case resp.StatusCode >= 500:
		c.stats.s5xx.Add(1)
		class = "5xx"
	}
	observability.RecordLoadgenRequest(ctx, class, c.profile)

	var env struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if json.Unmarshal(raw, &env) == nil {
		return env.Data.AccessToken, nil
	}
	return "", nil
}
