package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"credit-dashboard/utils"
)

// ErrNoViews means the dashboard advertised nothing to capture.
var ErrNoViews = errors.New("snapshot: dashboard has no views")

// Options controls one capture run.
type Options struct {
	BaseURL        string
	OutputDir      string
	Occupation     string
	AgeMin, AgeMax int
	// Views limits the run to these view names; empty means every view.
	Views          []string
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	PageTimeout    time.Duration
	ChromeBin      string
}

// Capture is one saved screenshot.
type Capture struct {
	View  string `json:"view"`
	URL   string `json:"url"`
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

// Manifest describes a finished run and is written next to the images.
type Manifest struct {
	RunID      string    `json:"run_id"`
	Dir        string    `json:"dir"`
	Occupation string    `json:"occupation"`
	AgeMin     int       `json:"age_min"`
	AgeMax     int       `json:"age_max"`
	CreatedAt  time.Time `json:"created_at"`
	Captures   []Capture `json:"captures"`
	Failed     []string  `json:"failed,omitempty"`
}

// ShootFunc renders url and returns PNG bytes.
type ShootFunc func(ctx context.Context, url string) ([]byte, error)

// Capturer screenshots every dashboard view of a running server.
type Capturer struct {
	opts   Options
	logger *utils.Logger
	client *http.Client
	retry  *utils.RetryConfig
	shoot  ShootFunc

	mu       sync.Mutex
	captures []Capture
}

// New creates a Capturer. A nil shoot uses headless Chrome.
func New(opts Options, logger *utils.Logger, shoot ShootFunc) *Capturer {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	return &Capturer{
		opts:   opts,
		logger: logger,
		client: &http.Client{Timeout: opts.PageTimeout},
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		shoot: shoot,
	}
}

// Run discovers the views, captures each one and writes the manifest.
// Views that fail after retries are listed in Manifest.Failed.
func (c *Capturer) Run(ctx context.Context) (*Manifest, error) {
	opts, err := c.fetchOptions(ctx)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		RunID:      uuid.NewString(),
		Occupation: c.opts.Occupation,
		AgeMin:     c.opts.AgeMin,
		AgeMax:     c.opts.AgeMax,
		CreatedAt:  time.Now().UTC(),
	}
	if m.Occupation == "" && len(opts.Occupations) > 0 {
		m.Occupation = opts.Occupations[0]
	}
	if m.AgeMin == 0 && m.AgeMax == 0 {
		m.AgeMin, m.AgeMax = opts.AgeBounds.Min, opts.AgeBounds.Max
	}

	views := c.selectViews(opts.Views)
	if len(views) == 0 {
		return nil, ErrNoViews
	}

	m.Dir = filepath.Join(c.opts.OutputDir, m.RunID)
	if err := os.MkdirAll(m.Dir, 0755); err != nil {
		return nil, fmt.Errorf("snapshot: create run dir: %w", err)
	}

	shoot := c.shoot
	if shoot == nil {
		browser, closeBrowser := newBrowser(ctx, c.opts.ChromeBin, c.logger)
		defer closeBrowser()
		shoot = browser.shoot(c.opts.PageTimeout)
	}

	c.logger.Info("[snapshot] Run %s: capturing %d views of %s for %q (ages %d-%d)",
		m.RunID, len(views), c.opts.BaseURL, m.Occupation, m.AgeMin, m.AgeMax)

	c.mu.Lock()
	c.captures = nil
	c.mu.Unlock()

	pool := utils.NewWorkerPool(c.opts.MaxConcurrency, c.opts.RateLimitMs)
	for _, view := range views {
		view := view
		target := c.viewURL(view, m)
		pool.Submit(func() error {
			var png []byte
			err := c.retry.Do(ctx, "snapshot-"+view, func() error {
				var err error
				png, err = shoot(ctx, target)
				return err
			})
			if err != nil {
				c.logger.Warn("[snapshot] View %s failed: %v", view, err)
				return fmt.Errorf("%s: %w", view, err)
			}

			file := view + ".png"
			if err := os.WriteFile(filepath.Join(m.Dir, file), png, 0644); err != nil {
				return fmt.Errorf("%s: write: %w", view, err)
			}

			c.mu.Lock()
			c.captures = append(c.captures, Capture{View: view, URL: target, File: file, Bytes: len(png)})
			c.mu.Unlock()
			c.logger.Debug("[snapshot] Saved %s (%d bytes)", file, len(png))
			return nil
		})
	}
	poolErr := pool.Wait()

	m.Captures = c.ordered(views)
	captured := make(map[string]bool, len(m.Captures))
	for _, cp := range m.Captures {
		captured[cp.View] = true
	}
	for _, v := range views {
		if !captured[v] {
			m.Failed = append(m.Failed, v)
		}
	}

	if err := writeManifest(m); err != nil {
		return m, err
	}
	c.logger.Info("[snapshot] Run %s complete: %d captured, %d failed", m.RunID, len(m.Captures), len(m.Failed))

	if len(m.Captures) == 0 {
		return m, fmt.Errorf("snapshot: every view failed: %w", poolErr)
	}
	return m, nil
}

type dashboardOptions struct {
	Occupations []string `json:"occupations"`
	AgeBounds   struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"age_bounds"`
	Views []viewOption `json:"views"`
}

type viewOption struct {
	Name string `json:"name"`
}

func (c *Capturer) fetchOptions(ctx context.Context) (*dashboardOptions, error) {
	endpoint := strings.TrimRight(c.opts.BaseURL, "/") + "/api/options"

	var out struct {
		Data dashboardOptions `json:"data"`
	}
	err := c.retry.Do(ctx, "fetch-options", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: %s", endpoint, resp.Status)
		}
		return json.NewDecoder(resp.Body).Decode(&out)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: dashboard options: %w", err)
	}
	return &out.Data, nil
}

func (c *Capturer) selectViews(available []viewOption) []string {
	known := make(map[string]bool, len(available))
	var all []string
	for _, v := range available {
		known[v.Name] = true
		all = append(all, v.Name)
	}
	if len(c.opts.Views) == 0 {
		return all
	}

	var out []string
	for _, v := range c.opts.Views {
		if known[v] {
			out = append(out, v)
		} else {
			c.logger.Warn("[snapshot] Skipping unknown view %q", v)
		}
	}
	return out
}

func (c *Capturer) viewURL(view string, m *Manifest) string {
	q := url.Values{}
	q.Set("occupation", m.Occupation)
	q.Set("age_min", strconv.Itoa(m.AgeMin))
	q.Set("age_max", strconv.Itoa(m.AgeMax))
	q.Set("view", view)
	return strings.TrimRight(c.opts.BaseURL, "/") + "/?" + q.Encode()
}

// ordered returns the captures in view order.
func (c *Capturer) ordered(views []string) []Capture {
	c.mu.Lock()
	defer c.mu.Unlock()

	byView := make(map[string]Capture, len(c.captures))
	for _, cp := range c.captures {
		byView[cp.View] = cp
	}
	out := make([]Capture, 0, len(byView))
	for _, v := range views {
		if cp, ok := byView[v]; ok {
			out = append(out, cp)
		}
	}
	return out
}

func writeManifest(m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.Dir, "manifest.json"), data, 0644); err != nil {
		return fmt.Errorf("snapshot: write manifest: %w", err)
	}
	return nil
}
