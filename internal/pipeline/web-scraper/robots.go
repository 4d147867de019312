// internal/pipeline/web-scraper/robots.go
package webscraper

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	commonhttp "web-research-agent/internal/common/http"
)

const maxRobotsBytes = 512 * 1024

// robotsRules is the parsed policy for one host, restricted to the groups
// that apply to our user agent.
type robotsRules struct {
	disallow []string
}

func (r *robotsRules) allows(path string) bool {
	if path == "" {
		path = "/"
	}
	for _, prefix := range r.disallow {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

// robotsCache fetches and caches robots.txt per host. Concurrent lookups for
// the same host collapse into a single fetch. Fetch failures permit crawling;
// only an explicit disallow blocks.
type robotsCache struct {
	client    *commonhttp.Client
	userAgent string

	mu    sync.RWMutex
	rules map[string]*robotsRules
	group singleflight.Group
}

func newRobotsCache(client *commonhttp.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		rules:     make(map[string]*robotsRules),
	}
}

func (c *robotsCache) Allowed(ctx context.Context, pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	c.mu.RLock()
	rules, ok := c.rules[parsed.Host]
	c.mu.RUnlock()

	if !ok {
		fetched, _, _ := c.group.Do(parsed.Host, func() (interface{}, error) {
			r := c.fetch(ctx, parsed.Scheme, parsed.Host)
			c.mu.Lock()
			c.rules[parsed.Host] = r
			c.mu.Unlock()
			return r, nil
		})
		rules = fetched.(*robotsRules)
	}

	return rules.allows(parsed.Path)
}

func (c *robotsCache) fetch(ctx context.Context, scheme, host string) *robotsRules {
	if scheme == "" {
		scheme = "https"
	}
	req, err := http.NewRequest(http.MethodGet, scheme+"://"+host+"/robots.txt", nil)
	if err != nil {
		return &robotsRules{}
	}

	resp, err := c.client.DoWithContext(ctx, req)
	if err != nil {
		return &robotsRules{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &robotsRules{}
	}
	return parseRobots(io.LimitReader(resp.Body, maxRobotsBytes), c.userAgent)
}

// parseRobots keeps Disallow prefixes from groups addressed to us, either
// the wildcard agent or a token our user agent contains.
func parseRobots(r io.Reader, userAgent string) *robotsRules {
	rules := &robotsRules{}
	agentLower := strings.ToLower(userAgent)

	applies := false
	inAgentBlock := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			agent := strings.ToLower(value)
			if !inAgentBlock {
				applies = false
			}
			inAgentBlock = true
			if agent == "*" || strings.Contains(agentLower, agent) {
				applies = true
			}
		case "disallow":
			inAgentBlock = false
			if applies && value != "" {
				rules.disallow = append(rules.disallow, value)
			}
		default:
			inAgentBlock = false
		}
	}
	return rules
}
