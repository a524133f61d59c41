package crawler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate answers whether a URL may be crawled under the site's
// robots.txt. Fetch and parse failures fail open: the URL is allowed.
type RobotsGate struct {
	client *http.Client
	agent  string
	groups map[string]*robotstxt.RobotsData
}

// NewRobotsGate builds a gate that identifies itself as agent. The gate is
// meant for the sequential crawl loop and is not safe for concurrent use.
func NewRobotsGate(agent string) *RobotsGate {
	return &RobotsGate{
		client: &http.Client{Timeout: 15 * time.Second},
		agent:  agent,
		groups: make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched. Unparseable URLs are
// allowed and left for navigation to reject.
func (g *RobotsGate) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := g.robotsFor(u.Scheme + "://" + u.Host)
	if data == nil {
		return true
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, g.agent)
}

// robotsFor fetches and caches the robots.txt for one origin. Failures are
// cached as nil so an unreachable file is not re-fetched for every link.
func (g *RobotsGate) robotsFor(origin string) *robotstxt.RobotsData {
	if data, ok := g.groups[origin]; ok {
		return data
	}

	resp, err := g.client.Get(origin + "/robots.txt")
	if err != nil {
		g.groups[origin] = nil
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.groups[origin] = nil
		return nil
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.groups[origin] = nil
		return nil
	}
	g.groups[origin] = data
	return data
}
