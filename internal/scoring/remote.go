package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"pubmarket/internal/models"
	"pubmarket/internal/validation"
)

// Remote asks an external analytics API for website signals.
//
// The API receives {"website", "category", "social_links"} and is expected to
// answer with a document shaped like:
//
//	{"website": {"title": "...", "description": "...", "has_analytics": true},
//	 "analysis": {"trust_score": 72},
//	 "social": {"twitter": {"url": "...", "followers": 1200, "verified": false}}}
type Remote struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewRemote creates a remote strategy for the given endpoint.
func NewRemote(endpoint, apiKey string, timeout time.Duration) *Remote {
	return &Remote{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// Analyze implements Strategy.
func (r *Remote) Analyze(ctx context.Context, in Input) (Signals, error) {
	if ok, msg := validation.ValidatePublicWebsite(in.Website); !ok {
		return Signals{}, fmt.Errorf("website not analysable: %s", msg)
	}

	payload, err := json.Marshal(map[string]any{
		"website":      in.Website,
		"category":     in.Category,
		"social_links": in.SocialLinks,
	})
	if err != nil {
		return Signals{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Signals{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pubmarket-analyzer/1.0")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Signals{}, fmt.Errorf("analytics request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Signals{}, fmt.Errorf("reading analytics response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Signals{}, fmt.Errorf("analytics API returned %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return Signals{}, errors.New("analytics API returned invalid JSON")
	}

	return parseRemoteSignals(body), nil
}

func parseRemoteSignals(body []byte) Signals {
	doc := gjson.ParseBytes(body)

	sig := Signals{
		Title:        doc.Get("website.title").String(),
		Description:  doc.Get("website.description").String(),
		TrustScore:   int(doc.Get("analysis.trust_score").Int()),
		HasAnalytics: doc.Get("website.has_analytics").Bool(),
		Source:       models.AnalysisAutomatic,
	}

	doc.Get("social").ForEach(func(platform, v gjson.Result) bool {
		if sig.Social == nil {
			sig.Social = make(map[string]models.SocialProfile)
		}
		sig.Social[platform.String()] = models.SocialProfile{
			URL:         v.Get("url").String(),
			Followers:   v.Get("followers").Int(),
			Subscribers: v.Get("subscribers").Int(),
			Verified:    v.Get("verified").Bool(),
		}
		return true
	})

	doc.Get("errors").ForEach(func(_, v gjson.Result) bool {
		sig.Errors = append(sig.Errors, v.String())
		return true
	})

	return sig
}
