// ABOUTME: JSON-over-HTTP survey record store
// ABOUTME: Authenticates with OAuth2 client credentials when a token URL is configured
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/markahope-aag/hazardos-sub000/config"
	"github.com/markahope-aag/hazardos-sub000/records"
)

type RESTOption func(*restOptions)

type restOptions struct {
	tokenPath string
	base      *http.Client
}

// WithTokenCachePath overrides where access tokens are cached.
func WithTokenCachePath(path string) RESTOption {
	return func(o *restOptions) { o.tokenPath = path }
}

// WithHTTPClient sets the transport used for both token and API calls.
func WithHTTPClient(c *http.Client) RESTOption {
	return func(o *restOptions) { o.base = c }
}

// RESTStore talks to {base}/organizations/{org}/site-surveys.
type RESTStore struct {
	base   string
	client *http.Client
}

func NewRESTStore(ctx context.Context, cfg config.RemoteConfig, opts ...RESTOption) (*RESTStore, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("rest remote needs a base url")
	}
	o := restOptions{tokenPath: TokenPath(), base: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(&o)
	}

	client := o.base
	if cfg.TokenURL != "" && cfg.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, o.base)
		ts := CachedTokenSource(cc.TokenSource(tokenCtx), o.tokenPath)
		client = oauth2.NewClient(tokenCtx, ts)
		client.Timeout = o.base.Timeout
	}

	return &RESTStore{base: strings.TrimRight(cfg.BaseURL, "/"), client: client}, nil
}

func (s *RESTStore) collection(orgID string) string {
	return fmt.Sprintf("%s/organizations/%s/site-surveys", s.base, url.PathEscape(orgID))
}

func (s *RESTStore) item(orgID, id string) string {
	return s.collection(orgID) + "/" + url.PathEscape(id)
}

func (s *RESTStore) do(ctx context.Context, method, target string, body any) (records.SurveyRecord, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return records.SurveyRecord{}, fmt.Errorf("failed to encode record: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return records.SurveyRecord{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("remote request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return records.SurveyRecord{}, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return records.SurveyRecord{}, records.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return records.SurveyRecord{}, ErrConflict
	case resp.StatusCode >= 300:
		return records.SurveyRecord{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(payload)}
	}

	var rec records.SurveyRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return records.SurveyRecord{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

// errorMessage pulls a human readable reason out of an error body.
func errorMessage(body []byte) string {
	var e struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Error != "" {
			return e.Error
		}
	}
	return ""
}

func (s *RESTStore) Create(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	rec.OrganizationID = orgID
	return s.do(ctx, http.MethodPost, s.collection(orgID), rec)
}

func (s *RESTStore) Get(ctx context.Context, orgID, id string) (records.SurveyRecord, error) {
	return s.do(ctx, http.MethodGet, s.item(orgID, id), nil)
}

func (s *RESTStore) Update(ctx context.Context, orgID string, rec records.SurveyRecord) (records.SurveyRecord, error) {
	if rec.ID == "" {
		return records.SurveyRecord{}, records.ErrNotFound
	}
	rec.OrganizationID = orgID
	return s.do(ctx, http.MethodPut, s.item(orgID, rec.ID), rec)
}
