package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

/*
Supabase wraps the Storage REST calls needed to remove stored document files.

Notes on authorization:
- With a legacy service_role JWT, send both `apikey` and `Authorization: Bearer <token>`.
- A Secret API Key (sb_secret_...) that is NOT a JWT may not need the Authorization header.
*/
type Supabase struct {
	baseURL string // e.g. https://<project>.supabase.co
	apiKey  string // service_role JWT or secret API key
	bucket  string
	client  *http.Client
}

func NewSupabase(baseURL, apiKey, bucket string) (*Supabase, error) {
	if baseURL == "" || bucket == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_BUCKET required for supabase driver")
	}
	return &Supabase{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Key maps a stored file URL to its object key. Public and signed object URLs
// look like <base>/storage/v1/object/{public|sign}/<bucket>/<key>; anything
// else is taken as a bare key.
func (s *Supabase) Key(fileURL string) string {
	p := fileURL
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		p = u.Path
	}
	marker := "/" + s.bucket + "/"
	if i := strings.Index(p, marker); i >= 0 {
		return p[i+len(marker):]
	}
	return strings.TrimPrefix(p, "/")
}

func (s *Supabase) authorize(req *http.Request) {
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
}

// Delete removes an object:
// DELETE /storage/v1/object/{bucket}/{objectName}
// This is idempotent: 404 is treated as success (already deleted).
func (s *Supabase) Delete(ctx context.Context, fileURL string) error {
	key := s.Key(fileURL)
	if key == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	s.authorize(req)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase delete error: %s | %s", res.Status, string(b))
	}
	return nil
}

// DeleteMany removes multiple objects in one call:
// POST /storage/v1/object/{bucket}/remove  body: {"prefixes": [...]}
func (s *Supabase) DeleteMany(ctx context.Context, fileURLs []string) error {
	keys := make([]string, 0, len(fileURLs))
	for _, u := range fileURLs {
		if k := s.Key(u); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/remove", s.baseURL, s.bucket)
	body, _ := json.Marshal(map[string][]string{"prefixes": keys})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("supabase bulk delete error: %s | %s", res.Status, string(b))
	}
	return nil
}
