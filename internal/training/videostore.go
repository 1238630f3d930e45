package training

import (
	"errors"
	"net/url"
	"strings"
)

// CDNVideoStore resolves storage keys against a CDN or object-store base
// URL. Upload and transcoding happen outside this service; by the time a
// key lands here the asset is already addressable.
type CDNVideoStore struct {
	baseURL string
}

func NewCDNVideoStore(baseURL string) *CDNVideoStore {
	return &CDNVideoStore{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *CDNVideoStore) StreamURL(storageKey string) (string, error) {
	if storageKey == "" {
		return "", errors.New("storage key is empty")
	}
	if s.baseURL == "" {
		return "", errors.New("video store base url is not configured")
	}
	return s.baseURL + "/" + url.PathEscape(storageKey), nil
}
