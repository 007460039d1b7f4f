package service

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pagefreeze/snap"
)

// SiteProfile overrides capture options for one host. Unset fields keep the
// service defaults.
type SiteProfile struct {
	RemoveScripts        *bool `json:"remove_scripts,omitempty"`
	RemoveOriginalStyles *bool `json:"remove_original_styles,omitempty"`
	UseRelay             *bool `json:"use_relay,omitempty"`
	AddPolicy            *bool `json:"add_policy,omitempty"`
}

// Apply overlays the profile onto base options.
func (p *SiteProfile) Apply(base snap.Options) snap.Options {
	if p == nil {
		return base
	}
	if p.RemoveScripts != nil {
		base.RemoveScripts = *p.RemoveScripts
	}
	if p.RemoveOriginalStyles != nil {
		base.RemoveOriginalStyles = *p.RemoveOriginalStyles
	}
	if p.UseRelay != nil {
		base.UseRelay = *p.UseRelay
	}
	if p.AddPolicy != nil {
		base.AddPolicy = *p.AddPolicy
	}
	return base
}

// siteProfileStore lazily loads per-host profile files named <host>.json,
// walking up the host's label suffixes so "www.example.com" also matches an
// "example.com" profile.
type siteProfileStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*SiteProfile
}

func newSiteProfileStore(dir string) *siteProfileStore {
	return &siteProfileStore{
		dir:   dir,
		cache: make(map[string]*SiteProfile),
	}
}

func (s *siteProfileStore) Find(target string) *SiteProfile {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil
	}
	host := u.Hostname()
	s.mu.RLock()
	if p, ok := s.cache[host]; ok {
		s.mu.RUnlock()
		return p
	}
	s.mu.RUnlock()

	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		candidate := strings.Join(labels[i:], ".")
		if p := s.load(candidate); p != nil {
			s.mu.Lock()
			s.cache[host] = p
			s.mu.Unlock()
			return p
		}
	}
	s.mu.Lock()
	s.cache[host] = nil
	s.mu.Unlock()
	return nil
}

func (s *siteProfileStore) load(host string) *SiteProfile {
	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, host+".json"))
	if err != nil {
		return nil
	}
	var p SiteProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}
