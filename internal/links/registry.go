package links

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/pkg/logger"
)

// DefaultCategory labels links that do not name a category.
const DefaultCategory = "Admin Links"

var errNilProvider = errors.New("links: nil provider")

// Link is an admin action offered for a member.
type Link struct {
	ID          string            `json:"id,omitempty"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	Description string            `json:"description,omitempty"`
	Category    string            `json:"-"`
	Weight      int               `json:"weight"`
	GroupWeight int               `json:"-"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Permissions []string          `json:"-"`
	Hidden      bool              `json:"-"`
}

// Group is a labelled set of links.
type Group struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
	Links  []Link `json:"links"`
}

// Viewer is the administrator the links are rendered for.
type Viewer interface {
	HasPermission(permission string) bool
}

// Provider contributes links for a member.
type Provider interface {
	Name() string
	Links(ctx context.Context, member *models.Member, viewer Viewer) ([]Link, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc struct {
	ID string
	Fn func(ctx context.Context, member *models.Member, viewer Viewer) ([]Link, error)
}

// Name implements Provider.
func (p ProviderFunc) Name() string { return p.ID }

// Links implements Provider.
func (p ProviderFunc) Links(ctx context.Context, member *models.Member, viewer Viewer) ([]Link, error) {
	if p.Fn == nil {
		return nil, nil
	}
	return p.Fn(ctx, member, viewer)
}

// Registry composes link providers.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	log       *zap.Logger
}

// NewRegistry constructs a registry seeded with the supplied providers.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{log: logger.WithModule("links")}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a provider. Providers are consulted in registration order.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errNilProvider
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.providers {
		if existing.Name() == p.Name() {
			return fmt.Errorf("links: provider %q already registered", p.Name())
		}
	}
	r.providers = append(r.providers, p)
	return nil
}

// Groups collects links for member as seen by viewer. Hidden links, links the viewer lacks a
// permission for and links missing a title or URL are dropped. The first link claiming an id
// wins. Links are ordered by weight then title and grouped by category.
func (r *Registry) Groups(ctx context.Context, member *models.Member, viewer Viewer) []Group {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.RLock()
	providers := append([]Provider(nil), r.providers...)
	r.mu.RUnlock()

	var collected []Link
	seen := make(map[string]struct{})

	for _, provider := range providers {
		set, err := provider.Links(ctx, member, viewer)
		if err != nil {
			r.log.Warn("link provider failed", zap.String("provider", provider.Name()), zap.Error(err))
			continue
		}
		for _, link := range set {
			if !visible(link, viewer) {
				continue
			}
			link.ID = strings.TrimSpace(link.ID)
			if link.ID != "" {
				if _, dup := seen[link.ID]; dup {
					continue
				}
				seen[link.ID] = struct{}{}
			}
			collected = append(collected, link)
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].Weight != collected[j].Weight {
			return collected[i].Weight < collected[j].Weight
		}
		return strings.ToLower(collected[i].Title) < strings.ToLower(collected[j].Title)
	})

	groups := []Group{}
	index := make(map[string]int)
	for _, link := range collected {
		label := strings.TrimSpace(link.Category)
		if label == "" {
			label = DefaultCategory
		}
		pos, ok := index[label]
		if !ok {
			pos = len(groups)
			index[label] = pos
			groups = append(groups, Group{Label: label, Weight: link.GroupWeight})
		}
		groups[pos].Links = append(groups[pos].Links, link)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Weight != groups[j].Weight {
			return groups[i].Weight < groups[j].Weight
		}
		return strings.ToLower(groups[i].Label) < strings.ToLower(groups[j].Label)
	})
	return groups
}

func visible(link Link, viewer Viewer) bool {
	if link.Hidden {
		return false
	}
	for _, permission := range link.Permissions {
		if viewer == nil || !viewer.HasPermission(permission) {
			return false
		}
	}
	return strings.TrimSpace(link.Title) != "" && strings.TrimSpace(link.URL) != ""
}
