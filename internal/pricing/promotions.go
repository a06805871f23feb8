package pricing

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Kind is the type of a promotion's discount.
type Kind string

const (
	KindNone    Kind = "none"
	KindPercent Kind = "percent"
	KindAmount  Kind = "amount"
)

// NoneID is the id of the always-present "no discount" promotion.
const NoneID = "none"

// ErrUnknownPromotion is returned when a quote references a promotion id missing from the catalog.
var ErrUnknownPromotion = errors.New("unknown promotion")

// Promotion is a named, non-persisted discount rule applied at quote time.
type Promotion struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Kind  Kind   `yaml:"kind" json:"type"`
	Value int64  `yaml:"value" json:"value"`
}

// None is the identity promotion.
var None = Promotion{ID: NoneID, Label: "No discount", Kind: KindNone}

// DefaultPromotions is the shop's standard promotion list.
var DefaultPromotions = []Promotion{
	None,
	{ID: "ig_tag", Label: "Instagram post/story (10% off)", Kind: KindPercent, Value: 10},
	{ID: "review", Label: "Photo review (5% off)", Kind: KindPercent, Value: 5},
	{ID: "birthday", Label: "Birthday month (10% off)", Kind: KindPercent, Value: 10},
	{ID: "follow", Label: "Follow the shop (10 off)", Kind: KindAmount, Value: 10},
}

// Validate checks a promotion list.
func Validate(promos []Promotion) error {
	seen := make(map[string]struct{}, len(promos))
	for _, p := range promos {
		if p.ID == "" {
			return fmt.Errorf("promotion with empty id")
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("duplicate promotion id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		switch p.Kind {
		case KindNone, KindPercent, KindAmount:
		default:
			return fmt.Errorf("promotion %q: unknown kind %q", p.ID, p.Kind)
		}
		if p.Value < 0 {
			return fmt.Errorf("promotion %q: negative value", p.ID)
		}
	}
	return nil
}

// Catalog is a concurrency-safe set of promotions plus the tariff used to quote.
// The promotion list can be replaced at runtime.
type Catalog struct {
	mu     sync.RWMutex
	tariff Tariff
	promos map[string]Promotion
	order  []string
}

// NewCatalog creates a catalog. The "none" promotion is always present.
func NewCatalog(tariff Tariff, promos []Promotion) (*Catalog, error) {
	c := &Catalog{tariff: tariff.WithDefaults()}
	if err := c.Replace(promos); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps the promotion list atomically.
func (c *Catalog) Replace(promos []Promotion) error {
	if err := Validate(promos); err != nil {
		return err
	}
	m := make(map[string]Promotion, len(promos)+1)
	order := make([]string, 0, len(promos)+1)
	if !containsID(promos, NoneID) {
		m[NoneID] = None
		order = append(order, NoneID)
	}
	for _, p := range promos {
		m[p.ID] = p
		order = append(order, p.ID)
	}

	c.mu.Lock()
	c.promos = m
	c.order = order
	c.mu.Unlock()
	return nil
}

// Tariff returns the catalog's tariff.
func (c *Catalog) Tariff() Tariff {
	return c.tariff
}

// Lookup returns the promotion by id. An empty id means "none".
func (c *Catalog) Lookup(id string) (Promotion, bool) {
	if id == "" {
		id = NoneID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.promos[id]
	return p, ok
}

// List returns promotions in configuration order.
func (c *Catalog) List() []Promotion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Promotion, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.promos[id])
	}
	return out
}

// IDs returns the sorted promotion ids.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	ids := append([]string(nil), c.order...)
	c.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Quote prices [start, end) with the named promotion.
func (c *Catalog) Quote(start, end time.Time, promoID string) (int64, error) {
	p, ok := c.Lookup(promoID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPromotion, promoID)
	}
	return c.tariff.Quote(start, end, p), nil
}

func containsID(promos []Promotion, id string) bool {
	for _, p := range promos {
		if p.ID == id {
			return true
		}
	}
	return false
}
