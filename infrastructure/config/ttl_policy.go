package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSingleTTL     = 600 * time.Second
	DefaultCollectionTTL = 300 * time.Second
)

// TTL is the lifetime of a per-entity entry and of a collection entry.
// A zero field means "inherit".
type TTL struct {
	Single     time.Duration
	Collection time.Duration
}

// TTLSettings is a default plus per-kind overrides keyed by plural name.
type TTLSettings struct {
	Default TTL
	Kinds   map[string]TTL
}

// merge lays o on top of s field by field.
func (s TTLSettings) merge(o TTLSettings) TTLSettings {
	out := TTLSettings{Default: s.Default, Kinds: make(map[string]TTL, len(s.Kinds)+len(o.Kinds))}
	if o.Default.Single > 0 {
		out.Default.Single = o.Default.Single
	}
	if o.Default.Collection > 0 {
		out.Default.Collection = o.Default.Collection
	}
	for k, v := range s.Kinds {
		out.Kinds[k] = v
	}
	for k, v := range o.Kinds {
		cur := out.Kinds[k]
		if v.Single > 0 {
			cur.Single = v.Single
		}
		if v.Collection > 0 {
			cur.Collection = v.Collection
		}
		out.Kinds[k] = cur
	}
	return out
}

// TTLPolicy resolves TTLs per kind at call time. It is safe for concurrent
// use and can be swapped at runtime by the policy file watcher.
type TTLPolicy struct {
	mu       sync.RWMutex
	base     TTLSettings
	settings TTLSettings
}

// NewTTLPolicy starts from the built-in defaults overlaid with base.
func NewTTLPolicy(base TTLSettings) *TTLPolicy {
	builtin := TTLSettings{Default: TTL{Single: DefaultSingleTTL, Collection: DefaultCollectionTTL}}
	merged := builtin.merge(base)
	return &TTLPolicy{base: merged, settings: merged}
}

// For returns the TTLs for the kind with the given plural name.
func (p *TTLPolicy) For(plural string) TTL {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ttl := p.settings.Default
	if o, ok := p.settings.Kinds[plural]; ok {
		if o.Single > 0 {
			ttl.Single = o.Single
		}
		if o.Collection > 0 {
			ttl.Collection = o.Collection
		}
	}
	return ttl
}

func (p *TTLPolicy) SingleTTL(plural string) time.Duration {
	return p.For(plural).Single
}

func (p *TTLPolicy) CollectionTTL(plural string) time.Duration {
	return p.For(plural).Collection
}

// Apply replaces the file layer; environment values stay underneath it.
func (p *TTLPolicy) Apply(file TTLSettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = p.base.merge(file)
}

type ttlDoc struct {
	Single     int `yaml:"single"`
	Collection int `yaml:"collection"`
}

type policyDoc struct {
	Defaults ttlDoc            `yaml:"defaults"`
	Kinds    map[string]ttlDoc `yaml:"kinds"`
}

// LoadPolicyFile parses a YAML policy file with TTLs in seconds:
//
//	defaults:
//	  single: 600
//	  collection: 300
//	kinds:
//	  users:
//	    single: 120
func LoadPolicyFile(path string) (TTLSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TTLSettings{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	var doc policyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return TTLSettings{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	toTTL := func(d ttlDoc, where string) (TTL, error) {
		if d.Single < 0 || d.Collection < 0 {
			return TTL{}, fmt.Errorf("negative ttl for %s", where)
		}
		return TTL{Single: time.Duration(d.Single) * time.Second, Collection: time.Duration(d.Collection) * time.Second}, nil
	}

	settings := TTLSettings{Kinds: make(map[string]TTL, len(doc.Kinds))}
	if settings.Default, err = toTTL(doc.Defaults, "defaults"); err != nil {
		return TTLSettings{}, err
	}
	for kind, d := range doc.Kinds {
		ttl, err := toTTL(d, kind)
		if err != nil {
			return TTLSettings{}, err
		}
		settings.Kinds[kind] = ttl
	}
	return settings, nil
}
