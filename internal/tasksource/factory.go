package tasksource

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/redis"
)

// SourceSpec specifies how to create a task store.
type SourceSpec struct {
	Type   SourceType
	Config map[string]string
}

// String renders the spec back into "type:k=v,..." form with keys sorted.
func (s SourceSpec) String() string {
	keys := make([]string, 0, len(s.Config))
	for k := range s.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "token" {
			parts = append(parts, k+"=***")
			continue
		}
		parts = append(parts, k+"="+s.Config[k])
	}
	return string(s.Type) + ":" + strings.Join(parts, ",")
}

// ParseSourceSpec parses a store specification string.
// Format: "type:param1=value1,param2=value2"
// Examples:
//   - "http:url=https://tasks.example.com,token=abc"
//   - "memory:"
//   - "file:path=tasks.yaml,readonly=true"
//
// A bare type with no colon ("memory") is accepted.
func ParseSourceSpec(spec string) (SourceSpec, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return SourceSpec{}, fmt.Errorf("%w: empty source spec", ErrInvalidConfig)
	}

	parts := strings.SplitN(spec, ":", 2)
	// "http://host" is a URL, not a spec with params.
	if len(parts) == 2 && strings.HasPrefix(parts[1], "//") {
		return SourceSpec{
			Type:   SourceTypeHTTP,
			Config: map[string]string{"url": spec},
		}, nil
	}

	sourceType := SourceType(strings.ToLower(strings.TrimSpace(parts[0])))
	config := make(map[string]string)

	if len(parts) == 2 && parts[1] != "" {
		for _, param := range strings.Split(parts[1], ",") {
			kv := strings.SplitN(param, "=", 2)
			if len(kv) != 2 {
				return SourceSpec{}, fmt.Errorf("%w: invalid parameter format: %s", ErrInvalidConfig, param)
			}
			config[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return SourceSpec{
		Type:   sourceType,
		Config: config,
	}, nil
}

// Options carries settings that apply to every store, usually from config.
type Options struct {
	Token   string
	Timeout time.Duration

	// Cache, when set, wraps the store in a CachedStore.
	Cache    *redis.Client
	CacheTTL time.Duration

	Log *logging.Logger
}

// CreateSource creates a Store from a parsed SourceSpec.
func CreateSource(spec SourceSpec, opts Options) (Store, error) {
	store, err := createBase(spec, opts)
	if err != nil {
		return nil, err
	}
	if opts.Cache != nil {
		ttl := opts.CacheTTL
		if ttl == 0 {
			ttl = redis.DefaultTTL
		}
		return NewCachedStore(store, opts.Cache, ttl, opts.Log), nil
	}
	return store, nil
}

func createBase(spec SourceSpec, opts Options) (Store, error) {
	switch spec.Type {
	case SourceTypeHTTP:
		cfg := HTTPConfig{
			BaseURL: spec.Config["url"],
			Token:   opts.Token,
			Timeout: opts.Timeout,
		}
		if tok := spec.Config["token"]; tok != "" {
			cfg.Token = tok
		}
		if raw := spec.Config["timeout"]; raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid timeout %q", ErrInvalidConfig, raw)
			}
			cfg.Timeout = d
		}
		s, err := NewHTTPStore(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil

	case SourceTypeMemory:
		return NewMemoryStore(nil), nil

	case SourceTypeFile:
		path, ok := spec.Config["path"]
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: file requires 'path' parameter", ErrInvalidConfig)
		}
		readOnly := false
		if raw := spec.Config["readonly"]; raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid readonly value %q", ErrInvalidConfig, raw)
			}
			readOnly = b
		}
		s, err := NewFileStore(path, readOnly)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, spec.Type)
	}
}

// CreateSourceFromString parses spec and creates the store.
func CreateSourceFromString(spec string, opts Options) (Store, error) {
	s, err := ParseSourceSpec(spec)
	if err != nil {
		return nil, err
	}
	return CreateSource(s, opts)
}
