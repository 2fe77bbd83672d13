package sink

import (
	"fmt"

	"github.com/stationkit/powersdk/config"
	"github.com/stationkit/powersdk/errs"
)

// BuildAll constructs one Sink per entry in cfg.Sinks, resolving
// composite refs to already-built member sinks. cfg is assumed to
// have passed config.Validate, which already rejects unknown refs and
// reference cycles — the cycle guard here is a second, independent
// check rather than trusting that invariant blindly.
func BuildAll(cfg *config.Config) (map[string]Sink, error) {
	built := make(map[string]Sink, len(cfg.Sinks))
	building := make(map[string]bool, len(cfg.Sinks))

	var build func(name string) (Sink, error)
	build = func(name string) (Sink, error) {
		if s, ok := built[name]; ok {
			return s, nil
		}
		if building[name] {
			return nil, errs.NewConfigError(fmt.Sprintf("sink %q participates in a composite reference cycle", name), nil)
		}
		sc, ok := cfg.Sinks[name]
		if !ok {
			return nil, errs.NewConfigError(fmt.Sprintf("sink %q not declared in 'sinks' section", name), nil)
		}
		building[name] = true
		defer delete(building, name)

		var s Sink
		switch sc.Type {
		case "memory":
			s = NewMemorySink(optInt(sc.Opts, "max_len", 0))
		case "jsonl":
			path, ok := sc.Opts["path"].(string)
			if !ok || path == "" {
				return nil, errs.NewConfigError(fmt.Sprintf("sink %q: jsonl sink requires a string 'path' opt", name), nil)
			}
			s = NewJsonlSink(path)
		case "composite":
			members := make([]Sink, 0, len(sc.Refs))
			for _, ref := range sc.Refs {
				member, err := build(ref)
				if err != nil {
					return nil, err
				}
				members = append(members, member)
			}
			s = NewCompositeSink(members...)
		default:
			return nil, errs.NewConfigError(fmt.Sprintf("sink %q: unknown type %q", name, sc.Type), nil)
		}

		built[name] = s
		return s, nil
	}

	for name := range cfg.Sinks {
		if _, err := build(name); err != nil {
			return nil, err
		}
	}
	return built, nil
}

func optInt(opts map[string]interface{}, key string, def int) int {
	raw, ok := opts[key]
	if !ok {
		return def
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}
