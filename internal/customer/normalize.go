package customer

import (
	"strconv"
	"strings"
)

// Normalize reconciles a raw customer payload into the canonical Record.
//
// Detection rule: if personal_details, config and mcx_futures are all present
// the record is treated as already canonical and only default filling and
// alias backfilling are applied. Otherwise each section is synthesized by
// probing, in priority order, the nested path, the legacy camelCase nested
// path, the flat top-level field, and finally the template default.
//
// Malformed values never raise an error: a field that fails its type
// expectation falls back to the default so a partially-broken record still
// renders. The input is never mutated.
func Normalize(raw map[string]interface{}) Record {
	rec := defaultRecord()
	if raw == nil {
		return rec
	}

	flatProbe := !isCanonical(raw)

	for _, section := range sectionOrder {
		sources := sectionSources(raw, section)
		target := rec[section].(map[string]interface{})

		for leaf, def := range target {
			if leaf == "autoCloseTrades" {
				continue // derived below
			}

			value, found := probeNested(sources, leaf)
			if !found && flatProbe {
				value, found = probeFlat(raw, section, leaf)
			}
			if found {
				target[leaf] = sanitize(leaf, value, def)
			}
		}
	}

	backfillAliases(rec, raw)

	// Derived flag, computed after every other config field is resolved.
	// The zero-percent case must read as "disabled" in both directions.
	cfg := rec[SectionConfig].(map[string]interface{})
	cfg["autoCloseTrades"] = numberValue(cfg["auto_close_trades_loss_percent"]) > 0

	return rec
}

// isCanonical reports whether the payload already follows the canonical
// nested layout
func isCanonical(raw map[string]interface{}) bool {
	for _, section := range []string{SectionPersonalDetails, SectionConfig, SectionMCXFutures} {
		if _, ok := raw[section]; !ok {
			return false
		}
	}
	return true
}

// sectionSources returns the candidate nested maps for a section in probe
// priority order
func sectionSources(raw map[string]interface{}, section string) []map[string]interface{} {
	var sources []map[string]interface{}
	if m, ok := raw[section].(map[string]interface{}); ok {
		sources = append(sources, m)
	}
	if legacy, ok := legacySectionNames[section]; ok && legacy != section {
		if m, ok := raw[legacy].(map[string]interface{}); ok {
			sources = append(sources, m)
		}
	}
	return sources
}

func probeNested(sources []map[string]interface{}, leaf string) (interface{}, bool) {
	for _, src := range sources {
		if v, ok := src[leaf]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func probeFlat(raw map[string]interface{}, section, leaf string) (interface{}, bool) {
	if v, ok := raw[leaf]; ok && v != nil {
		return v, true
	}
	for _, alias := range flatFieldAliases[section+"."+leaf] {
		if v, ok := raw[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// backfillAliases copies suffix-qualified values from the raw payload onto
// their canonical fields. This runs unconditionally, even on canonical input,
// because upstream systems populate either spelling. A canonical value still
// sitting at its template default is considered stale and loses to a present
// legacy value.
func backfillAliases(rec Record, raw map[string]interface{}) {
	defaults := defaultRecord()

	for _, pair := range fieldAliases {
		sources := sectionSources(raw, pair.section)
		legacyValue, found := probeNested(sources, pair.legacy)
		if !found {
			continue
		}

		target := rec[pair.section].(map[string]interface{})
		def := defaults[pair.section].(map[string]interface{})[pair.canonical]

		current, ok := target[pair.canonical]
		if !ok || current == nil || current == def {
			target[pair.canonical] = sanitize(pair.canonical, legacyValue, def)
		}
	}
}

// sanitize coerces a probed value to the type of its template default,
// falling back to the default on any mismatch. Numeric limits must be
// non-negative and *_percent fields stay within [0,100].
func sanitize(leaf string, value, def interface{}) interface{} {
	switch def.(type) {
	case string:
		if s, ok := value.(string); ok {
			return s
		}
		return def
	case bool:
		return boolOrDefault(value, def.(bool))
	case float64:
		n, ok := asNumber(value)
		if !ok || n < 0 {
			return def
		}
		if strings.HasSuffix(leaf, "_percent") && n > 100 {
			return 100.0
		}
		return n
	case map[string]interface{}:
		if m, ok := value.(map[string]interface{}); ok {
			return copyMap(m)
		}
		return map[string]interface{}{}
	default:
		return def
	}
}

func boolOrDefault(value interface{}, def bool) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	case float64:
		return v != 0
	}
	return def
}

// asNumber accepts the numeric shapes JSON decoding and loose backends
// produce
func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func numberValue(value interface{}) float64 {
	n, _ := asNumber(value)
	return n
}

// copyMap returns a deep copy of a JSON-like map
func copyMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		switch val := v.(type) {
		case map[string]interface{}:
			dst[k] = copyMap(val)
		case []interface{}:
			items := make([]interface{}, len(val))
			for i, item := range val {
				if m, ok := item.(map[string]interface{}); ok {
					items[i] = copyMap(m)
				} else {
					items[i] = item
				}
			}
			dst[k] = items
		default:
			dst[k] = v
		}
	}
	return dst
}
