package customer

// Denormalize maps a canonical Record into the shape the backend submission
// endpoints expect. The result is a deep copy: the live form record stays
// untouched so editing can continue if the submission fails.
//
// Three transforms apply:
//   - autoCloseTrades is folded back into auto_close_trades_loss_percent
//     (false forces the percent to 0) and the synthetic key is removed, the
//     backend schema has no such field
//   - every alias pair gains its suffix-qualified spelling alongside the
//     canonical one, the sections that need it were discovered empirically
//   - other.* fields are lifted to top-level payload keys, the backend does
//     not nest them
func Denormalize(rec Record) map[string]interface{} {
	payload := copyMap(rec)

	if cfg, ok := payload[SectionConfig].(map[string]interface{}); ok {
		if autoClose, present := cfg["autoCloseTrades"]; present {
			if enabled, isBool := autoClose.(bool); isBool && !enabled {
				cfg["auto_close_trades_loss_percent"] = 0.0
			}
			delete(cfg, "autoCloseTrades")
		}
	}

	for _, pair := range fieldAliases {
		section, ok := payload[pair.section].(map[string]interface{})
		if !ok {
			continue
		}
		if value, present := section[pair.canonical]; present {
			section[pair.legacy] = value
		}
	}

	if other, ok := payload[SectionOther].(map[string]interface{}); ok {
		for _, field := range liftedOtherFields {
			if value, present := other[field]; present {
				payload[field] = value
			}
		}
		delete(payload, SectionOther)
	}

	return payload
}
