package customer

// Record is the canonical customer record every console screen depends on,
// independent of which spelling the trading backend happens to return.
// It always carries every section and leaf of the default template, so the
// configuration form can render without per-field existence checks.
type Record map[string]interface{}

// Canonical section names
const (
	SectionPersonalDetails     = "personal_details"
	SectionConfig              = "config"
	SectionMCXFutures          = "mcx_futures"
	SectionEquityFutures       = "equity_futures"
	SectionOptions             = "options_config"
	SectionOptionsShortselling = "options_shortselling_config"
	SectionOther               = "other"
)

// sectionOrder lists every canonical section. Synthesis walks this list so
// the output shape never depends on what the server sent.
var sectionOrder = []string{
	SectionPersonalDetails,
	SectionConfig,
	SectionMCXFutures,
	SectionEquityFutures,
	SectionOptions,
	SectionOptionsShortselling,
	SectionOther,
}

// legacySectionNames maps each canonical section to the camelCase spelling
// some older deployments still return
var legacySectionNames = map[string]string{
	SectionPersonalDetails:     "personalDetails",
	SectionConfig:              "accountConfig",
	SectionMCXFutures:          "mcxFutures",
	SectionEquityFutures:       "equityFutures",
	SectionOptions:             "optionsConfig",
	SectionOptionsShortselling: "optionsShortsellingConfig",
	SectionOther:               "other",
}

// flatFieldAliases lists extra top-level spellings probed for a canonical
// leaf when the record arrives flat, keyed by "section.leaf". The leaf name
// itself is always probed first.
var flatFieldAliases = map[string][]string{
	SectionConfig + ".account_status":         {"status"},
	SectionPersonalDetails + ".initial_funds": {"funds"},
}

// defaultRecord returns a fresh copy of the canonical template. Every leaf a
// renderable record needs is present with its default value.
func defaultRecord() Record {
	return Record{
		SectionPersonalDetails: map[string]interface{}{
			"name":          "",
			"mobile":        "",
			"email":         "",
			"city":          "",
			"initial_funds": 0.0,
		},
		SectionConfig: map[string]interface{}{
			"account_status":                 "active",
			"auto_close_trades_loss_percent": 0.0,
			"autoCloseTrades":                false,
			"brokerage_percent":              0.0,
			"notify_profit_loss":             false,
			"allow_orders_between_high_low":  false,
			"block_upper_lower_circuit":      false,
			"is_demo_account":                false,
		},
		SectionMCXFutures: map[string]interface{}{
			"trade_allowed":          false,
			"max_lot_size_per_trade": 0.0,
			"max_size_all_commodity": 0.0,
			"intraday_margin":        0.0,
			"holding_margin":         0.0,
			"order_points_distance":  map[string]interface{}{},
		},
		SectionEquityFutures: map[string]interface{}{
			"trade_allowed":          false,
			"max_lot_size_per_trade": 0.0,
			"max_size_all":           0.0,
			"intraday_margin":        0.0,
			"holding_margin":         0.0,
			"order_points_distance":  map[string]interface{}{},
		},
		SectionOptions: map[string]interface{}{
			"trade_allowed":                 false,
			"max_size_all_equity":           0.0,
			"max_size_all_mcx":              0.0,
			"max_lot_size_per_trade_equity": 0.0,
			"max_lot_size_per_trade_mcx":    0.0,
			"intraday_margin":               0.0,
			"order_points_distance":         map[string]interface{}{},
		},
		SectionOptionsShortselling: map[string]interface{}{
			"trade_allowed":         false,
			"max_size_all_equity":   0.0,
			"max_size_all_mcx":      0.0,
			"shortselling_margin":   0.0,
			"order_points_distance": map[string]interface{}{},
		},
		SectionOther: map[string]interface{}{
			"notes":                "",
			"broker":               "",
			"select_user":          "",
			"transaction_password": "",
		},
	}
}

// aliasPair ties a canonical field to the suffix-qualified spelling some
// backend deployments use for the same value. The table drives both
// normalization (legacy -> canonical backfill) and denormalization
// (canonical -> legacy copy on submit), keeping the mapping auditable.
type aliasPair struct {
	section   string
	canonical string
	legacy    string
}

var fieldAliases = []aliasPair{
	{SectionOptions, "max_size_all_equity", "max_size_all_equity_options"},
	{SectionOptions, "max_size_all_mcx", "max_size_all_mcx_options"},
	{SectionOptions, "max_lot_size_per_trade_equity", "max_lot_size_per_trade_equity_options"},
	{SectionOptions, "max_lot_size_per_trade_mcx", "max_lot_size_per_trade_mcx_options"},
	{SectionOptionsShortselling, "max_size_all_equity", "max_size_all_equity_options"},
	{SectionOptionsShortselling, "max_size_all_mcx", "max_size_all_mcx_options"},
	{SectionEquityFutures, "max_size_all", "max_size_all_equity"},
	{SectionEquityFutures, "max_lot_size_per_trade", "max_lot_size_per_trade_equity"},
}

// liftedOtherFields are the other.* leaves the backend expects at the top
// level of a submission payload
var liftedOtherFields = []string{"notes", "broker", "select_user", "transaction_password"}
