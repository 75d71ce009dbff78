package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenormalize_RemovesSyntheticKey(t *testing.T) {
	inputs := []map[string]interface{}{
		{},
		{"name": "Priya", "auto_close_trades_loss_percent": 40.0},
		{
			"personal_details": map[string]interface{}{"name": "Ravi"},
			"config":           map[string]interface{}{"auto_close_trades_loss_percent": 15.0},
			"mcx_futures":      map[string]interface{}{},
		},
	}

	for _, raw := range inputs {
		payload := Denormalize(Normalize(raw))

		cfg, ok := payload[SectionConfig].(map[string]interface{})
		require.True(t, ok)
		_, present := cfg["autoCloseTrades"]
		assert.False(t, present, "autoCloseTrades must never reach the backend")
	}
}

func TestDenormalize_AutoCloseFalseForcesZeroPercent(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"auto_close_trades_loss_percent": 40.0,
	})
	cfg := rec[SectionConfig].(map[string]interface{})
	require.Equal(t, true, cfg["autoCloseTrades"])

	// Operator unchecks the flag without touching the percent field
	cfg["autoCloseTrades"] = false

	payload := Denormalize(rec)
	out := payload[SectionConfig].(map[string]interface{})
	assert.Equal(t, 0.0, out["auto_close_trades_loss_percent"])
}

func TestDenormalize_AutoCloseTruePreservesPercent(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"auto_close_trades_loss_percent": 40.0,
	})

	payload := Denormalize(rec)
	out := payload[SectionConfig].(map[string]interface{})
	assert.Equal(t, 40.0, out["auto_close_trades_loss_percent"])
}

func TestDenormalize_WritesSuffixedAliases(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"options_config": map[string]interface{}{
			"max_size_all_equity": 250.0,
			"max_size_all_mcx":    80.0,
		},
		"equity_futures": map[string]interface{}{
			"max_size_all": 500.0,
		},
	})

	payload := Denormalize(rec)

	options := payload[SectionOptions].(map[string]interface{})
	assert.Equal(t, 250.0, options["max_size_all_equity_options"])
	assert.Equal(t, 80.0, options["max_size_all_mcx_options"])

	equity := payload[SectionEquityFutures].(map[string]interface{})
	assert.Equal(t, 500.0, equity["max_size_all_equity"])
}

func TestDenormalize_LiftsOtherFields(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"other": map[string]interface{}{
			"notes":                "priority client",
			"broker":               "BRK_7",
			"select_user":          "ops-2",
			"transaction_password": "s3cret",
		},
	})

	payload := Denormalize(rec)

	assert.Equal(t, "priority client", payload["notes"])
	assert.Equal(t, "BRK_7", payload["broker"])
	assert.Equal(t, "ops-2", payload["select_user"])
	assert.Equal(t, "s3cret", payload["transaction_password"])

	_, present := payload[SectionOther]
	assert.False(t, present, "other section must not be nested in the payload")
}

func TestDenormalize_DoesNotMutateLiveRecord(t *testing.T) {
	rec := Normalize(map[string]interface{}{
		"auto_close_trades_loss_percent": 40.0,
		"other": map[string]interface{}{
			"notes": "keep me",
		},
	})

	payload := Denormalize(rec)

	// The form's record is still fully canonical and editable
	cfg := rec[SectionConfig].(map[string]interface{})
	assert.Equal(t, true, cfg["autoCloseTrades"])
	assert.Equal(t, 40.0, cfg["auto_close_trades_loss_percent"])
	other := rec[SectionOther].(map[string]interface{})
	assert.Equal(t, "keep me", other["notes"])

	// And mutating the payload cannot reach back into the record
	payload[SectionConfig].(map[string]interface{})["auto_close_trades_loss_percent"] = 7.0
	assert.Equal(t, 40.0, cfg["auto_close_trades_loss_percent"])
}
