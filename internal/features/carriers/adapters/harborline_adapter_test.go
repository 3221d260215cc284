package adapters

import (
	"encoding/json"
	"testing"

	"shipment-tracker/internal/core/proxy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHarborlineAdapter_mapToDomain_Success verifies mapping of a portal
// response including estimated-vs-actual flags.
func TestHarborlineAdapter_mapToDomain_Success(t *testing.T) {
	jsonContent := `{
		"container": "HLCU7654321",
		"status": "AT_PORT",
		"pol": "Yokohama",
		"pod": "Oakland",
		"position": "Oakland Terminal 3",
		"eta": "2024-03-20 14:00:00",
		"events": [
			{
				"code": "VSL_ARR",
				"label": "Vessel arrived",
				"place": "Oakland",
				"date": "2024-03-18 09:12:00",
				"estimated": false
			},
			{
				"code": "CUSTOMS",
				"label": "Customs clearance",
				"place": "Oakland",
				"date": "2024-03-21 00:00:00",
				"estimated": true
			}
		]
	}`

	var raw harborlineResponse
	require.NoError(t, json.Unmarshal([]byte(jsonContent), &raw))

	adapter := &HarborlineAdapter{logger: zap.NewNop()}
	payload := adapter.mapToDomain(raw)

	assert.Equal(t, "HLCU7654321", payload.ContainerNumber)
	assert.Equal(t, "AT_PORT", payload.ShipmentStatus)
	assert.Equal(t, "Yokohama", payload.Origin)
	assert.Equal(t, "Oakland Terminal 3", payload.CurrentLocation)
	require.Len(t, payload.Events, 2)
	assert.True(t, payload.Events[0].Actual)
	assert.False(t, payload.Events[1].Actual)
	assert.Equal(t, "Vessel arrived", payload.Events[0].Status)
}

// TestHarborlineAdapter_mapToDomain_UnknownCodeFallsBackToCode verifies that
// events without a label use the raw code and unknown codes still map.
func TestHarborlineAdapter_mapToDomain_UnknownCodeFallsBackToCode(t *testing.T) {
	jsonContent := `{
		"container": "HLCU7654321",
		"events": [
			{
				"code": "XB_REWORK",
				"place": "Oakland",
				"date": "2024-03-18 09:12:00",
				"estimated": false
			}
		]
	}`

	var raw harborlineResponse
	require.NoError(t, json.Unmarshal([]byte(jsonContent), &raw))

	adapter := &HarborlineAdapter{logger: zap.NewNop()}
	payload := adapter.mapToDomain(raw)

	require.Len(t, payload.Events, 1)
	assert.Equal(t, "XB_REWORK", payload.Events[0].Status)
}

// TestHarborlineAdapter_SupportsCarrier verifies carrier name routing.
func TestHarborlineAdapter_SupportsCarrier(t *testing.T) {
	adapter := NewHarborlineAdapter("https://portal.harborline.test", proxy.Settings{})

	assert.True(t, adapter.SupportsCarrier("harborline"))
	assert.False(t, adapter.SupportsCarrier("oceanic"))
}
