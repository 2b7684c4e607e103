package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCategory(t *testing.T) {
	cases := map[string]string{
		"CPT-99213":   "E&M",
		"CPT-70551":   "Imaging",
		"CPT-2100":    "Surgical",
		"CPT-6109":    "Surgical",
		"HCPCS-E0100": "DME",
		"HCPCS-K0105": "DME",
		"RX-01000":    "Other",
		"CPT-80101":   "Other",
		"":            "Other",
	}
	for code, want := range cases {
		assert.Equal(t, want, ServiceCategory(code), "code %q", code)
	}
}

func TestServiceCategoryPrefixOrder(t *testing.T) {
	// CPT-7... is Imaging even though CPT-99 (E&M) shares the CPT prefix
	// space; first matching table entry wins.
	assert.Equal(t, "Imaging", ServiceCategory("CPT-70100"))
}

func TestProcedureCodePools(t *testing.T) {
	for _, cat := range []string{"E&M", "Imaging", "Surgical", "DME", "Pharmacy", "Other"} {
		pool := ProcedureCodePools[cat]
		require.NotEmpty(t, pool, "category %s", cat)
		for _, code := range pool {
			if cat == "Pharmacy" {
				assert.Equal(t, "Other", ServiceCategory(code))
				continue
			}
			assert.Equal(t, cat, ServiceCategory(code), "code %s", code)
		}
	}
}

func TestIsOON(t *testing.T) {
	assert.True(t, Claim{NetworkStatus: NetworkOON}.IsOON())
	assert.False(t, Claim{NetworkStatus: NetworkINN}.IsOON())
}

func TestValidValue(t *testing.T) {
	assert.True(t, ValidValue("Medicare", PayerProducts))
	assert.False(t, ValidValue("medicare", PayerProducts))
	assert.False(t, ValidValue("", PayerProducts))
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, time.July, 1)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-01"`, string(raw))

	var back Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d.Time))
}
