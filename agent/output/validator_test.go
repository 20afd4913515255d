package output

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Transpectra-Logistics-Agent/agent/contract"
)

const threeRoutes = `[
 {"total_cost": 12500.50, "total_time": "2 days", "total_carbon_emission": "120.5 kg", "feature": "Cheapest <rail>",
  "route": [{"from": "Pune", "to": "Mumbai", "distance": 150, "mode": "truck"}, {"from": "Mumbai", "to": "Delhi", "distance": "1400 km", "by": "train"}]},
 {"total_cost": 40000, "total_time": "6 hours", "total_carbon_emission": "300 kg", "feature": "Fastest",
  "route": [{"from": "Pune", "to": "Delhi", "distance": 1200, "mode": "flight"}]},
 {"total_cost": 18000, "total_time": "3 days", "total_carbon_emission": "80 kg", "feature": "Greenest",
  "route": [{"from": "Pune", "to": "Delhi", "distance": 1450, "mode": "train"}]}
]`

func TestValidateAcceptsThreeRoutes(t *testing.T) {
	t.Parallel()

	for name, raw := range map[string]string{
		"bare":         threeRoutes,
		"json fence":   "```json\n" + threeRoutes + "\n```",
		"plain fence":  "```\n" + threeRoutes + "\n```",
		"padded fence": "  \n```JSON" + threeRoutes + "```  ",
	} {
		raw := raw
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := Validate(raw)
			require.NoError(t, err)
			require.Len(t, res.Routes, 3)
			require.Equal(t, Text("12500.50"), res.Routes[0].TotalCost)
			require.Equal(t, Text("train"), res.Routes[0].Route[1].Mode)
			require.Equal(t, Text("1400 km"), res.Routes[0].Route[1].Distance)
			require.Equal(t, Text("Cheapest <rail>"), res.Routes[0].Feature)

			require.Contains(t, res.Canonical, "12500.50")
			require.Contains(t, res.Canonical, "<rail>")
			require.True(t, strings.HasPrefix(res.Canonical, "[\n  {\n    \"total_cost\""))

			again, err := Validate(res.Canonical)
			require.NoError(t, err)
			require.Equal(t, res.Canonical, again.Canonical)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	two := `[{"total_cost":1,"total_time":"a","total_carbon_emission":"b","route":[]},{"total_cost":1,"total_time":"a","total_carbon_emission":"b","route":[]}]`
	missing := `[{"total_cost":1,"total_time":"a","total_carbon_emission":"b","route":[]},{"total_cost":1,"total_carbon_emission":"b","route":[]},{"total_cost":1,"total_time":"a","total_carbon_emission":"b","route":[]}]`

	tests := []struct {
		name  string
		raw   string
		kind  Kind
		index int
		field string
	}{
		{name: "prose", raw: "I could not find any routes.", kind: KindMalformedJSON},
		{name: "object", raw: `{"routes": []}`, kind: KindMalformedJSON},
		{name: "empty array", raw: `[]`, kind: KindWrongCount},
		{name: "two routes", raw: two, kind: KindWrongCount},
		{name: "missing total_time", raw: missing, kind: KindMissingField, index: 1, field: "total_time"},
		{name: "non object element", raw: `[1,2,3]`, kind: KindMalformedJSON},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Validate(tc.raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tc.kind, verr.Kind)
			require.ErrorIs(t, err, contractx.ErrValidation)
			if tc.kind == KindMissingField {
				require.Equal(t, tc.index, verr.Index)
				require.Equal(t, tc.field, verr.Field)
				require.Equal(t, "route 2 missing required field: total_time", verr.Error())
			}
		})
	}
}

func TestFinalizeFallbackShape(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "not json", `[]`, `[{"total_cost":0}]`, "```json\n[1,2]\n```"} {
		out, verr := Finalize(raw)
		require.NotNil(t, verr, raw)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Len(t, decoded, 1)
		opt := decoded[0]
		require.Equal(t, float64(0), opt["total_cost"])
		require.Equal(t, "Error", opt["total_time"])
		require.Equal(t, "Error", opt["total_carbon_emission"])
		require.True(t, strings.HasPrefix(opt["feature"].(string), "JSON parsing failed: "))

		legs := opt["route"].([]any)
		require.Len(t, legs, 1)
		leg := legs[0].(map[string]any)
		for _, k := range []string{"from", "to", "distance", "mode"} {
			require.Equal(t, "Error", leg[k])
		}

		// The fallback decodes as a route answer, just not a valid one.
		_, err := Validate(out)
		var again *ValidationError
		require.True(t, errors.As(err, &again))
		require.Equal(t, KindWrongCount, again.Kind)
	}
}

func TestFinalizePassesValidAnswer(t *testing.T) {
	t.Parallel()

	out, verr := Finalize(threeRoutes)
	require.Nil(t, verr)
	res, err := Validate(threeRoutes)
	require.NoError(t, err)
	require.Equal(t, res.Canonical, out)
}

func TestFallbackIsDeterministic(t *testing.T) {
	t.Parallel()

	err := errors.New("unexpected <end>")
	require.Equal(t, Fallback(err), Fallback(err))
	require.Contains(t, Fallback(err), "unexpected <end>")
}

func TestTextFloat(t *testing.T) {
	t.Parallel()

	f, ok := Text("₹12,500.5").Float()
	require.True(t, ok)
	require.InDelta(t, 12500.5, f, 1e-9)

	_, ok = Text("Error").Float()
	require.False(t, ok)
}
