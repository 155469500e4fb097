package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumption_Unmarshal(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    Consumption
		wantErr error
	}{
		"positive":      {input: `{"consumption":950}`, want: Consumption{Watts: 950}},
		"negative":      {input: `{"consumption":-1200}`, want: Consumption{Watts: -1200}},
		"zero":          {input: `{"consumption":0}`, want: Consumption{}},
		"missing field": {input: `{}`, wantErr: ErrMissingField},
		"null":          {input: `null`, wantErr: ErrNullPayload},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var got Consumption
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsumption_RejectsWrongShape(t *testing.T) {
	for name, input := range map[string]string{
		"float":         `{"consumption":1.5}`,
		"string":        `{"consumption":"950"}`,
		"unknown field": `{"consumption":1,"total":2}`,
		"price payload": `{"total":0.31,"level":"Cheap"}`,
		"array":         `[950]`,
	} {
		t.Run(name, func(t *testing.T) {
			var got Consumption
			assert.Error(t, json.Unmarshal([]byte(input), &got))
			assert.Equal(t, Consumption{}, got)
		})
	}
}

func TestPriceInformation_Unmarshal(t *testing.T) {
	var got PriceInformation
	require.NoError(t, json.Unmarshal([]byte(`{"total":0.2875,"level":"VeryExpensive"}`), &got))
	assert.Equal(t, PriceInformation{Total: 0.2875, Level: PriceLevelVeryExpensive}, got)

	for name, input := range map[string]string{
		"unknown level":  `{"total":0.2,"level":"OTHER"}`,
		"upstream label": `{"total":0.2,"level":"VERY_CHEAP"}`,
		"missing level":  `{"total":0.2}`,
		"missing total":  `{"level":"Cheap"}`,
		"numeric level":  `{"total":0.2,"level":3}`,
		"trailing data":  `{"total":0.2,"level":"Cheap"} {}`,
	} {
		t.Run(name, func(t *testing.T) {
			var p PriceInformation
			assert.Error(t, json.Unmarshal([]byte(input), &p))
		})
	}
}

func TestPriceInformation_Validate(t *testing.T) {
	assert.NoError(t, PriceInformation{Total: 0.1, Level: PriceLevelNone}.Validate())
	assert.ErrorIs(t, PriceInformation{Total: math.NaN(), Level: PriceLevelCheap}.Validate(), ErrNotFinite)
	assert.ErrorIs(t, PriceInformation{Total: math.Inf(1), Level: PriceLevelCheap}.Validate(), ErrNotFinite)
	assert.ErrorIs(t, PriceInformation{Total: 0.1, Level: "Free"}.Validate(), ErrUnknownPriceLevel)
}

func TestParsePriceLevel(t *testing.T) {
	for _, l := range PriceLevels {
		got, err := ParsePriceLevel(l.String())
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParsePriceLevel("Other")
	assert.ErrorIs(t, err, ErrUnknownPriceLevel)
}

func TestDisplayDirective_SparseEncoding(t *testing.T) {
	d := DisplayDirective{Text: "1.2", Duration: lo.ToPtr(5)}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"1.2","duration":5}`, string(data))
	assert.NotContains(t, string(data), "null")
}

func TestDisplayDirective_RoundTrip(t *testing.T) {
	d := DisplayDirective{
		Text:     "0.31",
		Icon:     lo.ToPtr("54231"),
		Color:    lo.ToPtr("#66FF00"),
		Duration: lo.ToPtr(2),
		LifeTime: lo.ToPtr(3720),
		Rainbow:  lo.ToPtr(false),
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lifeTime":3720`)

	var got DisplayDirective
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, d, got)
}

func TestDisplayDirective_RequiresText(t *testing.T) {
	var got DisplayDirective
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"icon":"1"}`), &got), ErrMissingField)
	assert.Error(t, json.Unmarshal([]byte(`{"text":"a","colour":"#fff"}`), &got))
}
