package topic

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/energy-monitor/internal/pkg/apperr"
	"github.com/anicoll/energy-monitor/internal/pkg/model"
)

var (
	consumptionTopic = New("Pulse/consumption", model.Consumption{Watts: 950})
	priceTopic       = New("Tibber/price_information", model.PriceInformation{Total: 0.31, Level: model.PriceLevelCheap})
	powerTopic       = New("OpenDTU/ac/power", 412.5)
	displayTopic     = New("matrixdisplay/custom/power", model.DisplayDirective{Text: "412"})
)

func TestTopic_RoundTrip(t *testing.T) {
	t.Run("consumption", func(t *testing.T) {
		for _, w := range []int{0, 950, -3000, math.MaxInt32, math.MinInt32} {
			data, err := consumptionTopic.Encode(model.Consumption{Watts: w})
			require.NoError(t, err)
			got, err := consumptionTopic.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, model.Consumption{Watts: w}, got)
		}
	})
	t.Run("price", func(t *testing.T) {
		for _, level := range model.PriceLevels {
			for _, total := range []float64{0, 0.2875, -0.01, 1234.56789} {
				in := model.PriceInformation{Total: total, Level: level}
				data, err := priceTopic.Encode(in)
				require.NoError(t, err)
				got, err := priceTopic.Decode(data)
				require.NoError(t, err)
				assert.Equal(t, in, got)
			}
		}
	})
	t.Run("float", func(t *testing.T) {
		data, err := powerTopic.Encode(1.25)
		require.NoError(t, err)
		got, err := powerTopic.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, 1.25, got)
	})
	t.Run("display", func(t *testing.T) {
		in := model.DisplayDirective{Text: "0.9", Icon: lo.ToPtr("55888"), Duration: lo.ToPtr(5), LifeTime: lo.ToPtr(10)}
		data, err := displayTopic.Encode(in)
		require.NoError(t, err)
		got, err := displayTopic.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})
}

func TestTopic_Encode_ConsumptionWire(t *testing.T) {
	data, err := consumptionTopic.Encode(model.Consumption{Watts: 950})
	require.NoError(t, err)
	assert.JSONEq(t, `{"consumption":950}`, string(data))
}

func TestTopic_Encode_RejectsInvalid(t *testing.T) {
	_, err := priceTopic.Encode(model.PriceInformation{Total: math.NaN(), Level: model.PriceLevelCheap})
	assert.ErrorIs(t, err, model.ErrNotFinite)
}

func TestTopic_Decode_WrongShape(t *testing.T) {
	tests := map[string]struct {
		decode func([]byte) error
		input  string
	}{
		"price on consumption topic": {
			decode: func(b []byte) error { _, err := consumptionTopic.Decode(b); return err },
			input:  `{"total":0.2,"level":"Cheap"}`,
		},
		"consumption on price topic": {
			decode: func(b []byte) error { _, err := priceTopic.Decode(b); return err },
			input:  `{"consumption":1}`,
		},
		"object on float topic": {
			decode: func(b []byte) error { _, err := powerTopic.Decode(b); return err },
			input:  `{"consumption":1}`,
		},
		"null on float topic": {
			decode: func(b []byte) error { _, err := powerTopic.Decode(b); return err },
			input:  `null`,
		},
		"garbage": {
			decode: func(b []byte) error { _, err := priceTopic.Decode(b); return err },
			input:  `\x00\x01`,
		},
		"empty": {
			decode: func(b []byte) error { _, err := displayTopic.Decode(b); return err },
			input:  ``,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.decode([]byte(tt.input))
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.NotEmpty(t, decodeErr.Topic)
		})
	}
}

func TestTopic_Decode_NoPartialValue(t *testing.T) {
	got, err := priceTopic.Decode([]byte(`{"total":0.5,"level":"Bogus"}`))
	require.Error(t, err)
	assert.Equal(t, model.PriceInformation{}, got)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(consumptionTopic, priceTopic, powerTopic))
	require.NoError(t, r.Check())
	assert.Equal(t, []string{"Pulse/consumption", "Tibber/price_information", "OpenDTU/ac/power"}, r.Names())
	assert.Equal(t, "float64", r.PayloadType("OpenDTU/ac/power").String())
	assert.Nil(t, r.PayloadType("nope"))

	err := r.Register(New("Pulse/consumption", 1.0))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegistry_Check_ReportsInvalidSample(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(New("bad", model.PriceInformation{Total: math.Inf(-1), Level: model.PriceLevelNone})))
	assert.ErrorIs(t, r.Check(), model.ErrNotFinite)
}

func TestDispatcher(t *testing.T) {
	d := NewDispatcher()
	var got []model.Consumption
	require.NoError(t, Handle(d, consumptionTopic, func(_ context.Context, c model.Consumption) error {
		got = append(got, c)
		return nil
	}))
	require.NoError(t, Handle(d, powerTopic, func(context.Context, float64) error { return nil }))
	assert.ErrorIs(t, Handle(d, consumptionTopic, func(context.Context, model.Consumption) error { return nil }), ErrAlreadyRegistered)

	assert.Equal(t, []string{"OpenDTU/ac/power", "Pulse/consumption"}, d.Topics())

	ctx := context.Background()
	require.NoError(t, d.Dispatch(ctx, "Pulse/consumption", []byte(`{"consumption":42}`)))
	assert.Equal(t, []model.Consumption{{Watts: 42}}, got)

	t.Run("unknown topic is ignored", func(t *testing.T) {
		assert.NoError(t, d.Dispatch(ctx, "some/other/topic", []byte(`garbage`)))
	})

	t.Run("wrong shape is a decode error", func(t *testing.T) {
		err := d.Dispatch(ctx, "Pulse/consumption", []byte(`{"total":1}`))
		assert.Equal(t, apperr.KindDecode, apperr.KindOf(err))
		assert.False(t, apperr.IsFatal(err))
		var decodeErr *DecodeError
		assert.ErrorAs(t, err, &decodeErr)
		assert.Len(t, got, 1)
	})
}

type mockPublisher struct {
	PublishFunc func(topic string, payload []byte) error
}

func (m *mockPublisher) Publish(topic string, payload []byte) error {
	return m.PublishFunc(topic, payload)
}

func TestPublish(t *testing.T) {
	var sentTopic string
	var sentPayload []byte
	p := &mockPublisher{PublishFunc: func(topic string, payload []byte) error {
		sentTopic, sentPayload = topic, payload
		return nil
	}}
	require.NoError(t, Publish(p, consumptionTopic, model.Consumption{Watts: 7}))
	assert.Equal(t, "Pulse/consumption", sentTopic)
	assert.JSONEq(t, `{"consumption":7}`, string(sentPayload))

	p.PublishFunc = func(string, []byte) error { return errors.New("not connected") }
	err := Publish(p, consumptionTopic, model.Consumption{Watts: 7})
	assert.True(t, apperr.IsFatal(err))
	assert.Equal(t, apperr.KindBus, apperr.KindOf(err))
}
