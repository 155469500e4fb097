// Package topics declares every topic used by the energy monitor processes.
package topics

import (
	"github.com/samber/lo"

	"github.com/anicoll/energy-monitor/internal/pkg/model"
	"github.com/anicoll/energy-monitor/internal/pkg/topic"
)

type Set struct {
	// Published by OpenDTU.
	OpenDTUYieldDay topic.Topic[float64]
	OpenDTUPower    topic.Topic[float64]

	PulseConsumption topic.Topic[model.Consumption]
	// TibberConsumption is declared for external producers. Nothing in this
	// module publishes or subscribes to it.
	TibberConsumption topic.Topic[model.Consumption]
	TibberPrice       topic.Topic[model.PriceInformation]

	DisplayYieldDay    topic.Topic[model.DisplayDirective]
	DisplayPower       topic.Topic[model.DisplayDirective]
	DisplayConsumption topic.Topic[model.DisplayDirective]
	DisplayPrice       topic.Topic[model.DisplayDirective]

	Registry *topic.Registry
}

// New builds the topic set and self checks every binding.
func New() (*Set, error) {
	s := &Set{
		OpenDTUYieldDay: topic.New("OpenDTU/ac/yieldday", 1234.0),
		OpenDTUPower:    topic.New("OpenDTU/ac/power", 412.7),

		PulseConsumption:  topic.New("Pulse/consumption", model.Consumption{Watts: -950}),
		TibberConsumption: topic.New("Tibber/consumption", model.Consumption{Watts: 950}),
		TibberPrice: topic.New("Tibber/price_information", model.PriceInformation{
			Total: 0.2875,
			Level: model.PriceLevelNormal,
		}),

		DisplayYieldDay: topic.New("matrixdisplay/custom/yieldday", model.DisplayDirective{Text: "1234", Duration: lo.ToPtr(5)}),
		DisplayPower:    topic.New("matrixdisplay/custom/power", model.DisplayDirective{Text: "413", Icon: lo.ToPtr("37515")}),
		DisplayConsumption: topic.New("matrixdisplay/custom/consumption", model.DisplayDirective{
			Text:     "0.9",
			LifeTime: lo.ToPtr(10),
		}),
		DisplayPrice: topic.New("matrixdisplay/custom/tibberprice", model.DisplayDirective{
			Text:  "0.29",
			Color: lo.ToPtr("#ED872D"),
		}),
		Registry: topic.NewRegistry(),
	}

	if err := s.Registry.Register(
		s.OpenDTUYieldDay,
		s.OpenDTUPower,
		s.PulseConsumption,
		s.TibberConsumption,
		s.TibberPrice,
		s.DisplayYieldDay,
		s.DisplayPower,
		s.DisplayConsumption,
		s.DisplayPrice,
	); err != nil {
		return nil, err
	}
	if err := s.Registry.Check(); err != nil {
		return nil, err
	}
	return s, nil
}
