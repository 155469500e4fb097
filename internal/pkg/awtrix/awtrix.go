// Package awtrix turns energy readings into custom app directives for an
// AWTRIX matrix display.
package awtrix

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/energy-monitor/internal/pkg/model"
	"github.com/anicoll/energy-monitor/internal/pkg/topic"
	"github.com/anicoll/energy-monitor/internal/pkg/topics"
)

const (
	iconYieldDay    = "52455"
	iconPower       = "37515"
	iconConsumption = "55888"
	iconPrice       = "54231"

	// consumption is dropped from the display if no update arrives in 10s
	consumptionLifeTime = 10
	// price outlives the hourly update by two minutes
	priceLifeTime = 62 * 60
)

var levelColors = map[model.PriceLevel]string{
	model.PriceLevelVeryCheap:     "#66FF00",
	model.PriceLevelCheap:         "#66FF00",
	model.PriceLevelNormal:        "#ED872D",
	model.PriceLevelExpensive:     "#FF0800",
	model.PriceLevelVeryExpensive: "#FF0800",
	model.PriceLevelNone:          "#FF00FF",
}

// ColorFor returns the text colour for a price level.
func ColorFor(level model.PriceLevel) string {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return levelColors[model.PriceLevelNone]
}

func YieldDay(wh float64) model.DisplayDirective {
	return model.DisplayDirective{
		Text:     fmt.Sprintf("%.0f", wh),
		Icon:     lo.ToPtr(iconYieldDay),
		Duration: lo.ToPtr(5),
	}
}

func Power(watts float64) model.DisplayDirective {
	return model.DisplayDirective{
		Text:     fmt.Sprintf("%.0f", watts),
		Icon:     lo.ToPtr(iconPower),
		Duration: lo.ToPtr(5),
	}
}

// Consumption shows the draw in kW.
func Consumption(c model.Consumption) model.DisplayDirective {
	return model.DisplayDirective{
		Text:     fmt.Sprintf("%.1f", float64(c.Watts)/1000),
		Icon:     lo.ToPtr(iconConsumption),
		Duration: lo.ToPtr(5),
		LifeTime: lo.ToPtr(consumptionLifeTime),
	}
}

func Price(p model.PriceInformation) model.DisplayDirective {
	return model.DisplayDirective{
		Text:     fmt.Sprintf("%.2f", p.Total),
		Icon:     lo.ToPtr(iconPrice),
		Color:    lo.ToPtr(ColorFor(p.Level)),
		Duration: lo.ToPtr(2),
		LifeTime: lo.ToPtr(priceLifeTime),
	}
}

type formatter struct {
	publisher topic.Publisher
	topics    *topics.Set
	logger    *zap.Logger
}

func New(publisher topic.Publisher, set *topics.Set) *formatter {
	return &formatter{
		publisher: publisher,
		topics:    set,
		logger:    zap.L(),
	}
}

// Register routes the four source topics to their display topics.
func (f *formatter) Register(d *topic.Dispatcher) error {
	t := f.topics
	if err := topic.Handle(d, t.OpenDTUYieldDay, func(_ context.Context, wh float64) error {
		f.logger.Info("yield today", zap.Float64("wh", wh))
		return topic.Publish(f.publisher, t.DisplayYieldDay, YieldDay(wh))
	}); err != nil {
		return err
	}
	if err := topic.Handle(d, t.OpenDTUPower, func(_ context.Context, watts float64) error {
		f.logger.Info("current production", zap.Float64("watts", watts))
		return topic.Publish(f.publisher, t.DisplayPower, Power(watts))
	}); err != nil {
		return err
	}
	if err := topic.Handle(d, t.PulseConsumption, func(_ context.Context, c model.Consumption) error {
		f.logger.Info("current consumption", zap.Int("watts", c.Watts))
		return topic.Publish(f.publisher, t.DisplayConsumption, Consumption(c))
	}); err != nil {
		return err
	}
	return topic.Handle(d, t.TibberPrice, func(_ context.Context, p model.PriceInformation) error {
		f.logger.Info("current price", zap.Float64("total", p.Total), zap.String("level", string(p.Level)))
		return topic.Publish(f.publisher, t.DisplayPrice, Price(p))
	})
}
