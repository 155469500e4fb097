package model

// DisplayDirective is a custom app payload for an AWTRIX matrix display.
// Unset fields are left out of the encoding.
type DisplayDirective struct {
	Text       string  `json:"text"`
	TextCase   *int    `json:"textCase,omitempty"`
	TopText    *bool   `json:"topText,omitempty"`
	TextOffset *int    `json:"textOffset,omitempty"`
	Center     *bool   `json:"center,omitempty"`
	Color      *string `json:"color,omitempty"`
	Gradient   *string `json:"gradient,omitempty"`
	BlinkText  *int    `json:"blinkText,omitempty"`
	FadeText   *int    `json:"fadeText,omitempty"`
	Background *string `json:"background,omitempty"`
	Rainbow    *bool   `json:"rainbow,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	PushIcon   *int    `json:"pushIcon,omitempty"`
	Repeat     *int    `json:"repeat,omitempty"`
	Duration   *int    `json:"duration,omitempty"` // seconds
	LifeTime   *int    `json:"lifeTime,omitempty"` // seconds until the app is removed
}

type displayDirective DisplayDirective

func (d *DisplayDirective) UnmarshalJSON(data []byte) error {
	var wire struct {
		Text *string `json:"text"`
		displayDirective
	}
	if err := StrictUnmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Text == nil {
		return missingField("text")
	}
	*d = DisplayDirective(wire.displayDirective)
	d.Text = *wire.Text
	return nil
}
