package config

import (
	"bytes"
	"embed"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"

	"voicebox-go/errcode"
	"voicebox-go/types"

	"gopkg.in/yaml.v3"
)

// NC marks a line that is not connected.
const NC = -1

//go:embed plans/*.yaml
var embeddedPlans embed.FS

// Plan is the wiring and operating parameters of one board. All pins are GPIO
// numbers; NC (-1) means not connected.
type Plan struct {
	Board   string `yaml:"board"`
	MaxGPIO int    `yaml:"max_gpio"`

	SPI       SPIPlan       `yaml:"spi"`
	Display   DisplayPlan   `yaml:"display"`
	Audio     AudioPlan     `yaml:"audio"`
	Button    ButtonPlan    `yaml:"button"`
	Lamp      LampPlan      `yaml:"lamp"`
	Indicator IndicatorPlan `yaml:"indicator"`
}

type SPIPlan struct {
	Host string `yaml:"host"`
	MOSI int    `yaml:"mosi"`
	SCLK int    `yaml:"sclk"`
}

type DisplayPlan struct {
	CS        int    `yaml:"cs"`
	DC        int    `yaml:"dc"`
	Reset     int    `yaml:"reset"`
	Backlight int    `yaml:"backlight"`
	SPIMode   uint8  `yaml:"spi_mode"`
	ClockHz   uint32 `yaml:"clock_hz"`
	BGR       bool   `yaml:"bgr"`

	types.Geometry `yaml:",inline"`
}

type AudioPlan struct {
	InputRate  uint32      `yaml:"input_rate"`
	OutputRate uint32      `yaml:"output_rate"`
	Speaker    SpeakerPins `yaml:"speaker"`
	Mic        MicPins     `yaml:"mic"`
}

type SpeakerPins struct {
	BCLK int `yaml:"bclk"`
	WS   int `yaml:"ws"`
	DOUT int `yaml:"dout"`
}

type MicPins struct {
	SCK int `yaml:"sck"`
	WS  int `yaml:"ws"`
	DIN int `yaml:"din"`
}

type ButtonPlan struct {
	Name       string `yaml:"name"`
	Pin        int    `yaml:"pin"`
	ActiveLow  bool   `yaml:"active_low"`
	DebounceMs int    `yaml:"debounce_ms"`
}

type LampPlan struct {
	Pin int `yaml:"pin"`
}

type IndicatorPlan struct {
	Pin int `yaml:"pin"`
}

// blank returns a plan with every optional line marked not connected, so
// omitted keys never alias GPIO0.
func blank() Plan {
	return Plan{
		Display:   DisplayPlan{Reset: NC, Backlight: NC},
		Lamp:      LampPlan{Pin: NC},
		Indicator: IndicatorPlan{Pin: NC},
	}
}

// Boards lists the embedded plan names.
func Boards() []string {
	ents, _ := embeddedPlans.ReadDir("plans")
	out := make([]string, 0, len(ents))
	for _, e := range ents {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Lookup returns the validated embedded plan for a board.
func Lookup(board string) (Plan, error) {
	raw, err := embeddedPlans.ReadFile("plans/" + board + ".yaml")
	if err != nil {
		return Plan{}, &errcode.E{C: errcode.InvalidPlan, Op: "config.lookup", Msg: "no embedded plan for board " + board}
	}
	return ParseOver(blank(), raw)
}

// Parse decodes a standalone plan document.
func Parse(data []byte) (Plan, error) { return ParseOver(blank(), data) }

// ParseOver decodes data on top of base; keys absent from data keep the base
// value and unknown keys are rejected. The result is validated.
func ParseOver(base Plan, data []byte) (Plan, error) {
	p := base
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Plan{}, errcode.Wrap(errcode.InvalidPlan, "config.parse", err)
	}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks ranges and that no pin is assigned to two peripherals. The
// indicator is exempt: boards may route it onto a pin another peripheral
// owns, in which case it is reported absent at runtime.
func (p Plan) Validate() error {
	bad := func(msg string) error {
		return &errcode.E{C: errcode.InvalidPlan, Op: "config.validate", Msg: msg}
	}
	if p.Board == "" {
		return bad("board name is empty")
	}
	if p.MaxGPIO <= 0 {
		return bad("max_gpio must be positive")
	}
	if p.Display.Width <= 0 || p.Display.Height <= 0 {
		return bad("display geometry must be positive")
	}
	if p.Audio.InputRate == 0 || p.Audio.OutputRate == 0 {
		return bad("audio sample rates must be positive")
	}

	required := []struct {
		name string
		pin  int
	}{
		{"spi.mosi", p.SPI.MOSI},
		{"spi.sclk", p.SPI.SCLK},
		{"display.dc", p.Display.DC},
		{"button.pin", p.Button.Pin},
	}
	for _, r := range required {
		if r.pin == NC {
			return bad(r.name + " must be connected")
		}
	}

	owners := map[int]string{}
	for _, a := range p.assignments() {
		if a.pin == NC {
			continue
		}
		if a.pin < NC || a.pin > p.MaxGPIO {
			return bad(a.name + " pin " + strconv.Itoa(a.pin) + " out of range")
		}
		if prev, dup := owners[a.pin]; dup {
			return bad(a.name + " shares pin " + strconv.Itoa(a.pin) + " with " + prev)
		}
		owners[a.pin] = a.name
	}
	if p.Indicator.Pin < NC || p.Indicator.Pin > p.MaxGPIO {
		return bad("indicator pin out of range")
	}
	return nil
}

// AudioPins lists the six I2S lines, speaker first. They are claimed only
// when the codec is first requested.
func (a AudioPlan) AudioPins() []int {
	return []int{a.Speaker.BCLK, a.Speaker.WS, a.Speaker.DOUT, a.Mic.SCK, a.Mic.WS, a.Mic.DIN}
}

type assignment struct {
	name string
	pin  int
}

func (p Plan) assignments() []assignment {
	return []assignment{
		{"spi.mosi", p.SPI.MOSI},
		{"spi.sclk", p.SPI.SCLK},
		{"display.cs", p.Display.CS},
		{"display.dc", p.Display.DC},
		{"display.reset", p.Display.Reset},
		{"display.backlight", p.Display.Backlight},
		{"audio.speaker.bclk", p.Audio.Speaker.BCLK},
		{"audio.speaker.ws", p.Audio.Speaker.WS},
		{"audio.speaker.dout", p.Audio.Speaker.DOUT},
		{"audio.mic.sck", p.Audio.Mic.SCK},
		{"audio.mic.ws", p.Audio.Mic.WS},
		{"audio.mic.din", p.Audio.Mic.DIN},
		{"button.pin", p.Button.Pin},
		{"lamp.pin", p.Lamp.Pin},
	}
}
