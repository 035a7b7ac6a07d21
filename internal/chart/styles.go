package chart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Palette is a named set of colors for a rendered chart.
type Palette struct {
	Name       string
	Background drawing.Color
	Grid       drawing.Color
	Text       drawing.Color
	Up         drawing.Color // rising candle/brick/X
	Down       drawing.Color // falling candle/brick/O
	Edge       drawing.Color // candle body outline and wick
	Volume     drawing.Color
	Line       drawing.Color // primary line series
	Accent     drawing.Color // secondary line series (benchmark, close)
	MA         []drawing.Color
}

// MAColor cycles through the palette's moving-average colors.
func (p Palette) MAColor(i int) drawing.Color {
	if len(p.MA) == 0 {
		return p.Line
	}
	return p.MA[i%len(p.MA)]
}

func hex(s string) drawing.Color { return drawing.ColorFromHex(s) }

func hexes(ss ...string) []drawing.Color {
	out := make([]drawing.Color, len(ss))
	for i, s := range ss {
		out[i] = hex(s)
	}
	return out
}

var palettes = map[string]Palette{
	"default": {
		Background: hex("ffffff"), Grid: hex("e6e6e6"), Text: hex("333333"),
		Up: hex("2ca02c"), Down: hex("d62728"), Edge: hex("555555"),
		Volume: hex("9dbcd4"), Line: hex("1f77b4"), Accent: hex("ff7f0e"),
		MA: hexes("1f77b4", "ff7f0e", "9467bd", "8c564b"),
	},
	"binance": {
		Background: hex("ffffff"), Grid: hex("eaecef"), Text: hex("1e2329"),
		Up: hex("0ecb81"), Down: hex("f6465d"), Edge: hex("474d57"),
		Volume: hex("b7bdc6"), Line: hex("f0b90b"), Accent: hex("1e2329"),
		MA: hexes("f0b90b", "c99400", "8d4fff", "3375bb"),
	},
	"blueskies": {
		Background: hex("f0f7fd"), Grid: hex("cfe3f5"), Text: hex("1b3a57"),
		Up: hex("5b9bd5"), Down: hex("1b3a57"), Edge: hex("1b3a57"),
		Volume: hex("a9cbe8"), Line: hex("2e75b6"), Accent: hex("c55a11"),
		MA: hexes("2e75b6", "c55a11", "70ad47", "7030a0"),
	},
	"brasil": {
		Background: hex("fefefe"), Grid: hex("e0eee0"), Text: hex("002776"),
		Up: hex("009c3b"), Down: hex("002776"), Edge: hex("002776"),
		Volume: hex("ffdf00"), Line: hex("009c3b"), Accent: hex("002776"),
		MA: hexes("ffdf00", "009c3b", "002776", "7f7f7f"),
	},
	"charles": {
		Background: hex("ffffff"), Grid: hex("e5e5e5"), Text: hex("222222"),
		Up: hex("006340"), Down: hex("a02128"), Edge: hex("333333"),
		Volume: hex("21409a"), Line: hex("21409a"), Accent: hex("a02128"),
		MA: hexes("21409a", "e6a91e", "7b1fa2", "00838f"),
	},
	"checkers": {
		Background: hex("ffffff"), Grid: hex("d9d9d9"), Text: hex("000000"),
		Up: hex("000000"), Down: hex("da0000"), Edge: hex("000000"),
		Volume: hex("8c8c8c"), Line: hex("000000"), Accent: hex("da0000"),
		MA: hexes("da0000", "000000", "4d4d4d", "b30000"),
	},
	"classic": {
		Background: hex("ffffff"), Grid: hex("e0e0e0"), Text: hex("000000"),
		Up: hex("ffffff"), Down: hex("000000"), Edge: hex("000000"),
		Volume: hex("7f7f7f"), Line: hex("000000"), Accent: hex("7f7f7f"),
		MA: hexes("0000ff", "ff0000", "008000", "800080"),
	},
	"ibd": {
		Background: hex("ffffff"), Grid: hex("e8e8e8"), Text: hex("1a1a1a"),
		Up: hex("1f4fd9"), Down: hex("e5251d"), Edge: hex("1a1a1a"),
		Volume: hex("1f4fd9"), Line: hex("1f4fd9"), Accent: hex("e5251d"),
		MA: hexes("e5251d", "1a9c3e", "1f4fd9", "7f7f7f"),
	},
	"kenan": {
		Background: hex("fbfbf0"), Grid: hex("e4e4d4"), Text: hex("3b3b3b"),
		Up: hex("00a86b"), Down: hex("d7263d"), Edge: hex("3b3b3b"),
		Volume: hex("c8b88a"), Line: hex("2a6f97"), Accent: hex("d7263d"),
		MA: hexes("2a6f97", "f4a259", "5c946e", "bc4b51"),
	},
	"mike": {
		Background: hex("000000"), Grid: hex("2b2b2b"), Text: hex("e6e6e6"),
		Up: hex("ffffff"), Down: hex("0080ff"), Edge: hex("bfbfbf"),
		Volume: hex("4d4d4d"), Line: hex("ffffff"), Accent: hex("0080ff"),
		MA: hexes("ffff00", "00ffff", "ff00ff", "00ff00"),
	},
	"nightclouds": {
		Background: hex("0a0a23"), Grid: hex("23234a"), Text: hex("d9d9f2"),
		Up: hex("ffffff"), Down: hex("3d85c6"), Edge: hex("9fa8da"),
		Volume: hex("3a3a6a"), Line: hex("ffffff"), Accent: hex("3d85c6"),
		MA: hexes("ffd54f", "4dd0e1", "f06292", "aed581"),
	},
	"sas": {
		Background: hex("fdfdfd"), Grid: hex("e3e3e3"), Text: hex("2b2b2b"),
		Up: hex("2f8f4e"), Down: hex("c62a2a"), Edge: hex("2b2b2b"),
		Volume: hex("7a9ec2"), Line: hex("3366a8"), Accent: hex("c62a2a"),
		MA: hexes("3366a8", "d38a1f", "6a3d9a", "2f8f4e"),
	},
	"starsandstripes": {
		Background: hex("ffffff"), Grid: hex("e3e3ec"), Text: hex("3c3b6e"),
		Up: hex("3c3b6e"), Down: hex("b22234"), Edge: hex("3c3b6e"),
		Volume: hex("8e8dbe"), Line: hex("3c3b6e"), Accent: hex("b22234"),
		MA: hexes("b22234", "3c3b6e", "8e8dbe", "e08e98"),
	},
	"yahoo": {
		Background: hex("ffffff"), Grid: hex("ededed"), Text: hex("232a31"),
		Up: hex("00b060"), Down: hex("fe3032"), Edge: hex("606060"),
		Volume: hex("c6c6c6"), Line: hex("0f69ff"), Accent: hex("fe3032"),
		MA: hexes("0f69ff", "ff8b00", "7e1fff", "00b060"),
	},
}

// LookupPalette returns the named palette. The name is case-insensitive.
func LookupPalette(name string) (Palette, error) {
	p, ok := palettes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Palette{}, fmt.Errorf("%w: unknown style %q (available: %s)",
			ErrInvalidConfig, name, strings.Join(StyleNames(), ", "))
	}
	p.Name = strings.ToLower(strings.TrimSpace(name))
	return p, nil
}

// StyleNames lists the available palettes in alphabetical order.
func StyleNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
