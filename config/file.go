package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// fileConfig is the TOML schema. Durations are written in milliseconds so
// files stay plain numbers.
type fileConfig struct {
	Data             []string `toml:"data"`
	Direction        string   `toml:"direction"`
	Step             float64  `toml:"step"`
	StepWaitMS       int64    `toml:"step_wait_ms"`
	DelayMS          int64    `toml:"delay_ms"`
	MinCountToScroll *int     `toml:"min_count_to_scroll"`
	Rows             int      `toml:"rows"`
	Cols             int      `toml:"cols"`
	HoverStop        *bool    `toml:"hover_stop"`
	WheelEnable      *bool    `toml:"wheel_enable"`
	FrameIntervalUS  int64    `toml:"frame_interval_us"`
}

// LoadFile overlays a TOML file onto the default configuration. Unset keys
// keep their defaults; the merged result is validated.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes TOML bytes over the defaults.
func Parse(raw []byte) (Config, error) {
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg := Default()
	if fc.Data != nil {
		cfg.Data = fc.Data
	}
	if fc.Direction != "" {
		cfg.Direction = direction.Direction(fc.Direction)
	}
	if fc.Step > 0 {
		cfg.Step = fc.Step
	}
	if fc.StepWaitMS > 0 {
		cfg.StepWait = time.Duration(fc.StepWaitMS) * time.Millisecond
	}
	if fc.DelayMS > 0 {
		cfg.Delay = time.Duration(fc.DelayMS) * time.Millisecond
	}
	if fc.MinCountToScroll != nil {
		cfg.MinCountToScroll = *fc.MinCountToScroll
	}
	if fc.Rows > 0 {
		cfg.Rows = fc.Rows
	}
	if fc.Cols > 0 {
		cfg.Cols = fc.Cols
	}
	if fc.HoverStop != nil {
		cfg.HoverStop = *fc.HoverStop
	}
	if fc.WheelEnable != nil {
		cfg.WheelEnable = *fc.WheelEnable
	}
	if fc.FrameIntervalUS > 0 {
		cfg.FrameInterval = time.Duration(fc.FrameIntervalUS) * time.Microsecond
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
