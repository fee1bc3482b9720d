package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RoomInfo is presentation metadata for a room served by the booking service.
type RoomInfo struct {
	ID          int64    `yaml:"id"`
	Description string   `yaml:"description"`
	Floor       string   `yaml:"floor"`
	Capacity    int      `yaml:"capacity"`
	Equipments  []string `yaml:"equipments"`
	Order       int      `yaml:"order"`
	Hidden      bool     `yaml:"hidden"`
}

// RoomsConfig is the root configuration for rooms.yaml.
type RoomsConfig struct {
	Rooms  []RoomInfo `yaml:"rooms"`
	Notice string     `yaml:"notice"`
}

// LoadRoomsConfig loads and validates the rooms catalogue from a YAML file.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}

	sort.SliceStable(cfg.Rooms, func(i, j int) bool { return cfg.Rooms[i].Order < cfg.Rooms[j].Order })
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *RoomsConfig) Validate() error {
	ids := make(map[int64]bool)
	for i, room := range c.Rooms {
		if room.ID <= 0 {
			return fmt.Errorf("room[%d]: id must be positive, got %d", i, room.ID)
		}
		if ids[room.ID] {
			return fmt.Errorf("room[%d]: duplicate id %d", i, room.ID)
		}
		ids[room.ID] = true

		if room.Capacity < 0 {
			return fmt.Errorf("room[%d]: capacity cannot be negative", i)
		}
	}
	return nil
}

// Room returns the metadata of a room, if any.
func (c *RoomsConfig) Room(id int64) (RoomInfo, bool) {
	if c == nil {
		return RoomInfo{}, false
	}
	for _, r := range c.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return RoomInfo{}, false
}

// Rank returns the display position of a room; unknown rooms sort last.
func (c *RoomsConfig) Rank(id int64) int {
	if c != nil {
		for i, r := range c.Rooms {
			if r.ID == id {
				return i
			}
		}
		return len(c.Rooms)
	}
	return 0
}

// String returns a summary of the configuration.
func (c *RoomsConfig) String() string {
	hidden := 0
	for _, r := range c.Rooms {
		if r.Hidden {
			hidden++
		}
	}
	return fmt.Sprintf("RoomsConfig: %d rooms (%d hidden)", len(c.Rooms), hidden)
}
