package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ListingConfig tunes read paths and notification reference ids.
// It is hot-reloaded from listing.yml.
type ListingConfig struct {
	Notifications NotificationListing `mapstructure:"notifications"`
	Registry      RegistryListing     `mapstructure:"registry"`
}

type NotificationListing struct {
	PageSize  int                  `mapstructure:"pageSize"`
	UTCOffset string               `mapstructure:"utcOffset"`
	Subtypes  NotificationSubtypes `mapstructure:"subtypes"`
}

type NotificationSubtypes struct {
	Energy        int64 `mapstructure:"energy"`
	Water         int64 `mapstructure:"water"`
	MachineHealth int64 `mapstructure:"machineHealth"`
}

type RegistryListing struct {
	DefaultPage  int `mapstructure:"defaultPage"`
	DefaultLimit int `mapstructure:"defaultLimit"`
	MaxLimit     int `mapstructure:"maxLimit"`
}

func DefaultListingConfig() ListingConfig {
	return ListingConfig{
		Notifications: NotificationListing{
			PageSize:  10,
			UTCOffset: "-03:00",
			Subtypes: NotificationSubtypes{
				Energy:        3,
				Water:         4,
				MachineHealth: 5,
			},
		},
		Registry: RegistryListing{
			DefaultPage:  1,
			DefaultLimit: 10,
			MaxLimit:     250,
		},
	}
}

// Location returns the fixed zone used to expand date-only filters.
func (n NotificationListing) Location() *time.Location {
	offset, err := parseUTCOffset(n.UTCOffset)
	if err != nil {
		return time.UTC
	}
	return time.FixedZone(n.UTCOffset, offset)
}

type ListingConfigHolder struct {
	current atomic.Value // holds ListingConfig
}

func NewListingConfigHolder() (*ListingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("listing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/mainservice")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MAINSERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setListingDefaults(v, DefaultListingConfig())

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg ListingConfig
	if err := v.UnmarshalKey("listing", &cfg); err != nil {
		return nil, err
	}
	if err := validateListingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticListingConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ListingConfig
		if err := v.UnmarshalKey("listing", &updated); err != nil {
			log.Printf("[listing-config] reload failed: %v", err)
			return
		}
		if err := validateListingConfig(updated); err != nil {
			log.Printf("[listing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[listing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticListingConfigHolder wraps a fixed config without file watching.
func NewStaticListingConfigHolder(cfg ListingConfig) *ListingConfigHolder {
	holder := &ListingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *ListingConfigHolder) Get() ListingConfig {
	if h == nil {
		return DefaultListingConfig()
	}
	cfg, ok := h.current.Load().(ListingConfig)
	if !ok {
		return DefaultListingConfig()
	}
	return cfg
}

func setListingDefaults(v *viper.Viper, d ListingConfig) {
	v.SetDefault("listing.notifications.pageSize", d.Notifications.PageSize)
	v.SetDefault("listing.notifications.utcOffset", d.Notifications.UTCOffset)
	v.SetDefault("listing.notifications.subtypes.energy", d.Notifications.Subtypes.Energy)
	v.SetDefault("listing.notifications.subtypes.water", d.Notifications.Subtypes.Water)
	v.SetDefault("listing.notifications.subtypes.machineHealth", d.Notifications.Subtypes.MachineHealth)
	v.SetDefault("listing.registry.defaultPage", d.Registry.DefaultPage)
	v.SetDefault("listing.registry.defaultLimit", d.Registry.DefaultLimit)
	v.SetDefault("listing.registry.maxLimit", d.Registry.MaxLimit)
}

func validateListingConfig(cfg ListingConfig) error {
	if cfg.Notifications.PageSize <= 0 {
		return errors.New("listing.notifications.pageSize must be positive")
	}
	if _, err := parseUTCOffset(cfg.Notifications.UTCOffset); err != nil {
		return fmt.Errorf("listing.notifications.utcOffset: %w", err)
	}
	s := cfg.Notifications.Subtypes
	if s.Energy <= 0 || s.Water <= 0 || s.MachineHealth <= 0 {
		return errors.New("listing.notifications.subtypes must be positive")
	}
	if cfg.Registry.DefaultPage <= 0 || cfg.Registry.DefaultLimit <= 0 {
		return errors.New("listing.registry defaults must be positive")
	}
	if cfg.Registry.MaxLimit < cfg.Registry.DefaultLimit {
		return errors.New("listing.registry.maxLimit cannot be lower than defaultLimit")
	}
	return nil
}

// parseUTCOffset turns "+hh:mm" / "-hh:mm" into seconds east of UTC.
func parseUTCOffset(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 6 || (raw[0] != '+' && raw[0] != '-') || raw[3] != ':' {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	hours, err := strconv.Atoi(raw[1:3])
	if err != nil || hours > 14 {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	minutes, err := strconv.Atoi(raw[4:6])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("invalid offset %q", raw)
	}
	seconds := hours*3600 + minutes*60
	if raw[0] == '-' {
		seconds = -seconds
	}
	return seconds, nil
}
