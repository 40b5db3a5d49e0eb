package config

import (
	"time"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	Timezone string `mapstructure:"timezone"` // IANA name; schedule times are local to it
}

// BucketConfig describes one rate-limit bucket: capacity tokens, refilled
// at refill tokens per interval.
type BucketConfig struct {
	Capacity int     `mapstructure:"capacity"`
	Refill   float64 `mapstructure:"refill"`
	Interval string  `mapstructure:"interval"` // duration string, e.g. "1m", "15m"
}

// PerSecond converts the bucket's refill to tokens per second.
func (b BucketConfig) PerSecond() float64 {
	d, err := time.ParseDuration(b.Interval)
	if err != nil || d <= 0 {
		d = time.Minute
	}
	return b.Refill / d.Seconds()
}

// RateLimitsConfig groups the per-endpoint buckets.
type RateLimitsConfig struct {
	Reddit       BucketConfig `mapstructure:"reddit"`
	TwitterAPI   BucketConfig `mapstructure:"twitter_api"`
	TwitterMedia BucketConfig `mapstructure:"twitter_media"`
}

// TwitterConfig holds the publish-target credentials and the fallback
// identity for the emergency retweet.
type TwitterConfig struct {
	APIKey          string `mapstructure:"api_key"`
	APISecret       string `mapstructure:"api_secret"`
	AccessToken     string `mapstructure:"access_token"`
	AccessSecret    string `mapstructure:"access_secret"`
	FallbackAccount string `mapstructure:"fallback_account"`
}

// TelegramConfig holds the alert channel settings.
type TelegramConfig struct {
	BotToken    string `mapstructure:"bot_token"`
	AdminChatID int64  `mapstructure:"admin_chat_id"`
}

// MediaConfig controls image download and normalization.
type MediaConfig struct {
	DownloadDir string `mapstructure:"download_dir"`
}

// Config is the top-level configuration structure.
type Config struct {
	App          AppConfig        `mapstructure:"app"`
	RateLimits   RateLimitsConfig `mapstructure:"rate_limits"`
	Twitter      TwitterConfig    `mapstructure:"twitter"`
	Telegram     TelegramConfig   `mapstructure:"telegram"`
	Media        MediaConfig      `mapstructure:"media"`
	ScheduleFile string           `mapstructure:"schedule_file"`
	Sources      []ScheduleEntry  `mapstructure:"sources"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "Asia/Kolkata"
	}
	if c.RateLimits.Reddit.Capacity == 0 {
		c.RateLimits.Reddit = BucketConfig{Capacity: 60, Refill: 60, Interval: "1m"}
	}
	if c.RateLimits.TwitterAPI.Capacity == 0 {
		c.RateLimits.TwitterAPI = BucketConfig{Capacity: 300, Refill: 300, Interval: "15m"}
	}
	if c.RateLimits.TwitterMedia.Capacity == 0 {
		c.RateLimits.TwitterMedia = BucketConfig{Capacity: 50, Refill: 50, Interval: "15m"}
	}
	if c.Twitter.FallbackAccount == "" {
		c.Twitter.FallbackAccount = "striver_79"
	}
	if c.Media.DownloadDir == "" {
		c.Media.DownloadDir = "downloads"
	}
}

// Location resolves the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}
