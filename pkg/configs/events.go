package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool                `mapstructure:"enabled"` // 总开关
	Dataset DatasetEventsConfig `mapstructure:"dataset"`
	Image   ImageEventsConfig   `mapstructure:"image"`
}

// DatasetEventsConfig 针对基因数据集领域的事件开关。
type DatasetEventsConfig struct {
	Processed bool `mapstructure:"processed"`
	Deleted   bool `mapstructure:"deleted"`
	Accessed  bool `mapstructure:"accessed"`
}

// ImageEventsConfig 针对作物图片领域的事件开关。
type ImageEventsConfig struct {
	Matched         bool `mapstructure:"matched"`
	MetadataUpdated bool `mapstructure:"metadata_updated"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 数据集领域的事件：默认仅开启最小必要集，避免噪声过大
	v.SetDefault("events.dataset.processed", true)
	v.SetDefault("events.dataset.deleted", true)

	// 可选事件：默认关闭，按需开启
	v.SetDefault("events.dataset.accessed", false) // 访问事件量可能很大，默认关闭
	v.SetDefault("events.image.matched", true)
	v.SetDefault("events.image.metadata_updated", false)
}
