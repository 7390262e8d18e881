package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// Config 配置文件持久化
// ============================================================================

// defaultMarketsConfig 获取默认的市场配置
func defaultMarketsConfig() MarketsConfig {
	return MarketsConfig{
		China: MarketConfig{
			Timezone: "Asia/Shanghai",
			TradingSessions: []TradingSession{
				{StartTime: "09:30", EndTime: "11:30"},
				{StartTime: "13:00", EndTime: "15:00"},
			},
			Weekdays: []int{1, 2, 3, 4, 5},
		},
		US: MarketConfig{
			Timezone: "America/New_York",
			TradingSessions: []TradingSession{
				{StartTime: "09:30", EndTime: "16:00"},
			},
			Weekdays: []int{1, 2, 3, 4, 5},
		},
		HongKong: MarketConfig{
			Timezone: "Asia/Hong_Kong",
			TradingSessions: []TradingSession{
				{StartTime: "09:30", EndTime: "12:00"},
				{StartTime: "13:00", EndTime: "16:00"},
			},
			Weekdays: []int{1, 2, 3, 4, 5},
		},
	}
}

// defaultVolumeUnits 默认成交量缩写档位
func defaultVolumeUnits(lang Language) VolumeUnits {
	if lang == Chinese {
		return VolumeUnits{Tiers: []VolumeTier{
			{Threshold: 10000, Divisor: 10000, Suffix: "万", Decimals: 1},
			{Threshold: 1000, Divisor: 1000, Suffix: "千", Decimals: 1},
		}}
	}
	return VolumeUnits{Tiers: []VolumeTier{
		{Threshold: 10000, Divisor: 10000, Suffix: "W", Decimals: 1},
		{Threshold: 1000, Divisor: 1000, Suffix: "K", Decimals: 1},
	}}
}

// defaultChartConfig 默认分时图设置
func defaultChartConfig() ChartConfig {
	return ChartConfig{
		EqualEpsilon:        DefaultEqualEpsilon,
		DeviationFloorRatio: DefaultDeviationFloorRatio,
		DomainMargin:        DefaultDomainMargin,
		XSteps:              8,
		YSteps:              5,
		ColorScheme:         "auto",
		VolumeUnits: map[string]VolumeUnits{
			string(Chinese): defaultVolumeUnits(Chinese),
			string(English): defaultVolumeUnits(English),
		},
	}
}

// getDefaultConfig 获取默认配置
func getDefaultConfig() Config {
	return Config{
		System: SystemConfig{
			Language: "en",
			LogLevel: "info",
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
		},
		Chart:   defaultChartConfig(),
		Markets: defaultMarketsConfig(),
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Mode: "release",
		},
	}
}

// configPath 配置文件路径（环境变量优先）
func configPath() string {
	if v := os.Getenv(envConfigFile); v != "" {
		return v
	}
	return defaultConfigFile
}

// loadConfig 加载配置文件
// 文件不存在时写入默认配置；格式错误返回错误
func loadConfig(path string) (Config, error) {
	config := getDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return config, errors.Wrapf(err, "read config %s", path)
		}
		if err := saveConfig(path, config); err != nil {
			logWarnDirect("Failed to write default config %s: %v", path, err)
		}
		applyEnvOverrides(&config)
		return config, nil
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return getDefaultConfig(), errors.Wrapf(err, "parse config %s", path)
	}

	validateConfig(&config)
	applyEnvOverrides(&config)
	return config, nil
}

// validateConfig 验证配置的合理性，非法值回退为默认值
func validateConfig(config *Config) {
	defaults := getDefaultConfig()

	if config.System.Language != string(Chinese) && config.System.Language != string(English) {
		config.System.Language = defaults.System.Language
	}
	if config.System.DataDir == "" {
		config.System.DataDir = defaults.System.DataDir
	}
	if config.System.LogDir == "" {
		config.System.LogDir = defaults.System.LogDir
	}

	chart := &config.Chart
	if chart.EqualEpsilon < 0 {
		chart.EqualEpsilon = DefaultEqualEpsilon
	}
	if chart.DeviationFloorRatio <= 0 {
		chart.DeviationFloorRatio = DefaultDeviationFloorRatio
	}
	if chart.DomainMargin < 1 {
		chart.DomainMargin = DefaultDomainMargin
	}
	if chart.XSteps <= 0 {
		chart.XSteps = defaults.Chart.XSteps
	}
	if chart.YSteps <= 0 {
		chart.YSteps = defaults.Chart.YSteps
	}
	switch chart.ColorScheme {
	case "auto", "red_up", "green_up":
	default:
		chart.ColorScheme = "auto"
	}
	if chart.VolumeUnits == nil {
		chart.VolumeUnits = defaults.Chart.VolumeUnits
	}

	// 如果 Markets 为空，填充默认值（向后兼容）
	if config.Markets.China.Timezone == "" {
		config.Markets = defaults.Markets
		logDebug("log.config.defaultMarkets")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.Host == "" {
		config.Server.Host = defaults.Server.Host
	}
}

// applyEnvOverrides 环境变量覆盖
func applyEnvOverrides(config *Config) {
	if v := os.Getenv(envLanguage); v == string(Chinese) || v == string(English) {
		config.System.Language = v
	}
	if v := os.Getenv(envDataDir); v != "" {
		config.System.DataDir = v
	}
}

// saveConfig 保存配置文件
func saveConfig(path string, config Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	return os.WriteFile(path, data, 0644)
}

// chartOptions 根据配置与语言生成图表构建参数（equal_epsilon 为 0 时严格比较）
func (c Config) chartOptions(lang Language) ChartOptions {
	units, ok := c.Chart.VolumeUnits[string(lang)]
	if !ok || len(units.Tiers) == 0 {
		units = defaultVolumeUnits(lang)
	}

	return ChartOptions{
		EqualEpsilon: c.Chart.EqualEpsilon,
		Domain: DomainOptions{
			DeviationFloorRatio: c.Chart.DeviationFloorRatio,
			Margin:              c.Chart.DomainMargin,
		},
		VolumeUnits: units,
		Labels: TooltipLabels{
			Price:    getTextFor(lang, "tooltip.price"),
			AvgPrice: getTextFor(lang, "tooltip.avgPrice"),
			Volume:   getTextFor(lang, "tooltip.volume"),
		},
	}
}

// colorConvention 根据配置决定配色习惯
func (c Config) colorConvention(code string, lang Language) ColorConvention {
	switch c.Chart.ColorScheme {
	case "red_up":
		return RedUp
	case "green_up":
		return GreenUp
	}
	return conventionFor(code, lang)
}
