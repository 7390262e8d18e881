package main

import "time"

// 文件路径常量
const (
	defaultConfigFile = "conf/config.yml"
	defaultDataDir    = "data"
	defaultLogDir     = "logs"
	i18nDir           = "i18n"
	dateLayout        = "20060102"
	minuteLayout      = "15:04"
	refreshInterval   = 5 * time.Second
)

// 环境变量
const (
	envConfigFile = "STOCK_CHART_CONFIG"
	envLanguage   = "STOCK_CHART_LANG"
	envDataDir    = "STOCK_CHART_DATA_DIR"
)

// 语言常量
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// MarketType 市场类型
type MarketType string

const (
	MarketChina    MarketType = "CN"
	MarketHongKong MarketType = "HK"
	MarketUS       MarketType = "US"
)

// 图表视图状态
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewChart
	ViewEmpty
	ViewError
)
