package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// IntradayDataPoint represents a single minute's price data
type IntradayDataPoint struct {
	Time     string  `json:"time"`                // Format: "09:31" (HH:MM)
	Price    float64 `json:"price"`               // Closing price for that minute
	Volume   int64   `json:"volume,omitempty"`    // Volume traded in that minute
	AvgPrice float64 `json:"avg_price,omitempty"` // Session average price up to that minute
}

// IntradayData represents the complete intraday data for a stock on a given day
type IntradayData struct {
	Code       string              `json:"code"`                 // e.g., "SH600000"
	Name       string              `json:"name"`                 // e.g., "浦发银行"
	Date       string              `json:"date"`                 // Format: "20251126"
	Market     MarketType          `json:"market,omitempty"`     // 市场类型 (向后兼容)
	Datapoints []IntradayDataPoint `json:"datapoints"`           // Minute-by-minute data
	UpdatedAt  string              `json:"updated_at"`           // Format: "2025-11-26 15:00:00"
	PrevClose  float64             `json:"prev_close,omitempty"` // 昨日收盘价（向后兼容）
}

// ErrNoIntradayData the requested code/date has no file on disk
var ErrNoIntradayData = errors.New("no intraday data")

// IntradayStore reads and writes intraday files under <root>/intraday/<market>/<code>/<date>.json
type IntradayStore struct {
	root string
}

// File locks for thread-safe file operations
var intradayFileLocks sync.Map // map[string]*sync.Mutex

// NewIntradayStore creates a store rooted at dataDir
func NewIntradayStore(dataDir string) *IntradayStore {
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	return &IntradayStore{root: dataDir}
}

// ============================================================================
// 路径与市场识别
// ============================================================================

// getMarketType 根据股票代码识别市场
func getMarketType(code string) MarketType {
	upper := strings.ToUpper(strings.TrimSpace(code))
	switch {
	case strings.HasPrefix(upper, "SH"), strings.HasPrefix(upper, "SZ"), strings.HasPrefix(upper, "BJ"):
		return MarketChina
	case isHKStock(upper):
		return MarketHongKong
	default:
		return MarketUS
	}
}

// isHKStock 判断是否为港股代码（HK前缀或.HK后缀）
func isHKStock(code string) bool {
	upper := strings.ToUpper(code)
	return strings.HasPrefix(upper, "HK") || strings.HasSuffix(upper, ".HK")
}

// getMarketDirectory returns market subdirectory (CN/HK/US) based on stock code
func getMarketDirectory(code string) string {
	return string(getMarketType(code))
}

// filePath returns the market-based path for a stock and date
func (s *IntradayStore) filePath(stockCode, date string) string {
	return filepath.Join(s.root, "intraday", getMarketDirectory(stockCode), stockCode, date+".json")
}

// resolvePath returns file path with backward compatibility fallback
// Priority: new market-based structure (data/intraday/CN/SH600058/20251211.json)
//
//	→ old flat structure (data/intraday/SH600058/20251211.json)
func (s *IntradayStore) resolvePath(stockCode, date string) string {
	newPath := s.filePath(stockCode, date)
	if fileExists(newPath) {
		return newPath
	}
	return filepath.Join(s.root, "intraday", stockCode, date+".json")
}

// ============================================================================
// 读写
// ============================================================================

// Load 读取指定股票与日期的分时数据
// 文件中没有采样点不是错误，返回空的 Datapoints，由图表显示空状态
func (s *IntradayStore) Load(stockCode, date string) (*IntradayData, error) {
	path := s.resolvePath(stockCode, date)

	fileData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNoIntradayData, "%s %s", stockCode, date)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	var data IntradayData
	if err := json.Unmarshal(fileData, &data); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	// 向后兼容：如果 Market 为空，自动识别
	if data.Market == "" {
		data.Market = getMarketType(stockCode)
	}
	if data.Code == "" {
		data.Code = stockCode
	}
	if data.Date == "" {
		data.Date = date
	}

	// 检查格式错误的数据
	for i, dp := range data.Datapoints {
		if dp.Time == "" || !(dp.Price > 0) {
			return nil, errors.Errorf("invalid datapoint at index %d in %s", i, path)
		}
		if dp.Volume < 0 {
			return nil, errors.Errorf("negative volume at index %d in %s", i, path)
		}
	}

	sort.SliceStable(data.Datapoints, func(i, j int) bool {
		return data.Datapoints[i].Time < data.Datapoints[j].Time
	})

	return &data, nil
}

// Save writes IntradayData to the market-based path with thread-safe locking
func (s *IntradayStore) Save(data *IntradayData) error {
	if data.Code == "" || len(data.Date) != 8 {
		return errors.Errorf("invalid intraday data key %q/%q", data.Code, data.Date)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath(data.Code, data.Date)), 0755); err != nil {
		return errors.Wrap(err, "create intraday directory")
	}
	return saveIntradayData(s.filePath(data.Code, data.Date), data)
}

// Merge 将新的采样点合并进已有文件（按时间去重），不存在时创建
func (s *IntradayStore) Merge(code, name, date string, points []IntradayDataPoint, prevClose float64) (*IntradayData, error) {
	existing, err := s.Load(code, date)
	if err != nil {
		if !errors.Is(err, ErrNoIntradayData) {
			return nil, err
		}
		existing = &IntradayData{
			Code:   code,
			Date:   date,
			Market: getMarketType(code),
		}
	}

	if name != "" {
		existing.Name = name
	}
	if prevClose > 0 {
		existing.PrevClose = prevClose
	}
	existing.Datapoints = mergeDatapoints(existing.Datapoints, points)
	existing.UpdatedAt = time.Now().Format("2006-01-02 15:04:05")

	if err := s.Save(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Dates 返回某只股票所有已存储的日期（升序）
func (s *IntradayStore) Dates(stockCode string) []string {
	seen := make(map[string]bool)
	dirs := []string{
		filepath.Join(s.root, "intraday", getMarketDirectory(stockCode), stockCode),
		filepath.Join(s.root, "intraday", stockCode),
	}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			date := strings.TrimSuffix(name, ".json")
			if _, err := time.Parse(dateLayout, date); err == nil {
				seen[date] = true
			}
		}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// saveIntradayData writes IntradayData to JSON file with thread-safe locking
func saveIntradayData(filePath string, data *IntradayData) error {
	lock := getFileLock(filePath)
	lock.Lock()
	defer lock.Unlock()

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal intraday data")
	}

	// Atomic write: write to temp file, then rename
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return errors.Wrapf(err, "write %s", tempPath)
	}

	return os.Rename(tempPath, filePath)
}

// getFileLock returns a mutex for the given file path
func getFileLock(filePath string) *sync.Mutex {
	lock, _ := intradayFileLocks.LoadOrStore(filePath, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// mergeDatapoints combines existing and new datapoints, deduplicating by time
func mergeDatapoints(existing, new []IntradayDataPoint) []IntradayDataPoint {
	dataMap := make(map[string]IntradayDataPoint)

	for _, dp := range existing {
		dataMap[dp.Time] = dp
	}

	// Overlay new datapoints (overwrites duplicates)
	for _, dp := range new {
		dataMap[dp.Time] = dp
	}

	result := make([]IntradayDataPoint, 0, len(dataMap))
	for _, dp := range dataMap {
		result = append(result, dp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time < result[j].Time
	})

	return result
}

// ============================================================================
// 转换为图表采样点
// ============================================================================

// Samples 转换为图表采样点序列；缺少均价的旧文件按成交量加权补齐
func (d *IntradayData) Samples() []Sample {
	samples := make([]Sample, len(d.Datapoints))
	for i, dp := range d.Datapoints {
		samples[i] = Sample{
			Time:     dp.Time,
			Price:    dp.Price,
			Volume:   dp.Volume,
			AvgPrice: dp.AvgPrice,
		}
	}
	if fillAvgPrices(samples) {
		logDebug("log.chart.avgPriceFilled", d.Code, d.Date)
	}
	return samples
}

// Reference 返回昨收价；缺失（为 0）时回退到第一个价格（ok=false）
// 文件中写入了非法的昨收（负数）时原样返回，由图表计算报 InvalidReferenceError
func (d *IntradayData) Reference() (float64, bool) {
	if d.PrevClose != 0 {
		return d.PrevClose, true
	}
	if len(d.Datapoints) > 0 {
		return d.Datapoints[0].Price, false
	}
	return 0, false
}

// fillAvgPrices 为缺少均价的采样点计算累计均价
// 有成交量时按成交量加权，成交量为 0 时按已出现价格的算术平均
// 返回是否做了补齐
func fillAvgPrices(samples []Sample) bool {
	filled := false
	var turnover, sumPrice float64
	var volume int64

	for i := range samples {
		s := &samples[i]
		turnover += s.Price * float64(s.Volume)
		volume += s.Volume
		sumPrice += s.Price

		if s.AvgPrice > 0 {
			continue
		}
		if volume > 0 {
			s.AvgPrice = turnover / float64(volume)
		} else {
			s.AvgPrice = sumPrice / float64(i+1)
		}
		filled = true
	}
	return filled
}

// ============================================================================
// 辅助函数
// ============================================================================

// formatIntradayTime converts "2025-11-26 09:31:00" / "09:31:00" / "9:31" / "0931" to "09:31"
func formatIntradayTime(fullTime string) string {
	t := strings.TrimSpace(fullTime)
	if idx := strings.LastIndex(t, " "); idx >= 0 {
		t = t[idx+1:]
	}

	var hourStr, minStr string
	if parts := strings.Split(t, ":"); len(parts) >= 2 {
		hourStr, minStr = parts[0], parts[1]
	} else if len(t) == 4 {
		hourStr, minStr = t[:2], t[2:]
	} else {
		return ""
	}

	hour, err1 := strconv.Atoi(hourStr)
	minute, err2 := strconv.Atoi(minStr)
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ""
	}
	return time.Date(0, 1, 1, hour, minute, 0, 0, time.UTC).Format(minuteLayout)
}

// fileExists checks if a file path exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
