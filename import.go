package main

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// ============================================================================
// CSV 导入：time,price[,volume[,avg_price]]
// ============================================================================

// ImportOptions CSV 导入参数
type ImportOptions struct {
	Code      string
	Name      string
	Date      string
	PrevClose float64
	GBK       bool // 文件为 GBK 编码（国内行情软件导出）
}

// importColumns 表头到列索引的映射
type importColumns struct {
	time, price, volume, avgPrice int
}

// 识别的表头名称（中英文）
var importHeaderNames = map[string][]string{
	"time":      {"time", "时间"},
	"price":     {"price", "close", "价格", "最新价", "收盘"},
	"volume":    {"volume", "vol", "成交量"},
	"avg_price": {"avg_price", "avg", "average", "均价"},
}

// ImportCSVFile 读取 CSV 文件并合并进存储
func ImportCSVFile(store *IntradayStore, path string, opts ImportOptions) (*IntradayData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	logInfo("log.import.start", path, opts.Code, opts.Date)
	return ImportCSV(store, f, opts)
}

// ImportCSV 解析 CSV 并合并进存储
func ImportCSV(store *IntradayStore, r io.Reader, opts ImportOptions) (*IntradayData, error) {
	if opts.Code == "" {
		return nil, errors.New("import requires a stock code")
	}
	if _, err := strconv.Atoi(opts.Date); err != nil || len(opts.Date) != 8 {
		return nil, errors.Errorf("invalid date %q (expected YYYYMMDD)", opts.Date)
	}

	points, err := parseIntradayCSV(r, opts.GBK)
	if err != nil {
		return nil, err
	}

	data, err := store.Merge(strings.ToUpper(opts.Code), opts.Name, opts.Date, points, opts.PrevClose)
	if err != nil {
		return nil, errors.Wrap(err, "store imported data")
	}

	logInfo("log.import.done", data.Code, data.Date, len(points))
	return data, nil
}

// parseIntradayCSV 解析 CSV 内容；无效行跳过并记录日志
func parseIntradayCSV(r io.Reader, gbk bool) ([]IntradayDataPoint, error) {
	if gbk {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.New("csv is empty")
	}

	cols, hasHeader := detectImportColumns(records[0])
	if hasHeader {
		records = records[1:]
	}
	if cols.time < 0 || cols.price < 0 {
		return nil, errors.New("csv header must contain time and price columns")
	}

	points := make([]IntradayDataPoint, 0, len(records))
	for i, record := range records {
		row := i + 1
		if hasHeader {
			row++
		}
		dp, err := parseImportRow(record, cols)
		if err != nil {
			logWarn("log.import.skipRow", row, err)
			continue
		}
		points = append(points, dp)
	}
	return points, nil
}

// detectImportColumns 根据首行识别列；首行不是表头时按 time,price,volume,avg_price 顺序
func detectImportColumns(first []string) (importColumns, bool) {
	cols := importColumns{time: -1, price: -1, volume: -1, avgPrice: -1}
	for i, cell := range first {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")))
		for key, aliases := range importHeaderNames {
			for _, alias := range aliases {
				if name != alias {
					continue
				}
				switch key {
				case "time":
					cols.time = i
				case "price":
					cols.price = i
				case "volume":
					cols.volume = i
				case "avg_price":
					cols.avgPrice = i
				}
			}
		}
	}

	if cols.time >= 0 || cols.price >= 0 {
		return cols, true
	}

	cols = importColumns{time: 0, price: 1, volume: -1, avgPrice: -1}
	if len(first) > 2 {
		cols.volume = 2
	}
	if len(first) > 3 {
		cols.avgPrice = 3
	}
	return cols, false
}

func parseImportRow(record []string, cols importColumns) (IntradayDataPoint, error) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	t := formatIntradayTime(field(cols.time))
	if t == "" {
		return IntradayDataPoint{}, errors.Errorf("invalid time %q", field(cols.time))
	}

	price, err := strconv.ParseFloat(field(cols.price), 64)
	if err != nil || !isFinitePositive(price) {
		return IntradayDataPoint{}, errors.Errorf("invalid price %q", field(cols.price))
	}

	dp := IntradayDataPoint{Time: t, Price: price}

	if v := field(cols.volume); v != "" {
		volume, err := strconv.ParseFloat(v, 64)
		// 成交量必须落在 int64 范围内
		if err != nil || math.IsNaN(volume) || volume < 0 || volume >= math.MaxInt64 {
			return IntradayDataPoint{}, errors.Errorf("invalid volume %q", v)
		}
		dp.Volume = int64(volume)
	}

	if v := field(cols.avgPrice); v != "" {
		avg, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(avg) || math.IsInf(avg, 0) || avg < 0 {
			return IntradayDataPoint{}, errors.Errorf("invalid avg price %q", v)
		}
		dp.AvgPrice = avg
	}

	return dp, nil
}
