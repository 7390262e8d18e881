package main

import (
	"github.com/pkg/errors"
)

// describeIntradayData 将已加载的分时数据转换为图表描述
// 昨收缺失时回退到第一个价格并记录警告
func describeIntradayData(data *IntradayData, opts ChartOptions) (*ChartDescription, error) {
	samples := data.Samples()
	reference, ok := data.Reference()
	if !ok && len(samples) > 0 {
		logWarn("log.chart.prevCloseMissing", data.Code, data.Date, reference)
	}

	desc, err := DescribeIntraday(samples, reference, opts)
	if err != nil {
		logError("log.chart.invalidReference", data.Code, data.Date, err)
		return nil, err
	}
	return desc, nil
}

// loadChart 读取某只股票某天的分时数据并生成图表描述
func loadChart(store *IntradayStore, config Config, lang Language, code, date string) (*IntradayData, *ChartDescription, error) {
	data, err := store.Load(code, date)
	if err != nil {
		logError("log.chart.loadFail", code, date, err)
		return nil, nil, err
	}

	desc, err := describeIntradayData(data, config.chartOptions(lang))
	if err != nil {
		return data, nil, errors.Wrapf(err, "%s %s", code, date)
	}

	logInfo("log.chart.loaded", code, date, len(data.Datapoints))
	return data, desc, nil
}
