package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ============================================================================
// 旧目录结构迁移：intraday/<CODE>/ → intraday/<MARKET>/<CODE>/
// ============================================================================

// MigrationStat 单个市场的迁移统计
type MigrationStat struct {
	Stocks int
	Files  int
}

// MigrationReport 迁移结果
type MigrationReport struct {
	DryRun  bool
	Markets map[MarketType]*MigrationStat
	Skipped []string // 目标已存在而保留在旧位置的文件
	Errors  []string
}

// MigrateLegacy 将旧的平铺目录移动到按市场划分的目录
// dryRun 为 true 时只统计不移动；目标文件已存在时保留新文件并跳过旧文件
func (s *IntradayStore) MigrateLegacy(dryRun bool) (*MigrationReport, error) {
	root := filepath.Join(s.root, "intraday")
	report := &MigrationReport{
		DryRun:  dryRun,
		Markets: make(map[MarketType]*MigrationStat),
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, errors.Wrapf(err, "read %s", root)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		code := entry.Name()

		// 跳过已经是市场目录的
		if _, isMarket := marketMICs[MarketType(code)]; isMarket {
			continue
		}

		market := getMarketType(code)
		moved, err := s.migrateStock(root, code, market, dryRun, report)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", code, err))
			continue
		}

		stat, ok := report.Markets[market]
		if !ok {
			stat = &MigrationStat{}
			report.Markets[market] = stat
		}
		stat.Stocks++
		stat.Files += moved
	}

	return report, nil
}

// migrateStock 移动一只股票的所有日期文件，返回移动的文件数
func (s *IntradayStore) migrateStock(root, code string, market MarketType, dryRun bool, report *MigrationReport) (int, error) {
	oldDir := filepath.Join(root, code)
	newDir := filepath.Join(root, string(market), code)

	files, err := os.ReadDir(oldDir)
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", oldDir)
	}
	jsonFiles := lo.Filter(files, func(f os.DirEntry, _ int) bool {
		return !f.IsDir() && strings.HasSuffix(f.Name(), ".json")
	})

	if dryRun {
		return len(jsonFiles), nil
	}

	if err := os.MkdirAll(newDir, 0755); err != nil {
		return 0, errors.Wrapf(err, "create %s", newDir)
	}

	moved := 0
	for _, f := range jsonFiles {
		src := filepath.Join(oldDir, f.Name())
		dst := filepath.Join(newDir, f.Name())
		if fileExists(dst) {
			report.Skipped = append(report.Skipped, src)
			continue
		}

		lock := getFileLock(dst)
		lock.Lock()
		err := os.Rename(src, dst)
		lock.Unlock()
		if err != nil {
			return moved, errors.Wrapf(err, "move %s", src)
		}
		moved++
	}

	// 旧目录为空时删除
	if rest, err := os.ReadDir(oldDir); err == nil && len(rest) == 0 {
		os.Remove(oldDir)
	}

	logInfoDirect("migrated %s -> %s (%d files)", oldDir, newDir, moved)
	return moved, nil
}

// renderMigrationReport 迁移汇总表
func renderMigrationReport(report *MigrationReport) string {
	markets := lo.Keys(report.Markets)
	sort.Slice(markets, func(i, j int) bool { return markets[i] < markets[j] })

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Market", "Stocks", "Files"})

	var totalStocks, totalFiles int
	for _, market := range markets {
		stat := report.Markets[market]
		t.AppendRow(table.Row{market, stat.Stocks, stat.Files})
		totalStocks += stat.Stocks
		totalFiles += stat.Files
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Total", totalStocks, totalFiles})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")

	for _, path := range report.Skipped {
		b.WriteString("skipped (already migrated): " + path + "\n")
	}
	for i, msg := range report.Errors {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, msg))
	}
	if report.DryRun {
		b.WriteString("dry run, nothing moved\n")
	}
	return b.String()
}
