package main

import (
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

//go:embed i18n/*.json
var embeddedI18n embed.FS

var (
	// texts i18n 配置 - 存储各语言的文本映射
	texts     map[Language]TextMap
	textsOnce sync.Once
)

// loadI18nFiles 加载 i18n 文件
// 先加载内嵌的文本，再用工作目录下 i18n/*.json 中的同名键覆盖
func loadI18nFiles() {
	texts = make(map[Language]TextMap)

	for _, lang := range []Language{Chinese, English} {
		name := string(lang) + ".json"

		merged := TextMap{}
		if data, err := embeddedI18n.ReadFile("i18n/" + name); err == nil {
			if err := json.Unmarshal(data, &merged); err != nil {
				logWarnDirect("Failed to parse embedded i18n/%s: %v", name, err)
			}
		}

		if data, err := os.ReadFile(filepath.Join(i18nDir, name)); err == nil {
			var override TextMap
			if err := json.Unmarshal(data, &override); err != nil {
				logWarnDirect("Failed to parse %s: %v", filepath.Join(i18nDir, name), err)
			}
			for k, v := range override {
				merged[k] = v
			}
		}

		texts[lang] = merged
	}
}

// ensureTexts 保证文本已加载（测试与子命令可直接调用 getTextFor）
func ensureTexts() {
	textsOnce.Do(loadI18nFiles)
}

// getTextFor 获取指定语言的本地化文本
func getTextFor(lang Language, key string) string {
	ensureTexts()
	if text, exists := texts[lang][key]; exists {
		return text
	}
	// 如果找不到文本，返回英文版本作为备用
	if text, exists := texts[English][key]; exists {
		return text
	}
	return key // 最后备用返回key本身
}

// getText 获取本地化文本的辅助函数
func (m *Model) getText(key string) string {
	return getTextFor(m.language, key)
}
