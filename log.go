package main

import "fmt"

// ============================================================================
// 日志函数
// 带 key 的函数从 i18n 取日志文本（如 "log.chart.loaded"），args 填充占位符
// Direct 系列直接写格式化后的消息
// ============================================================================

// logLanguage 日志文本使用的语言（启动时由配置设置）
var logLanguage = English

func logDebug(key string, args ...any) { logKey(LogDebug, key, args) }
func logInfo(key string, args ...any)  { logKey(LogInfo, key, args) }
func logWarn(key string, args ...any)  { logKey(LogWarn, key, args) }
func logError(key string, args ...any) { logKey(LogError, key, args) }

func logDebugDirect(format string, args ...any) { logDirect(LogDebug, format, args) }
func logInfoDirect(format string, args ...any)  { logDirect(LogInfo, format, args) }
func logWarnDirect(format string, args ...any)  { logDirect(LogWarn, format, args) }

// logKey 日志未初始化（测试、配置加载前）时什么都不做
func logKey(level LogLevel, key string, args []any) {
	if globalLogger == nil {
		return
	}
	globalLogger.Log(level, key, formatLogText(getLogText(key), args))
}

func logDirect(level LogLevel, format string, args []any) {
	if globalLogger == nil {
		return
	}
	globalLogger.Log(level, "", fmt.Sprintf(format, args...))
}

// formatLogText 没有参数时原样返回，避免文本中的 % 被误解析
func formatLogText(text string, args []any) string {
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// getLogText 找不到时返回 key 本身
func getLogText(key string) string {
	return getTextFor(logLanguage, key)
}
