// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log 日志相关接口以及函数
package log

import (
	"io"
	"os"

	"github.com/33cn/txflow/types"
	log15 "github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// 保存日志处理器的引用，方便后续调整日志信息，而不重新初始化
	fileHandler    log15.Handler
	consoleHandler log15.Handler
)

//SetLogLevel 设置控制台日志输出级别
func SetLogLevel(logLevel string) {
	consoleHandler = getConsoleLogHandler(logLevel)
	log15.Root().SetHandler(consoleHandler)
}

//DisableLog disable log
func DisableLog() {
	log15.Root().SetHandler(log15.DiscardHandler())
}

//SetFileLog 设置文件日志和控制台日志信息
func SetFileLog(log *types.Log) {
	if log == nil {
		log = &types.Log{LogFile: "logs/txflow.log"}
	}
	if log.LogFile == "" {
		SetLogLevel(log.LogConsoleLevel)
	} else {
		resetLog(log)
	}
}

// 清空原来所有的日志Handler，根据配置文件信息重置文件和控制台日志
func resetLog(log *types.Log) {
	fillDefaultValue(log)
	consoleHandler = getConsoleLogHandler(log.LogConsoleLevel)
	fileHandler = getFileLogHandler(log)
	log15.Root().SetHandler(log15.MultiHandler(consoleHandler, fileHandler))
}

// 保证默认性况下为error级别，防止打印太多日志
func fillDefaultValue(log *types.Log) {
	if log.Loglevel == "" {
		log.Loglevel = log15.LvlError.String()
	}
	if log.LogConsoleLevel == "" {
		log.LogConsoleLevel = log15.LvlError.String()
	}
}

// 终端输出带颜色, 重定向到文件或管道时用 logfmt
func consoleOutput() (io.Writer, log15.Format) {
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return colorable.NewColorableStdout(), log15.TerminalFormat()
	}
	return os.Stdout, log15.LogfmtFormat()
}

func getConsoleLogHandler(logLevel string) log15.Handler {
	out, format := consoleOutput()
	return log15.LvlFilterHandler(
		getLevel(logLevel),
		log15.StreamHandler(out, format),
	)
}

func getFileLogHandler(log *types.Log) log15.Handler {
	rotateLogger := &lumberjack.Logger{
		Filename:   log.LogFile,
		MaxSize:    int(log.MaxFileSize),
		MaxBackups: int(log.MaxBackups),
		MaxAge:     int(log.MaxAge),
		LocalTime:  log.LocalTime,
		Compress:   log.Compress,
	}

	fileh := log15.StreamHandler(rotateLogger, log15.LogfmtFormat())

	// 增加打印调用源文件、方法和代码行的判断
	if log.CallerFile {
		fileh = log15.CallerFileHandler(fileh)
	}
	if log.CallerFunction {
		fileh = log15.CallerFuncHandler(fileh)
	}
	return moduleFilterHandler(getLevel(log.Loglevel), log.Modules, fileh)
}

// moduleFilterHandler 按 module 字段过滤, 未配置的模块使用 def
func moduleFilterHandler(def log15.Lvl, modules map[string]string, h log15.Handler) log15.Handler {
	if len(modules) == 0 {
		return log15.LvlFilterHandler(def, h)
	}
	levels := make(map[string]log15.Lvl, len(modules))
	for module, lvl := range modules {
		levels[module] = getLevel(lvl)
	}
	return log15.FilterHandler(func(r *log15.Record) bool {
		max := def
		for i := 0; i+1 < len(r.Ctx); i += 2 {
			if r.Ctx[i] != "module" {
				continue
			}
			if name, ok := r.Ctx[i+1].(string); ok {
				if lvl, ok := levels[name]; ok {
					max = lvl
				}
			}
			break
		}
		return r.Lvl <= max
	}, h)
}

func getLevel(lvlString string) log15.Lvl {
	lvl, err := log15.LvlFromString(lvlString)
	if err != nil {
		// 日志级别配置不正确时默认为error级别
		return log15.LvlError
	}
	return lvl
}

//New new
func New(ctx ...interface{}) log15.Logger {
	return NewMain(ctx...)
}

//NewMain new
func NewMain(ctx ...interface{}) log15.Logger {
	return log15.Root().New(ctx...)
}
