/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package logx

import (
	"io"
	"log"

	"github.com/hashicorp/go-hclog"
)

const (
	hclogArgs = "hclog.args"
	hclogName = "hclog.name"
)

// hcAdapter lets dependencies that only know how to speak hclog (e.g. a
// vendored client library) log through the same Logger as the rest of the
// broker.
type hcAdapter struct {
	l *Logger
}

// NewHCLog wraps l as an hclog.Logger.
func NewHCLog(l *Logger) hclog.Logger {
	return &hcAdapter{l: l}
}

func (h *hcAdapter) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		h.Debug(msg, args...)
	case hclog.Warn:
		h.Warn(msg, args...)
	case hclog.Error:
		h.Error(msg, args...)
	default:
		h.Info(msg, args...)
	}
}

func (h *hcAdapter) Trace(msg string, args ...interface{}) { h.Debug(msg, args...) }
func (h *hcAdapter) Debug(msg string, args ...interface{}) { h.l.With(argsToFields(args)).Debugf("%s", msg) }
func (h *hcAdapter) Info(msg string, args ...interface{})  { h.l.With(argsToFields(args)).Infof("%s", msg) }
func (h *hcAdapter) Warn(msg string, args ...interface{})  { h.l.With(argsToFields(args)).Warnf("%s", msg) }
func (h *hcAdapter) Error(msg string, args ...interface{}) { h.l.With(argsToFields(args)).Errorf("%s", msg) }

func (h *hcAdapter) IsTrace() bool { return true }
func (h *hcAdapter) IsDebug() bool { return true }
func (h *hcAdapter) IsInfo() bool  { return true }
func (h *hcAdapter) IsWarn() bool  { return true }
func (h *hcAdapter) IsError() bool { return true }

func (h *hcAdapter) ImpliedArgs() []interface{} {
	if a, ok := h.l.field[hclogArgs]; ok {
		if s, ok := a.([]interface{}); ok {
			return s
		}
	}
	return nil
}

func (h *hcAdapter) With(args ...interface{}) hclog.Logger {
	return &hcAdapter{l: h.l.With(Fields{hclogArgs: args})}
}

func (h *hcAdapter) Name() string {
	if n, ok := h.l.field[hclogName]; ok {
		if s, ok := n.(string); ok {
			return s
		}
	}
	return ""
}

func (h *hcAdapter) Named(name string) hclog.Logger {
	return &hcAdapter{l: h.l.With(Fields{hclogName: name})}
}

func (h *hcAdapter) ResetNamed(name string) hclog.Logger {
	return h.Named(name)
}

func (h *hcAdapter) SetLevel(hclog.Level) {}

func (h *hcAdapter) GetLevel() hclog.Level { return hclog.Info }

func (h *hcAdapter) StandardLogger(_ *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(io.Discard, "", 0)
}

func (h *hcAdapter) StandardWriter(_ *hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}

func argsToFields(args []interface{}) Fields {
	f := Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			f[key] = args[i+1]
		}
	}
	return f
}
