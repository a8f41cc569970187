// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package logging

type LoggerInterface interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Security() *SecurityLogger
	Sync() error
}
