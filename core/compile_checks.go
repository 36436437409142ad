package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ Registry = (*HandlerRegistry)(nil)
	_ Handler  = MethodMap{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
