// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/hubflow/hubflow/pkg/actions/condition"
	"github.com/hubflow/hubflow/pkg/actions/createrecord"
	"github.com/hubflow/hubflow/pkg/actions/delay"
	"github.com/hubflow/hubflow/pkg/actions/notify"
	"github.com/hubflow/hubflow/pkg/actions/updatefield"
	"github.com/hubflow/hubflow/pkg/registry"
)

func registerNativeActions(reg *registry.Registry) {
	reg.RegisterAction(notify.NewFactory())
	reg.RegisterAction(createrecord.NewFactory())
	reg.RegisterAction(updatefield.NewFactory())
	reg.RegisterAction(delay.NewFactory())
	reg.RegisterAction(condition.NewFactory())
}

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeActions(reg)

	return reg
}
