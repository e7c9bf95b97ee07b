//go:build wireinject

package main

import (
	"github.com/google/wire"
)

func BuildApp(args *Args) (*App, error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		ProvideFactory,
		ProvideFilterConfig,
		ProvideCounter,
		ProvideMetrics,
		ProvideEngine,
		ProvideController,
		ProvideHistory,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
