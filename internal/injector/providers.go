// Package injector assembles the engine, its logger and the remote endpoint
// from a config.
package injector

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/engine"
	"github.com/plus3/scriptbridge/logging"
	"github.com/plus3/scriptbridge/remote"

	// registers the bundled scripts in bridge.DefaultScripts
	_ "github.com/plus3/scriptbridge/scripts"
)

// App is the assembled engine graph.
type App struct {
	Config *engine.Config
	Logger *zap.Logger
	Engine *engine.Engine
	Remote *remote.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideScripts,
	engine.New,
	ProvideRemote,
	wire.Struct(new(App), "*"),
)

// ProvideLogger builds the logger described by config.Logging. The cleanup
// flushes buffered entries.
func ProvideLogger(config *engine.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(logging.Options{
		Level:  config.Logging.Level,
		Format: config.Logging.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideScripts returns the default registry with the bundled scripts.
func ProvideScripts() *bridge.ScriptRegistry {
	return bridge.DefaultScripts
}

func ProvideRemote(e *engine.Engine, config *engine.Config, logger *zap.Logger) *remote.Server {
	return remote.NewServer(e, config.Remote.TelemetryInterval, logger)
}
