package conduit

import "go.uber.org/zap"

// newDefaultLogger returns the no-op logger an [Engine] uses when its
// [Config] doesn't supply one, following the dependency-injection style
// the engine/index/storage subsystems use for *zap.SugaredLogger rather
// than a package-level global.
func newDefaultLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
