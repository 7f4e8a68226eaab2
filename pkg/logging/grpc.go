package logging

import (
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/grpclog"
)

// grpcLogger adapts zerolog to grpclog.LoggerV2. grpc's info chatter is
// logged at debug level.
type grpcLogger struct {
	logger    zerolog.Logger
	verbosity int
}

// BridgeGRPC routes grpc-go internal logs through logger under the "grpc"
// component. It must be called before any grpc connection is created.
func BridgeGRPC(logger zerolog.Logger) {
	grpclog.SetLoggerV2(newGRPCLogger(logger))
}

func newGRPCLogger(logger zerolog.Logger) *grpcLogger {
	return &grpcLogger{logger: logger.With().Str("component", "grpc").Logger()}
}

func (g *grpcLogger) Info(args ...any)                 { g.logger.Debug().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Infoln(args ...any)               { g.logger.Debug().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Infof(format string, args ...any) { g.logger.Debug().Msgf(format, args...) }
func (g *grpcLogger) Warning(args ...any)              { g.logger.Warn().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Warningln(args ...any)            { g.logger.Warn().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Warningf(format string, args ...any) {
	g.logger.Warn().Msgf(format, args...)
}
func (g *grpcLogger) Error(args ...any)                 { g.logger.Error().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Errorln(args ...any)               { g.logger.Error().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Errorf(format string, args ...any) { g.logger.Error().Msgf(format, args...) }
func (g *grpcLogger) Fatal(args ...any)                 { g.logger.Fatal().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Fatalln(args ...any)               { g.logger.Fatal().Msg(fmt.Sprint(args...)) }
func (g *grpcLogger) Fatalf(format string, args ...any) { g.logger.Fatal().Msgf(format, args...) }
func (g *grpcLogger) V(l int) bool                      { return l <= g.verbosity }
