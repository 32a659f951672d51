package system

import (
	"errors"

	"github.com/enginert/runtime/internal/core/ecs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// logDispatch logs every hook failure aggregated in err. Fatal failures are
// logged at error level, the rest as warnings; nothing is dropped.
func logDispatch(log *zap.Logger, pass, scene string, err error) {
	if err == nil {
		return
	}
	for _, e := range multierr.Errors(err) {
		fields := []zap.Field{zap.String("pass", pass), zap.String("scene", scene), zap.Error(e)}
		var he *ecs.HookError
		if errors.As(e, &he) {
			fields = append(fields,
				zap.Stringer("object", he.Object),
				zap.String("name", he.Name),
				zap.String("component", he.Component),
			)
		}
		if errors.Is(e, ecs.ErrFatal) {
			log.Error("component hook failed", fields...)
			continue
		}
		log.Warn("component hook failed", fields...)
	}
}
