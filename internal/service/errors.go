package service

import (
	"go.uber.org/zap"

	"gin-user-service/internal/domain"
)

// wrapStore 已分类的领域错误原样返回，其余记日志后统一包成 internal
func wrapStore(l *zap.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := domain.AsError(err); ok && e.Kind != domain.KindInternal {
		return err
	}
	l.Error(msg, zap.Error(err))
	return domain.Internal(msg, err)
}
