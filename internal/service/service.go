package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

// Clock 可注入的时间源，测试里固定时间
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// dbError 把 gorm 错误归类；已是 domain.Error 的原样返回
func dbError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.Conflict("Enregistrement déjà existant")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.Validation("Référence invalide")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFound("Enregistrement non trouvé")
	}
	return domain.Internal(msg, err)
}
