package response

import (
	"net/http"

	"github.com/yassin-houari/bubbletech-pointage/internal/domain"
)

// StatusOf 错误类别 → HTTP 状态码
func StatusOf(k domain.ErrorKind) int {
	switch k {
	case domain.KindValidation, domain.KindPrecondition:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// 常见错误提示
const (
	MsgServerError  = "Erreur serveur"
	MsgUnauthorized = "Token manquant"
	MsgBadToken     = "Token invalide ou expiré"
	MsgForbidden    = "Accès refusé"
	MsgTooMany      = "Trop de requêtes, réessayez plus tard"
	MsgBusy         = "Serveur occupé"
	MsgTooLarge     = "Corps de requête trop volumineux"
	MsgTimeout      = "Délai de traitement dépassé"
	MsgNotFound     = "Route non trouvée"
)
