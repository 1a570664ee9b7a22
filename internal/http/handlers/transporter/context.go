package transporter

import (
	handlershared "github.com/huoyun-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getTransporterID(c *gin.Context) (uint, bool) {
	return handlershared.GetSubjectID(c)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}
