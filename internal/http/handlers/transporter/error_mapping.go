package transporter

import (
	"errors"

	"github.com/huoyun-next/internal/http/response"
	"github.com/huoyun-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var unitAcceptErrorRules = []mappedHandlerError{
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid accept payload"},
	{target: service.ErrUnitNotFound, code: response.CodeNotFound, msg: "truck request not found"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrTransporterNotFound, code: response.CodeNotFound, msg: "transporter not found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, msg: "transporter is not allowed to accept requests"},
	{target: service.ErrVehicleMismatch, code: response.CodeBadRequest, msg: "vehicle does not match the requested truck type"},
	{target: service.ErrInvalidStatus, code: response.CodeConflict, msg: "truck request is not open"},
}

var tripUpdateErrorRules = []mappedHandlerError{
	{target: service.ErrAssignmentNotFound, code: response.CodeNotFound, msg: "trip not found"},
	{target: service.ErrInvalidStatus, code: response.CodeConflict, msg: "trip status transition not allowed"},
}

var availabilityToggleErrorRules = []mappedHandlerError{
	{target: service.ErrTransporterNotFound, code: response.CodeNotFound, msg: "transporter not found"},
	{target: service.ErrRateLimited, code: response.CodeTooManyRequests, msg: "toggle limit reached, try again later"},
	{target: service.ErrLockContention, code: response.CodeLocked, msg: "another toggle is still in progress"},
}

func respondAcceptError(c *gin.Context, err error) {
	respondWithMappedError(c, err, unitAcceptErrorRules, response.CodeInternal, "failed to accept truck request")
}

func respondTripUpdateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, tripUpdateErrorRules, response.CodeInternal, "failed to update trip")
}

func respondAvailabilityToggleError(c *gin.Context, err error) {
	respondWithMappedError(c, err, availabilityToggleErrorRules, response.CodeInternal, "failed to toggle availability")
}
