package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/pkg/response"
)

// InternalErrorMessage is the only detail terminals see for failed requests.
const InternalErrorMessage = "Internal server error."

// NotFoundMessage is returned when no member matches the identifier.
const NotFoundMessage = "No matching user found."

// unknownTag is the source and method recorded when the caller omits them.
const unknownTag = "unknown"

// AccessEvaluator decides access requests.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, identifier string, identifierType access.IdentifierType, permissionCode string, req access.RequestContext) (access.Decision, error)
}

// AccessHandler serves the terminal access check.
type AccessHandler struct {
	evaluator AccessEvaluator
}

// NewAccessHandler constructs an AccessHandler.
func NewAccessHandler(evaluator AccessEvaluator) (*AccessHandler, error) {
	if evaluator == nil {
		return nil, errors.New("access handler: evaluator is required")
	}
	return &AccessHandler{evaluator: evaluator}, nil
}

// GET /api/access/:type/:identifier/:permission
func (h *AccessHandler) Check(c *gin.Context) {
	decision, err := h.evaluator.Evaluate(
		requestContext(c),
		c.Param("identifier"),
		access.ParseIdentifierType(c.Param("type")),
		c.Param("permission"),
		terminalRequest(c),
	)
	if err != nil {
		response.Failure(c, http.StatusInternalServerError, InternalErrorMessage)
		return
	}

	switch decision.Kind {
	case access.KindGranted:
		c.JSON(http.StatusOK, []access.Grant{decision.Grant()})
	case access.KindNotFound:
		response.Failure(c, http.StatusNotFound, NotFoundMessage)
	case access.KindBadRequest:
		response.Failure(c, http.StatusBadRequest, decision.Reason)
	default:
		response.Failure(c, http.StatusForbidden, decision.Reason)
	}
}
