package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/pkg/response"
)

// MemberLookup resolves members by their external identifiers.
type MemberLookup interface {
	FindByUUID(ctx context.Context, uuid string) (*models.Member, error)
	FindBySerial(ctx context.Context, serial string) (*models.Member, error)
}

// ErrorReporter receives failures hidden from clients.
type ErrorReporter interface {
	Report(ctx context.Context, component string, err error)
}

type memberInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	UUID      string `json:"uuid"`
	Access    string `json:"access"`
}

func newMemberInfo(m *models.Member) memberInfo {
	state := "Inactive"
	if m.Active {
		state = "Active"
	}
	return memberInfo{
		FirstName: m.FirstName,
		LastName:  m.LastName,
		UUID:      m.UUID,
		Access:    state,
	}
}

// MemberHandler exposes member lookups to terminals.
type MemberHandler struct {
	members  MemberLookup
	reporter ErrorReporter
}

// NewMemberHandler constructs a MemberHandler. The reporter may be nil.
func NewMemberHandler(members MemberLookup, reporter ErrorReporter) (*MemberHandler, error) {
	if members == nil {
		return nil, errors.New("member handler: member lookup is required")
	}
	return &MemberHandler{members: members, reporter: reporter}, nil
}

// GET /api/members/uuid/:uuid
func (h *MemberHandler) ByUUID(c *gin.Context) {
	member, err := h.members.FindByUUID(requestContext(c), c.Param("uuid"))
	h.respond(c, member, err, "User not found for UUID.")
}

// GET /api/members/serial/:serial
func (h *MemberHandler) BySerial(c *gin.Context) {
	member, err := h.members.FindBySerial(requestContext(c), c.Param("serial"))
	h.respond(c, member, err, "User not found for serial.")
}

func (h *MemberHandler) respond(c *gin.Context, member *models.Member, err error, notFound string) {
	switch {
	case errors.Is(err, identity.ErrNotFound):
		response.Failure(c, http.StatusNotFound, notFound)
	case err != nil:
		if h.reporter != nil {
			h.reporter.Report(requestContext(c), "members", err)
		}
		response.Failure(c, http.StatusInternalServerError, InternalErrorMessage)
	case member == nil:
		response.Failure(c, http.StatusNotFound, notFound)
	default:
		c.JSON(http.StatusOK, newMemberInfo(member))
	}
}
