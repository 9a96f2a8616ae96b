package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridloal/gym-membership-service/internal/member/domain"
	"github.com/ridloal/gym-membership-service/internal/member/repository"
	"github.com/ridloal/gym-membership-service/internal/member/service"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

const (
	defaultSkip  = 0
	defaultLimit = 100
)

type MemberHandler struct {
	memberService service.MemberService
}

func NewMemberHandler(ms service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

// RegisterRoutes mounts the member routes. checkIn wraps the check-in route
// only, typically with a rate limiter; it may be nil.
func (h *MemberHandler) RegisterRoutes(router *gin.RouterGroup, checkIn gin.HandlerFunc) {
	memberRoutes := router.Group("/members")
	{
		memberRoutes.POST("", h.CreateMember)
		memberRoutes.POST("/", h.CreateMember)
		memberRoutes.GET("", h.ListMembers)
		memberRoutes.GET("/", h.ListMembers)
		memberRoutes.GET("/:id", h.GetMember)
		memberRoutes.PUT("/:id", h.UpdateMember)
		memberRoutes.DELETE("/:id", h.DeleteMember)

		checkInHandlers := []gin.HandlerFunc{h.CheckIn}
		if checkIn != nil {
			checkInHandlers = append([]gin.HandlerFunc{checkIn}, checkInHandlers...)
		}
		memberRoutes.GET("/check/:last_four_digits", checkInHandlers...)
	}
}

func validationFailed(c *gin.Context, fields ...domain.FieldError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "errors": fields})
}

func fieldError(field string, err error) domain.FieldError {
	return domain.FieldError{Field: field, Message: err.Error()}
}

// writeError maps service and repository errors onto HTTP responses. Anything
// unrecognised is logged and answered with a generic 500.
func writeError(c *gin.Context, op string, err error) {
	var (
		verr      *domain.ValidationError
		ambiguous *service.AmbiguousMemberError
	)
	switch {
	case errors.As(err, &verr):
		validationFailed(c, verr.Fields...)
	case errors.As(err, &ambiguous):
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrAmbiguousMember.Error(), "members": ambiguous.Candidates})
	case errors.Is(err, service.ErrInvalidPagination):
		validationFailed(c, fieldError("skip", err))
	case errors.Is(err, service.ErrPhoneAlreadyRegistered),
		errors.Is(err, repository.ErrConstraintViolation),
		errors.Is(err, domain.ErrInvalidSuffix):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrMemberNotFound),
		errors.Is(err, service.ErrNoSuchMember):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.Error(op+": service error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error, please try again later"})
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		validationFailed(c, domain.FieldError{Field: "id", Message: "id must be an integer"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		validationFailed(c, domain.FieldError{Field: name, Message: name + " must be a non-negative integer"})
		return 0, false
	}
	return v, true
}

func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req domain.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("CreateMember: bad request", "error", err.Error())
		validationFailed(c, fieldError("body", err))
		return
	}

	member, err := h.memberService.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, "CreateMember", err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) ListMembers(c *gin.Context) {
	skip, ok := queryInt(c, "skip", defaultSkip)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultLimit)
	if !ok {
		return
	}

	members, err := h.memberService.ListMembers(c.Request.Context(), skip, limit)
	if err != nil {
		writeError(c, "ListMembers", err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (h *MemberHandler) GetMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	member, err := h.memberService.GetMember(c.Request.Context(), id)
	if err != nil {
		writeError(c, "GetMember", err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) UpdateMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch domain.MemberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		logger.Warn("UpdateMember: bad request", "error", err.Error(), "member_id", id)
		validationFailed(c, fieldError("body", err))
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), id, patch)
	if err != nil {
		writeError(c, "UpdateMember", err)
		return
	}
	c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) DeleteMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.memberService.DeleteMember(c.Request.Context(), id); err != nil {
		writeError(c, "DeleteMember", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member deleted successfully"})
}

func (h *MemberHandler) CheckIn(c *gin.Context) {
	result, err := h.memberService.CheckIn(c.Request.Context(), c.Param("last_four_digits"))
	if err != nil {
		writeError(c, "CheckIn", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports 200 while the database answers a ping within two seconds.
func Health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health: database ping failed", "error", err.Error())
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
