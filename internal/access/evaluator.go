package access

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openmakers/badgegate/internal/catalog"
	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/metrics"
)

// MemberFinder resolves members by identifier.
type MemberFinder interface {
	FindByUUID(ctx context.Context, uuid string) (*models.Member, error)
	FindBySerial(ctx context.Context, serial string) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
}

// BadgeCatalog resolves badges by code.
type BadgeCatalog interface {
	Lookup(ctx context.Context, code string) (*models.Badge, error)
}

// AssignmentChecker reports whether a member holds a badge.
type AssignmentChecker interface {
	Exists(ctx context.Context, memberID, badgeID uint, activeOnly bool) (bool, error)
}

// DecisionLogger persists decisions.
type DecisionLogger interface {
	LogDecision(ctx context.Context, entry DecisionEntry) error
}

// ErrorReporter receives failures that must not change an outcome.
type ErrorReporter interface {
	Report(ctx context.Context, component string, err error)
}

// Evaluator runs the access decision pipeline. It holds no per-request state and is safe for
// concurrent use.
type Evaluator struct {
	members     MemberFinder
	badges      BadgeCatalog
	assignments AssignmentChecker
	decisions   DecisionLogger
	reporter    ErrorReporter
	settings    Settings
	log         *zap.Logger
}

// NewEvaluator constructs an Evaluator. The reporter may be nil.
func NewEvaluator(members MemberFinder, badges BadgeCatalog, assignments AssignmentChecker, decisions DecisionLogger, reporter ErrorReporter, settings Settings) (*Evaluator, error) {
	switch {
	case members == nil:
		return nil, errors.New("access evaluator: member finder is required")
	case badges == nil:
		return nil, errors.New("access evaluator: badge catalog is required")
	case assignments == nil:
		return nil, errors.New("access evaluator: assignment checker is required")
	case decisions == nil:
		return nil, errors.New("access evaluator: decision logger is required")
	}

	return &Evaluator{
		members:     members,
		badges:      badges,
		assignments: assignments,
		decisions:   decisions,
		reporter:    reporter,
		settings:    settings,
		log:         logger.WithModule("access"),
	}, nil
}

// Settings returns the toggles the evaluator was built with.
func (e *Evaluator) Settings() Settings {
	return e.settings
}

// Evaluate decides whether the member named by identifier may use the badge named by
// permissionCode. Denials are returned as decisions, not errors; an error means a repository
// failed and no decision was recorded.
func (e *Evaluator) Evaluate(ctx context.Context, identifier string, identifierType IdentifierType, permissionCode string, req RequestContext) (Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	decision := Decision{Source: req.Source, Method: req.Method}

	if e.settings.CheckIdentityExists {
		if !identifierType.Valid() {
			decision.Kind = KindBadRequest
			decision.Reason = ReasonInvalidIdentifierType
			decision.Note = ComposeNote(ReasonInvalidIdentifierType, req.Note)
			e.observe(decision)
			return decision, nil
		}

		member, err := e.resolve(ctx, identifier, identifierType)
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return e.deny(ctx, decision, KindNotFound, ReasonNoUser, req.Note), nil
		case err != nil:
			return e.fail(ctx, "resolve member", err)
		}
		decision.Member = member
	}

	if e.settings.CheckIdentityStatus && decision.Member != nil {
		if reason := StatusDenial(decision.Member, e.settings); reason != "" {
			return e.deny(ctx, decision, KindForbidden, reason, req.Note), nil
		}
	}

	badge, err := e.badges.Lookup(ctx, permissionCode)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return e.deny(ctx, decision, KindBadRequest, ReasonInvalidPermission, req.Note), nil
	case err != nil:
		return e.fail(ctx, "lookup badge", err)
	}
	decision.Badge = badge

	if e.settings.CheckHasPermission && decision.Member != nil {
		activeOnly := e.settings.CheckBadgeStatus
		held, err := e.assignments.Exists(ctx, decision.Member.ID, badge.ID, activeOnly)
		if err != nil {
			return e.fail(ctx, "check assignment", err)
		}
		if !held {
			reason := ReasonNoPermission
			if activeOnly {
				reason = ReasonNoActiveBadge
			}
			return e.deny(ctx, decision, KindForbidden, reason, req.Note), nil
		}
	}

	decision.Allowed = true
	decision.Kind = KindGranted
	decision.Note = ComposeNote("", req.Note)
	e.record(ctx, &decision)
	return decision, nil
}

func (e *Evaluator) resolve(ctx context.Context, identifier string, identifierType IdentifierType) (*models.Member, error) {
	switch identifierType {
	case IdentifierUUID:
		return e.members.FindByUUID(ctx, identifier)
	case IdentifierSerial:
		return e.members.FindBySerial(ctx, identifier)
	default:
		return e.members.FindByEmail(ctx, identifier)
	}
}

func (e *Evaluator) deny(ctx context.Context, decision Decision, kind Kind, reason, callerNote string) Decision {
	decision.Allowed = false
	decision.Kind = kind
	decision.Reason = reason
	decision.Note = ComposeNote(reason, callerNote)
	e.record(ctx, &decision)
	return decision
}

func (e *Evaluator) fail(ctx context.Context, stage string, err error) (Decision, error) {
	wrapped := fmt.Errorf("access evaluator: %s: %w", stage, err)
	e.report(ctx, wrapped)
	return Decision{}, wrapped
}

func (e *Evaluator) record(ctx context.Context, decision *Decision) {
	entry := DecisionEntry{
		Result: decision.Allowed,
		Note:   decision.Note,
		Source: decision.Source,
		Method: decision.Method,
	}
	if decision.Member != nil {
		id := decision.Member.ID
		entry.MemberID = &id
	}
	if decision.Badge != nil {
		id := decision.Badge.ID
		entry.BadgeID = &id
	}

	if err := e.decisions.LogDecision(ctx, entry); err != nil {
		e.report(ctx, fmt.Errorf("access evaluator: log decision: %w", err))
	} else {
		decision.Logged = true
	}
	e.observe(*decision)
}

func (e *Evaluator) observe(decision Decision) {
	result := "deny"
	if decision.Allowed {
		result = "allow"
	}
	metrics.AccessDecisions.WithLabelValues(result, string(decision.Kind)).Inc()

	e.log.Debug("access decision",
		zap.String("result", result),
		zap.String("kind", string(decision.Kind)),
		zap.String("reason", decision.Reason),
		zap.String("source", decision.Source),
		zap.String("method", decision.Method),
	)
}

func (e *Evaluator) report(ctx context.Context, err error) {
	if e.reporter != nil {
		e.reporter.Report(ctx, "access", err)
		return
	}
	e.log.Error("access evaluation failure", zap.Error(err))
}

// ParseIdentifierType maps a raw path segment to an IdentifierType. Unknown values are returned
// as-is so the evaluator can reject them.
func ParseIdentifierType(raw string) IdentifierType {
	return IdentifierType(strings.ToLower(strings.TrimSpace(raw)))
}
