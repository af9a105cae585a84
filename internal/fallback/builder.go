package fallback

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openmakers/badgegate/internal/access"
	"github.com/openmakers/badgegate/internal/assignments"
	"github.com/openmakers/badgegate/internal/catalog"
	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/pkg/logger"
	"github.com/openmakers/badgegate/pkg/metrics"
)

const maxMissingExamples = 10

// MemberSource lists exportable members.
type MemberSource interface {
	ListActive(ctx context.Context) ([]models.Member, error)
	ProfileSerials(ctx context.Context, memberIDs []uint) (map[uint]string, error)
}

// BadgeSource lists the badge catalog. Every build reads it fresh so invalidations and forced
// refreshes see the current badges.
type BadgeSource interface {
	ListFresh(ctx context.Context) ([]models.Badge, error)
}

// AssignmentSource lists badge requests for export.
type AssignmentSource interface {
	ListForExport(ctx context.Context, badgeIDs []uint, activeOnly bool) ([]assignments.Pair, error)
}

// Builder assembles snapshots from the repositories. Two builds over unchanged data produce
// identical snapshots.
type Builder struct {
	members     MemberSource
	badges      BadgeSource
	assignments AssignmentSource
	settings    Settings
	log         *zap.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(members MemberSource, badges BadgeSource, assignments AssignmentSource, settings Settings) (*Builder, error) {
	if members == nil || badges == nil || assignments == nil {
		return nil, errors.New("fallback builder: member, badge and assignment sources are required")
	}
	return &Builder{
		members:     members,
		badges:      badges,
		assignments: assignments,
		settings:    settings,
		log:         logger.WithModule("fallback"),
	}, nil
}

type userBundle struct {
	records []User
	byID    map[uint]string
}

type toolBundle struct {
	records []Tool
	byID    map[uint]string
}

// Build assembles a fresh snapshot.
func (b *Builder) Build(ctx context.Context) (Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()

	snapshot, err := b.build(ctx)

	metrics.SnapshotBuildDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.SnapshotBuilds.WithLabelValues("failure").Inc()
		return Snapshot{}, err
	}
	metrics.SnapshotBuilds.WithLabelValues("success").Inc()
	return snapshot, nil
}

func (b *Builder) build(ctx context.Context) (Snapshot, error) {
	var (
		users userBundle
		tools toolBundle
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = b.collectUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tools, err = b.collectTools(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	pairs, err := b.collectAssignments(ctx, users.byID, tools.byID)
	if err != nil {
		return Snapshot{}, err
	}

	snapshot := Snapshot{
		Users:       users.records,
		Tools:       tools.records,
		Assignments: pairs,
	}
	snapshot.normalize()
	return snapshot, nil
}

func (b *Builder) collectUsers(ctx context.Context) (userBundle, error) {
	bundle := userBundle{records: []User{}, byID: map[uint]string{}}

	members, err := b.members.ListActive(ctx)
	if err != nil {
		return bundle, fmt.Errorf("fallback builder: list members: %w", err)
	}

	eligible := make([]models.Member, 0, len(members))
	var needProfile []uint
	for i := range members {
		if !b.eligible(&members[i]) {
			continue
		}
		eligible = append(eligible, members[i])
		if strings.TrimSpace(members[i].CardSerial) == "" {
			needProfile = append(needProfile, members[i].ID)
		}
	}

	profileSerials, err := b.members.ProfileSerials(ctx, needProfile)
	if err != nil {
		return bundle, fmt.Errorf("fallback builder: resolve profile serials: %w", err)
	}

	for _, member := range eligible {
		serial := strings.TrimSpace(member.CardSerial)
		if serial == "" {
			serial = profileSerials[member.ID]
		}
		if serial == "" {
			continue
		}

		record := User{
			ID:         member.UUID,
			CardSerial: serial,
			UUID:       member.UUID,
		}
		if b.settings.IncludeNames {
			first, last := member.FirstName, member.LastName
			record.FirstName = &first
			record.LastName = &last
		}
		if b.settings.IncludeContact {
			email := member.Email
			record.Email = &email
		}

		bundle.records = append(bundle.records, record)
		bundle.byID[member.ID] = record.ID
	}

	sort.Slice(bundle.records, func(i, j int) bool {
		return bundle.records[i].ID < bundle.records[j].ID
	})
	return bundle, nil
}

func (b *Builder) eligible(member *models.Member) bool {
	if !b.settings.Access.CheckIdentityStatus {
		return true
	}
	return access.StatusDenial(member, b.settings.Access) == ""
}

func (b *Builder) collectTools(ctx context.Context) (toolBundle, error) {
	bundle := toolBundle{records: []Tool{}, byID: map[uint]string{}}

	badges, err := b.badges.ListFresh(ctx)
	if err != nil {
		return bundle, fmt.Errorf("fallback builder: list badges: %w", err)
	}

	allowed := b.settings.allowSet()
	var missing []string
	for _, badge := range badges {
		code := catalog.NormalizeCode(badge.TextID)
		if code == "" {
			missing = append(missing, strconv.FormatUint(uint64(badge.ID), 10))
			continue
		}
		if allowed != nil {
			if _, ok := allowed[code]; !ok {
				continue
			}
		}

		toolID := catalog.ToolID(code, badge.ID)
		bundle.records = append(bundle.records, Tool{
			ID:                toolID,
			Name:              badge.Name,
			BadgeName:         code,
			ReaderDeviceID:    toolID,
			ActivatorDeviceID: toolID,
			DeviceID:          toolID,
		})
		bundle.byID[badge.ID] = toolID
	}

	sort.Slice(bundle.records, func(i, j int) bool {
		return bundle.records[i].ID < bundle.records[j].ID
	})

	if len(missing) > 0 {
		examples := missing
		if len(examples) > maxMissingExamples {
			examples = examples[:maxMissingExamples]
		}
		b.log.Warn("skipped badges without a usable code",
			zap.Int("count", len(missing)),
			zap.String("examples", strings.Join(examples, ", ")),
		)
	}
	return bundle, nil
}

func (b *Builder) collectAssignments(ctx context.Context, users, tools map[uint]string) ([]Assignment, error) {
	out := []Assignment{}
	if len(users) == 0 || len(tools) == 0 {
		return out, nil
	}

	badgeIDs := make([]uint, 0, len(tools))
	for id := range tools {
		badgeIDs = append(badgeIDs, id)
	}
	sort.Slice(badgeIDs, func(i, j int) bool { return badgeIDs[i] < badgeIDs[j] })

	pairs, err := b.assignments.ListForExport(ctx, badgeIDs, b.settings.Access.CheckBadgeStatus)
	if err != nil {
		return nil, fmt.Errorf("fallback builder: list assignments: %w", err)
	}
	if len(pairs) == 0 {
		return out, nil
	}

	if !b.settings.Access.CheckHasPermission {
		b.log.Warn("Fallback export still requires explicit assignments even though the permission check is disabled.")
	}

	seen := make(map[Assignment]struct{}, len(pairs))
	for _, pair := range pairs {
		userID, okUser := users[pair.MemberID]
		toolID, okTool := tools[pair.BadgeID]
		if !okUser || !okTool {
			continue
		}
		assignment := Assignment{userID, toolID}
		if _, dup := seen[assignment]; dup {
			continue
		}
		seen[assignment] = struct{}{}
		out = append(out, assignment)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out, nil
}
