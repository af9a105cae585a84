package access

import (
	"context"
	"strings"
	"sync"

	"github.com/openmakers/badgegate/internal/catalog"
	"github.com/openmakers/badgegate/internal/identity"
	"github.com/openmakers/badgegate/internal/models"
)

type fakeMembers struct {
	byUUID   map[string]*models.Member
	bySerial map[string]*models.Member
	byEmail  map[string]*models.Member
	err      error
	calls    int
}

func newFakeMembers(members ...*models.Member) *fakeMembers {
	f := &fakeMembers{
		byUUID:   map[string]*models.Member{},
		bySerial: map[string]*models.Member{},
		byEmail:  map[string]*models.Member{},
	}
	for _, m := range members {
		f.byUUID[m.UUID] = m
		if m.CardSerial != "" {
			f.bySerial[m.CardSerial] = m
		}
		if m.Email != "" {
			f.byEmail[strings.ToLower(m.Email)] = m
		}
	}
	return f
}

func (f *fakeMembers) find(index map[string]*models.Member, key string) (*models.Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := index[key]; ok {
		return m, nil
	}
	return nil, identity.ErrNotFound
}

func (f *fakeMembers) FindByUUID(_ context.Context, uuid string) (*models.Member, error) {
	return f.find(f.byUUID, uuid)
}

func (f *fakeMembers) FindBySerial(_ context.Context, serial string) (*models.Member, error) {
	return f.find(f.bySerial, serial)
}

func (f *fakeMembers) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	return f.find(f.byEmail, strings.ToLower(email))
}

type fakeBadges struct {
	badges []models.Badge
	err    error
}

func (f *fakeBadges) Lookup(_ context.Context, code string) (*models.Badge, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := catalog.LookupKey(code)
	for i := range f.badges {
		if key != "" && catalog.LookupKey(f.badges[i].TextID) == key {
			badge := f.badges[i]
			return &badge, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type assignmentKey struct {
	member uint
	badge  uint
}

type fakeAssignments struct {
	statuses map[assignmentKey][]string
	err      error
	calls    int
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{statuses: map[assignmentKey][]string{}}
}

func (f *fakeAssignments) add(memberID, badgeID uint, status string) {
	key := assignmentKey{memberID, badgeID}
	f.statuses[key] = append(f.statuses[key], status)
}

func (f *fakeAssignments) Exists(_ context.Context, memberID, badgeID uint, activeOnly bool) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	for _, status := range f.statuses[assignmentKey{memberID, badgeID}] {
		if !activeOnly || status == models.BadgeRequestStatusActive {
			return true, nil
		}
	}
	return false, nil
}

type fakeDecisionLog struct {
	mu      sync.Mutex
	entries []DecisionEntry
	err     error
}

func (f *fakeDecisionLog) LogDecision(_ context.Context, entry DecisionEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeReporter struct {
	mu     sync.Mutex
	errors []error
}

func (f *fakeReporter) Report(_ context.Context, _ string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, err)
}
