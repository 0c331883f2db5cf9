package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"staffhub/backend/internal/model"
	"staffhub/backend/internal/repository"
	pkgerrors "staffhub/backend/pkg/errors"
)

// ── 测试聚合 ──

type mockRepos struct {
	candidate  *mockCandidateRepo
	consultant *mockConsultantRepo
	project    *mockProjectRepo
	manage     *mockManageRepo
	assign     *mockAssignRepo
	shift      *mockShiftRepo
	roster     *mockRosterRepo
	request    *mockRequestRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		candidate:  newMockCandidateRepo(),
		consultant: newMockConsultantRepo(),
		project:    newMockProjectRepo(),
		manage:     newMockManageRepo(),
		assign:     newMockAssignRepo(),
		shift:      newMockShiftRepo(),
	}
	m.roster = newMockRosterRepo(m.shift, m.candidate)
	m.request = newMockRequestRepo(m.candidate)

	repo := &repository.Repository{
		Candidate:  m.candidate,
		Consultant: m.consultant,
		Project:    m.project,
		Manage:     m.manage,
		Assign:     m.assign,
		Shift:      m.shift,
		Roster:     m.roster,
		Request:    m.request,
	}
	return repo, m
}

func strPtr(s string) *string { return &s }

// ── Mock CandidateRepository ──

type mockCandidateRepo struct {
	candidates map[string]*model.Candidate
}

func newMockCandidateRepo() *mockCandidateRepo {
	return &mockCandidateRepo{candidates: make(map[string]*model.Candidate)}
}

func (m *mockCandidateRepo) add(c *model.Candidate) { m.candidates[c.CandidateID] = c }

func (m *mockCandidateRepo) GetByID(_ context.Context, id string) (*model.Candidate, error) {
	if c, ok := m.candidates[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCandidateRepo) GetByEmail(_ context.Context, email string) (*model.Candidate, error) {
	for _, c := range m.candidates {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ConsultantRepository ──

type mockConsultantRepo struct {
	consultants map[string]*model.Consultant
}

func newMockConsultantRepo() *mockConsultantRepo {
	return &mockConsultantRepo{consultants: make(map[string]*model.Consultant)}
}

func (m *mockConsultantRepo) add(c *model.Consultant) { m.consultants[c.ConsultantID] = c }

func (m *mockConsultantRepo) GetByID(_ context.Context, id string) (*model.Consultant, error) {
	if c, ok := m.consultants[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConsultantRepo) GetByEmail(_ context.Context, email string) (*model.Consultant, error) {
	for _, c := range m.consultants {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
	seq      int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, p *model.Project) error {
	if p.ProjectID == "" {
		m.seq++
		// 与夹具里的 proj-1 区分开
		p.ProjectID = fmt.Sprintf("proj-new-%d", m.seq)
	}
	m.projects[p.ProjectID] = p
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ManageRepository ──

type mockManageRepo struct {
	manages map[string]*model.Manage // key: consultantID:projectID
}

func newMockManageRepo() *mockManageRepo {
	return &mockManageRepo{manages: make(map[string]*model.Manage)}
}

func (m *mockManageRepo) Upsert(_ context.Context, manage *model.Manage) error {
	m.manages[manage.ConsultantID+":"+manage.ProjectID] = manage
	return nil
}

func (m *mockManageRepo) Get(_ context.Context, consultantID, projectID string) (*model.Manage, error) {
	if mg, ok := m.manages[consultantID+":"+projectID]; ok {
		return mg, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockManageRepo) ListByProject(_ context.Context, projectID string) ([]model.Manage, error) {
	var result []model.Manage
	for _, mg := range m.manages {
		if mg.ProjectID == projectID {
			result = append(result, *mg)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConsultantID < result[j].ConsultantID })
	return result, nil
}

// ── Mock AssignRepository ──

type mockAssignRepo struct {
	assigns map[string]*model.Assign // key: candidateID:projectID
}

func newMockAssignRepo() *mockAssignRepo {
	return &mockAssignRepo{assigns: make(map[string]*model.Assign)}
}

func (m *mockAssignRepo) Upsert(_ context.Context, a *model.Assign) error {
	key := a.CandidateID + ":" + a.ProjectID
	if old, ok := m.assigns[key]; ok {
		if a.StartDate.After(old.StartDate) {
			a.StartDate = old.StartDate
		}
		if a.EndDate.Before(old.EndDate) {
			a.EndDate = old.EndDate
		}
	}
	m.assigns[key] = a
	return nil
}

func (m *mockAssignRepo) Get(_ context.Context, candidateID, projectID string) (*model.Assign, error) {
	if a, ok := m.assigns[candidateID+":"+projectID]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignRepo) UpdateEndDate(_ context.Context, candidateID, projectID string, endDate time.Time) error {
	a, ok := m.assigns[candidateID+":"+projectID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	a.EndDate = endDate
	return nil
}

// ── Mock ShiftRepository ──

type mockShiftRepo struct {
	shifts   map[string]*model.Shift
	archived map[string]bool
	seq      int
}

func newMockShiftRepo() *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), archived: make(map[string]bool)}
}

func (m *mockShiftRepo) Create(_ context.Context, s *model.Shift) error {
	if s.ShiftID == "" {
		m.seq++
		s.ShiftID = fmt.Sprintf("shift-%d", m.seq)
	}
	m.shifts[s.ShiftID] = s
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	if s, ok := m.shifts[id]; ok && !m.archived[id] {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) ListByProject(_ context.Context, projectID string) ([]model.Shift, error) {
	var result []model.Shift
	for id, s := range m.shifts {
		if s.ProjectID == projectID && !m.archived[id] {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockShiftRepo) Archive(_ context.Context, id string) error {
	if _, ok := m.shifts[id]; !ok || m.archived[id] {
		return gorm.ErrRecordNotFound
	}
	m.archived[id] = true
	return nil
}

// ── Mock RosterRepository ──
// 条件写入与真实实现保持一致的谓词；mu 保护并发打卡 / 清扫 / 审批

type mockRosterRepo struct {
	mu         sync.Mutex
	rosters    map[string]*model.Roster
	shifts     *mockShiftRepo
	candidates *mockCandidateRepo
	seq        int

	markNoShowErr error
}

func newMockRosterRepo(shifts *mockShiftRepo, candidates *mockCandidateRepo) *mockRosterRepo {
	return &mockRosterRepo{rosters: make(map[string]*model.Roster), shifts: shifts, candidates: candidates}
}

func (m *mockRosterRepo) add(r *model.Roster) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.RosterID == "" {
		m.seq++
		r.RosterID = fmt.Sprintf("roster-%d", m.seq)
	}
	m.rosters[r.RosterID] = r
}

func (m *mockRosterRepo) get(id string) *model.Roster {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rosters[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

// hydrate 模拟 Preload：班次模板（含已归档）与候选人
func (m *mockRosterRepo) hydrate(r *model.Roster) model.Roster {
	cp := *r
	if s, ok := m.shifts.shifts[r.ShiftID]; ok {
		cp.Shift = s
	}
	if c, ok := m.candidates.candidates[r.CandidateID]; ok {
		cp.Candidate = c
	}
	return cp
}

func (m *mockRosterRepo) BatchCreateSkipDuplicates(_ context.Context, rosters []model.Roster) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := make(map[string]bool, len(m.rosters))
	for _, r := range m.rosters {
		existing[r.CandidateID+":"+r.ShiftID+":"+model.FormatDate(r.ShiftDate)] = true
	}
	var created int64
	for i := range rosters {
		key := rosters[i].CandidateID + ":" + rosters[i].ShiftID + ":" + model.FormatDate(rosters[i].ShiftDate)
		if existing[key] {
			continue
		}
		existing[key] = true
		m.seq++
		r := rosters[i]
		r.RosterID = fmt.Sprintf("roster-%d", m.seq)
		m.rosters[r.RosterID] = &r
		created++
	}
	return created, nil
}

func (m *mockRosterRepo) GetByID(_ context.Context, id string) (*model.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.hydrate(r)
	return &cp, nil
}

func (m *mockRosterRepo) List(_ context.Context, f repository.RosterFilter) ([]model.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Roster
	for _, r := range m.rosters {
		if f.CandidateID != "" && r.CandidateID != f.CandidateID {
			continue
		}
		if f.ProjectID != "" && r.ProjectID != f.ProjectID {
			continue
		}
		if !f.From.IsZero() && r.ShiftDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && r.ShiftDate.After(f.To) {
			continue
		}
		result = append(result, m.hydrate(r))
	}
	return result, nil
}

func (m *mockRosterRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok || r.ClockInTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	delete(m.rosters, id)
	return nil
}

func (m *mockRosterRepo) ClockIn(_ context.Context, id string, at time.Time, status string, lat, lng *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok || r.ClockInTime != nil || (r.Status != nil && *r.Status != model.RosterStatusNoShow) {
		return pkgerrors.ErrOptimisticLock
	}
	r.ClockInTime = &at
	r.Status = &status
	r.ClockInLatitude = lat
	r.ClockInLongitude = lng
	return nil
}

func (m *mockRosterRepo) ClockOut(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok || r.ClockInTime == nil || r.ClockOutTime != nil || r.ClockInTime.After(at) {
		return pkgerrors.ErrOptimisticLock
	}
	r.ClockOutTime = &at
	return nil
}

func (m *mockRosterRepo) ListSweepCandidates(_ context.Context, upTo time.Time, skipLeave bool) ([]model.Roster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Roster
	for _, r := range m.rosters {
		if r.Status != nil || r.ClockInTime != nil || r.ShiftDate.After(upTo) {
			continue
		}
		if skipLeave && r.Leave != nil && *r.Leave == model.LeaveFullDay {
			continue
		}
		result = append(result, m.hydrate(r))
	}
	return result, nil
}

func (m *mockRosterRepo) MarkNoShow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markNoShowErr != nil {
		return m.markNoShowErr
	}
	r, ok := m.rosters[id]
	if !ok || r.Status != nil || r.ClockInTime != nil {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = strPtr(model.RosterStatusNoShow)
	return nil
}

func (m *mockRosterRepo) MarkMedical(_ context.Context, candidateID, projectID string, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rosters {
		if r.CandidateID != candidateID || r.ProjectID != projectID {
			continue
		}
		if r.ShiftDate.Before(from) || r.ShiftDate.After(to) {
			continue
		}
		if r.Status != nil && *r.Status != model.RosterStatusNoShow {
			continue
		}
		r.Status = strPtr(model.RosterStatusMedical)
		n++
	}
	return n, nil
}

func (m *mockRosterRepo) ApplyLeave(_ context.Context, id, leave, shiftType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rosters[id]
	if !ok || r.Leave != nil {
		return pkgerrors.ErrOptimisticLock
	}
	r.Leave = &leave
	r.ShiftType = shiftType
	return nil
}

// ── Mock RequestRepository ──

type mockRequestRepo struct {
	mu         sync.Mutex
	requests   map[string]*model.Request
	candidates *mockCandidateRepo
	seq        int
}

func newMockRequestRepo(candidates *mockCandidateRepo) *mockRequestRepo {
	return &mockRequestRepo{requests: make(map[string]*model.Request), candidates: candidates}
}

func (m *mockRequestRepo) get(id string) *model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (m *mockRequestRepo) all() []model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Request
	for _, r := range m.requests {
		result = append(result, *r)
	}
	return result
}

func (m *mockRequestRepo) BatchCreate(_ context.Context, requests []model.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range requests {
		if requests[i].RequestID == "" {
			m.seq++
			requests[i].RequestID = fmt.Sprintf("req-%d", m.seq)
		}
		requests[i].CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
		cp := requests[i]
		m.requests[cp.RequestID] = &cp
	}
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	if c, ok := m.candidates.candidates[r.CandidateID]; ok {
		cp.Candidate = c
	}
	return &cp, nil
}

func (m *mockRequestRepo) GetPendingForUpdate(_ context.Context, id string) (*model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != model.RequestStatusPending {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepo) Transition(_ context.Context, id, from, to string, decidedBy *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != from {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = to
	r.DecidedBy = decidedBy
	r.DecidedAt = &at
	return nil
}

func (m *mockRequestRepo) HasPendingForRoster(_ context.Context, rosterID string, types []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.Status != model.RequestStatusPending {
			continue
		}
		matched := false
		for _, t := range types {
			if r.Type == t {
				matched = true
			}
		}
		if !matched {
			continue
		}
		data, err := r.Payload()
		if err != nil {
			return false, err
		}
		if model.RosterRef(data) == rosterID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRequestRepo) List(_ context.Context, f repository.RequestFilter, offset, limit int) ([]model.Request, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []model.Request
	for _, r := range m.requests {
		if f.CandidateID != "" && r.CandidateID != f.CandidateID {
			continue
		}
		if f.ProjectID != "" && r.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		matched = append(matched, *r)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func rosterFilterAll() repository.RosterFilter { return repository.RosterFilter{} }
