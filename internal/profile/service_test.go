package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/regiman/internal/model"
	"github.com/hitoshi/regiman/internal/repository"
)

// --- モック ---

type mockProfileRepo struct {
	findByIDFn          func(ctx context.Context, id string) (*model.Profile, error)
	updateRoleFn        func(ctx context.Context, id string, role model.Role) error
	setActiveFn         func(ctx context.Context, id string, active bool) error
	listFn              func(ctx context.Context) ([]*model.Profile, error)
	countActiveAdminsFn func(ctx context.Context) (int, error)
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	return nil
}
func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockProfileRepo) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return nil, nil
}
func (m *mockProfileRepo) UpdateEmail(ctx context.Context, id, newEmail string) error {
	return nil
}
func (m *mockProfileRepo) UpdateFullName(ctx context.Context, id, fullName string) error {
	return nil
}
func (m *mockProfileRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	if m.updateRoleFn != nil {
		return m.updateRoleFn(ctx, id, role)
	}
	return nil
}
func (m *mockProfileRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, id, active)
	}
	return nil
}
func (m *mockProfileRepo) List(ctx context.Context) ([]*model.Profile, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockProfileRepo) CountActiveAdmins(ctx context.Context) (int, error) {
	if m.countActiveAdminsFn != nil {
		return m.countActiveAdminsFn(ctx)
	}
	return 0, nil
}

func adminProfile(id string) *model.Profile {
	return &model.Profile{
		ID:        id,
		Email:     id + "@example.com",
		FullName:  "管理者",
		Role:      model.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func staffProfile(id string) *model.Profile {
	p := adminProfile(id)
	p.FullName = "スタッフ"
	p.Role = model.RoleStaff
	return p
}

// --- テスト ---

func TestService_List(t *testing.T) {
	repo := &mockProfileRepo{
		listFn: func(ctx context.Context) ([]*model.Profile, error) {
			return []*model.Profile{adminProfile("p1"), staffProfile("p2")}, nil
		},
	}
	svc := NewService(repo)

	profiles, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("len(profiles) = %d, want 2", len(profiles))
	}
}

func TestService_List_RepoError(t *testing.T) {
	repo := &mockProfileRepo{
		listFn: func(ctx context.Context) ([]*model.Profile, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo)

	_, err := svc.List(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestService_ChangeRole_PromotesStaff(t *testing.T) {
	var updatedRole model.Role
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		updateRoleFn: func(ctx context.Context, id string, role model.Role) error {
			updatedRole = role
			return nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.ChangeRole(context.Background(), "p1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if updatedRole != model.RoleAdmin {
		t.Errorf("repo received role %q, want %q", updatedRole, model.RoleAdmin)
	}
	if updated.Role != model.RoleAdmin {
		t.Errorf("updated.Role = %q, want %q", updated.Role, model.RoleAdmin)
	}
}

func TestService_ChangeRole_InvalidRole(t *testing.T) {
	repo := &mockProfileRepo{}
	svc := NewService(repo)

	_, err := svc.ChangeRole(context.Background(), "p1", model.Role("manager"))

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidRole {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeInvalidRole)
	}
}

func TestService_ChangeRole_ProfileNotFound(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.ChangeRole(context.Background(), "nonexistent", model.RoleAdmin)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeProfileNotFound)
	}
}

// 同一ロールへの変更は更新を発行せずそのまま返す
func TestService_ChangeRole_SameRole_NoUpdate(t *testing.T) {
	updateCalled := false
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		updateRoleFn: func(ctx context.Context, id string, role model.Role) error {
			updateCalled = true
			return nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.ChangeRole(context.Background(), "p1", model.RoleStaff)
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if updateCalled {
		t.Error("UpdateRole should not be called for same role")
	}
	if updated.Role != model.RoleStaff {
		t.Errorf("updated.Role = %q, want %q", updated.Role, model.RoleStaff)
	}
}

// 最後の有効な管理者の降格は拒否される
func TestService_ChangeRole_LastAdmin_Rejected(t *testing.T) {
	updateCalled := false
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return adminProfile(id), nil
		},
		countActiveAdminsFn: func(ctx context.Context) (int, error) {
			return 1, nil
		},
		updateRoleFn: func(ctx context.Context, id string, role model.Role) error {
			updateCalled = true
			return nil
		},
	}
	svc := NewService(repo)

	_, err := svc.ChangeRole(context.Background(), "p1", model.RoleStaff)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeLastAdmin {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeLastAdmin)
	}
	if updateCalled {
		t.Error("UpdateRole should not be called when demotion is rejected")
	}
}

// 管理者が2人以上いれば降格できる
func TestService_ChangeRole_DemoteWithRemainingAdmin(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return adminProfile(id), nil
		},
		countActiveAdminsFn: func(ctx context.Context) (int, error) {
			return 2, nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.ChangeRole(context.Background(), "p1", model.RoleStaff)
	if err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if updated.Role != model.RoleStaff {
		t.Errorf("updated.Role = %q, want %q", updated.Role, model.RoleStaff)
	}
}

// スタッフの昇格では管理者数を確認しない
func TestService_ChangeRole_Promote_SkipsAdminCount(t *testing.T) {
	countCalled := false
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		countActiveAdminsFn: func(ctx context.Context) (int, error) {
			countCalled = true
			return 1, nil
		},
	}
	svc := NewService(repo)

	if _, err := svc.ChangeRole(context.Background(), "p1", model.RoleAdmin); err != nil {
		t.Fatalf("ChangeRole returned error: %v", err)
	}
	if countCalled {
		t.Error("CountActiveAdmins should not be called when promoting")
	}
}

func TestService_ChangeRole_RepoNotFound(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		updateRoleFn: func(ctx context.Context, id string, role model.Role) error {
			return repository.ErrNotFound
		},
	}
	svc := NewService(repo)

	_, err := svc.ChangeRole(context.Background(), "p1", model.RoleAdmin)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeProfileNotFound)
	}
}

func TestService_SetActive_DeactivatesStaff(t *testing.T) {
	var gotActive bool
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		setActiveFn: func(ctx context.Context, id string, active bool) error {
			gotActive = active
			return nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.SetActive(context.Background(), "p1", false)
	if err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}
	if gotActive {
		t.Error("repo received active=true, want false")
	}
	if updated.Active {
		t.Error("updated.Active = true, want false")
	}
}

// 最後の有効な管理者の無効化は拒否される
func TestService_SetActive_LastAdmin_Rejected(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return adminProfile(id), nil
		},
		countActiveAdminsFn: func(ctx context.Context) (int, error) {
			return 1, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.SetActive(context.Background(), "p1", false)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeLastAdmin {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeLastAdmin)
	}
}

// 無効化済み管理者の再有効化では管理者数を確認しない
func TestService_SetActive_Reactivate_SkipsAdminCount(t *testing.T) {
	countCalled := false
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			p := adminProfile(id)
			p.Active = false
			return p, nil
		},
		countActiveAdminsFn: func(ctx context.Context) (int, error) {
			countCalled = true
			return 0, nil
		},
	}
	svc := NewService(repo)

	updated, err := svc.SetActive(context.Background(), "p1", true)
	if err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}
	if countCalled {
		t.Error("CountActiveAdmins should not be called when reactivating")
	}
	if !updated.Active {
		t.Error("updated.Active = false, want true")
	}
}

func TestService_SetActive_SameState_NoUpdate(t *testing.T) {
	updateCalled := false
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return staffProfile(id), nil
		},
		setActiveFn: func(ctx context.Context, id string, active bool) error {
			updateCalled = true
			return nil
		},
	}
	svc := NewService(repo)

	if _, err := svc.SetActive(context.Background(), "p1", true); err != nil {
		t.Fatalf("SetActive returned error: %v", err)
	}
	if updateCalled {
		t.Error("SetActive should not be called for unchanged state")
	}
}

func TestService_SetActive_ProfileNotFound(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Profile, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.SetActive(context.Background(), "nonexistent", false)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProfileNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeProfileNotFound)
	}
}
