package service

import (
	"context"
	"testing"

	lodgingerrors "lodgebook/internal/lodgings/errors"
	"lodgebook/internal/lodgings/repository"
	"lodgebook/pkg/config"
	apperrors "lodgebook/pkg/errors"
	"lodgebook/pkg/logger"
	"lodgebook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
	}
}

type mockLodgingRepo struct {
	lodgings map[string]*model.Lodging
	nextID   int
}

var _ repository.LodgingRepository = (*mockLodgingRepo)(nil)

func newMockLodgingRepo() *mockLodgingRepo {
	return &mockLodgingRepo{lodgings: make(map[string]*model.Lodging)}
}

func (m *mockLodgingRepo) Create(ctx context.Context, l *model.Lodging) error {
	m.nextID++
	l.ID = "lodge-1"
	clone := *l
	m.lodgings[l.ID] = &clone
	return nil
}

func (m *mockLodgingRepo) FindByID(ctx context.Context, id string) (*model.Lodging, error) {
	l, ok := m.lodgings[id]
	if !ok {
		return nil, lodgingerrors.ErrNotFound
	}
	clone := *l
	return &clone, nil
}

func (m *mockLodgingRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Lodging, error) {
	var out []*model.Lodging
	for _, l := range m.lodgings {
		clone := *l
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockLodgingRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.lodgings)), nil
}

func (m *mockLodgingRepo) Update(ctx context.Context, id string, updates bson.M) error {
	l, ok := m.lodgings[id]
	if !ok {
		return lodgingerrors.ErrNotFound
	}
	if active, ok := updates["active"].(bool); ok {
		l.Active = active
	}
	if rate, ok := updates["nightly_rate_cents"].(int64); ok {
		l.NightlyRateCents = rate
	}
	return nil
}

func validLodging() *model.Lodging {
	return &model.Lodging{
		HostID:           "64a0000000000000000000cc",
		Name:             "Casa del Mar",
		Address:          "12 Shore Rd",
		City:             "Cartagena",
		NightlyRateCents: 10000,
		Capacity:         4,
	}
}

func TestCreateLodging(t *testing.T) {
	repo := newMockLodgingRepo()
	svc := NewLodgingService(repo, testConfig())

	l := validLodging()
	if err := svc.Create(context.Background(), l); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if l.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if !l.Active {
		t.Error("Create() new lodging should start active")
	}
}

func TestCreateLodgingValidation(t *testing.T) {
	svc := NewLodgingService(newMockLodgingRepo(), testConfig())

	tests := []struct {
		name   string
		mutate func(*model.Lodging)
	}{
		{"missing name", func(l *model.Lodging) { l.Name = "" }},
		{"zero rate", func(l *model.Lodging) { l.NightlyRateCents = 0 }},
		{"zero capacity", func(l *model.Lodging) { l.Capacity = 0 }},
		{"bad host id", func(l *model.Lodging) { l.HostID = "not-an-oid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLodging()
			tt.mutate(l)
			err := svc.Create(context.Background(), l)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("Create() error = %v, want validation", err)
			}
		})
	}
}

func TestDeactivate(t *testing.T) {
	repo := newMockLodgingRepo()
	svc := NewLodgingService(repo, testConfig())

	l := validLodging()
	if err := svc.Create(context.Background(), l); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Deactivate(context.Background(), l.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}

	got, err := svc.GetByID(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Active {
		t.Error("lodging still active after Deactivate()")
	}
}

func TestUpdateRequiresFields(t *testing.T) {
	svc := NewLodgingService(newMockLodgingRepo(), testConfig())

	err := svc.Update(context.Background(), "lodge-1", &model.LodgingUpdate{})
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Fatalf("Update() error = %v, want invalid input", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := NewLodgingService(newMockLodgingRepo(), testConfig())

	_, err := svc.GetByID(context.Background(), "missing")
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Fatalf("GetByID() error = %v, want not found", err)
	}
}
