package services

import (
	"context"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProfessionalRepo struct {
	mock.Mock
}

func (m *mockProfessionalRepo) Save(ctx context.Context, p *domain.Professional) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProfessionalRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Professional, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Professional), args.Error(1)
}

func (m *mockProfessionalRepo) ListActive(ctx context.Context, specialty string) ([]*domain.Professional, error) {
	args := m.Called(ctx, specialty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Professional), args.Error(1)
}

func (m *mockProfessionalRepo) List(ctx context.Context) ([]*domain.Professional, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Professional), args.Error(1)
}

func (m *mockProfessionalRepo) LockForBooking(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

type mockAbsenceRepo struct {
	mock.Mock
}

func (m *mockAbsenceRepo) Save(ctx context.Context, a *domain.AbsenceRecord) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAbsenceRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.AbsenceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AbsenceRecord), args.Error(1)
}

func (m *mockAbsenceRepo) FindActive(ctx context.Context, professionalID uuid.UUID, date domain.Date) (*domain.AbsenceRecord, error) {
	args := m.Called(ctx, professionalID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AbsenceRecord), args.Error(1)
}

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Save(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) FindActiveForProfessional(ctx context.Context, professionalID uuid.UUID, date domain.Date, exclude *uuid.UUID) ([]domain.ActiveBooking, error) {
	args := m.Called(ctx, professionalID, date, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActiveBooking), args.Error(1)
}

func (m *mockBookingRepo) FindActiveForClient(ctx context.Context, clientID uuid.UUID, date domain.Date, exclude *uuid.UUID) ([]domain.ActiveBooking, error) {
	args := m.Called(ctx, clientID, date, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActiveBooking), args.Error(1)
}

func (m *mockBookingRepo) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, s *domain.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSnapshotRepo) Find(ctx context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *mockSnapshotRepo) Delete(ctx context.Context, keys ...domain.SnapshotKey) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

type mockSnapshotCache struct {
	mock.Mock
}

func (m *mockSnapshotCache) Get(ctx context.Context, key domain.SnapshotKey) (*domain.Snapshot, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *mockSnapshotCache) Set(ctx context.Context, s *domain.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSnapshotCache) Invalidate(ctx context.Context, keys ...domain.SnapshotKey) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}
