package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const absenceColumns = `id, professional_id, date, kind, absent_kind, partial_start, partial_end,
	arrival_minute, vacation_days, medical_document, shift, notes, created_at, updated_at`

// AbsenceRepository implements domain.AbsenceRepository.
type AbsenceRepository struct {
	sqlRepository
	documents crypto.Encrypter
}

// AbsenceOption configures an AbsenceRepository.
type AbsenceOption func(*AbsenceRepository)

// WithDocumentCipher seals medical document references at rest.
func WithDocumentCipher(enc crypto.Encrypter) AbsenceOption {
	return func(r *AbsenceRepository) { r.documents = enc }
}

// NewAbsenceRepository creates an absence repository for conn.
func NewAbsenceRepository(conn database.Connection, opts ...AbsenceOption) *AbsenceRepository {
	r := &AbsenceRepository{sqlRepository: sqlRepository{conn: conn}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save inserts or updates a record. A second active record for the same
// professional and date fails with domain.ErrAbsenceExists.
func (r *AbsenceRepository) Save(ctx context.Context, a *domain.AbsenceRecord) error {
	var partialStart, partialEnd, arrival, vacationDays any
	if p := a.Partial(); p != nil {
		partialStart, partialEnd = p.Start.Minutes(), p.End.Minutes()
	}
	if t := a.Arrival(); t != nil {
		arrival = t.Minutes()
	}
	if a.VacationDays() > 0 {
		vacationDays = a.VacationDays()
	}
	document, err := crypto.SealString(r.documents, a.MedicalDocument())
	if err != nil {
		return err
	}

	query := r.q(`
		INSERT INTO absences (` + absenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			notes = excluded.notes,
			updated_at = excluded.updated_at`)

	_, err = r.exec(ctx).Exec(ctx, query,
		a.ID(),
		a.ProfessionalID(),
		a.Date(),
		string(a.Kind()),
		nullString(string(a.AbsentKind())),
		partialStart,
		partialEnd,
		arrival,
		vacationDays,
		nullString(document),
		nullString(string(a.Shift())),
		a.Notes(),
		a.CreatedAt().UTC(),
		a.UpdatedAt().UTC(),
	)
	if database.IsUniqueViolation(err) {
		return domain.ErrAbsenceExists
	}
	return err
}

// FindByID returns the record or domain.ErrAbsenceNotFound.
func (r *AbsenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AbsenceRecord, error) {
	a, err := r.scan(r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+absenceColumns+` FROM absences WHERE id = ?`), id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrAbsenceNotFound
		}
		return nil, err
	}
	return a, nil
}

// FindActive returns the non-voided record of the professional on date, or nil.
func (r *AbsenceRepository) FindActive(ctx context.Context, professionalID uuid.UUID, date domain.Date) (*domain.AbsenceRecord, error) {
	query := r.q(`
		SELECT ` + absenceColumns + `
		FROM absences
		WHERE professional_id = ? AND date = ? AND kind <> 'voided'`)
	a, err := r.scan(r.exec(ctx).QueryRow(ctx, query, professionalID, date))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AbsenceRepository) scan(row database.Row) (*domain.AbsenceRecord, error) {
	var (
		id, professionalID       uuid.UUID
		date                     domain.Date
		kind                     string
		absentKind               *string
		partialStart, partialEnd *int64
		arrivalMinute            *int64
		vacationDays             *int64
		medicalDocument, shift   *string
		notes                    string
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(&id, &professionalID, &date, &kind, &absentKind, &partialStart, &partialEnd,
		&arrivalMinute, &vacationDays, &medicalDocument, &shift, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	document, err := crypto.OpenString(r.documents, deref(medicalDocument))
	if err != nil {
		return nil, err
	}

	var partial *domain.Interval
	if partialStart != nil && partialEnd != nil {
		partial = &domain.Interval{Start: domain.TimeOfDay(*partialStart), End: domain.TimeOfDay(*partialEnd)}
	}
	var arrival *domain.TimeOfDay
	if arrivalMinute != nil {
		t := domain.TimeOfDay(*arrivalMinute)
		arrival = &t
	}

	return domain.RehydrateAbsenceRecord(
		id, professionalID, date,
		domain.AbsenceKind(kind),
		domain.AbsentKind(deref(absentKind)),
		partial,
		arrival,
		int(deref(vacationDays)),
		document,
		domain.Shift(deref(shift)),
		notes,
		createdAt, updatedAt,
	), nil
}
