package app

import (
	"github.com/felixgeelhaar/slotwise/internal/scheduling/domain"
	"github.com/felixgeelhaar/slotwise/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/slotwise/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories on one connection. The SQL
// repositories rebind their queries per driver, so PostgreSQL and SQLite
// share one implementation.
type RepositoryFactory struct {
	conn      database.Connection
	documents crypto.Encrypter
}

// NewRepositoryFactory creates a new repository factory. documents may be
// nil, in which case medical document references are stored as given.
func NewRepositoryFactory(conn database.Connection, documents crypto.Encrypter) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, documents: documents}
}

// ProfessionalRepository creates a professional repository.
func (f *RepositoryFactory) ProfessionalRepository() domain.ProfessionalRepository {
	return persistence.NewProfessionalRepository(f.conn)
}

// ClientRepository creates a client repository.
func (f *RepositoryFactory) ClientRepository() domain.ClientRepository {
	return persistence.NewClientRepository(f.conn)
}

// ServiceRepository creates a service repository.
func (f *RepositoryFactory) ServiceRepository() domain.ServiceRepository {
	return persistence.NewServiceRepository(f.conn)
}

// AbsenceRepository creates an absence repository.
func (f *RepositoryFactory) AbsenceRepository() domain.AbsenceRepository {
	if f.documents == nil {
		return persistence.NewAbsenceRepository(f.conn)
	}
	return persistence.NewAbsenceRepository(f.conn, persistence.WithDocumentCipher(f.documents))
}

// BookingRepository creates a booking repository.
func (f *RepositoryFactory) BookingRepository() domain.BookingRepository {
	return persistence.NewBookingRepository(f.conn)
}

// SnapshotRepository creates a snapshot repository.
func (f *RepositoryFactory) SnapshotRepository() domain.SnapshotRepository {
	return persistence.NewSnapshotRepository(f.conn)
}

// OutboxRepository creates an outbox repository.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLRepository(f.conn)
}

// UnitOfWork creates a unit of work on the connection.
func (f *RepositoryFactory) UnitOfWork() *database.GenericUnitOfWork {
	return database.NewUnitOfWork(f.conn)
}

// Driver returns the database driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.conn.Driver()
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
