package repository

import (
	"context"
	"errors"
	"time"

	"smartlead_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lead does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicatePlatformIdentity is returned when a create hits the
	// (lead_source, external_platform_id) unique index. Callers racing on
	// inbound messages should re-resolve and use the winner.
	ErrDuplicatePlatformIdentity = errors.New("lead already exists for platform identity")
)

const uniqueViolationCode = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        *string
	CompanyName        *string
	Title              *string
	LeadSource         domain.LeadSource
	Status             domain.Status
	ExternalPlatformID *string
	CreatedAt          time.Time
}

type CreateLeadParams struct {
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        *string
	CompanyName        *string
	Title              *string
	LeadSource         domain.LeadSource
	Status             domain.Status
	ExternalPlatformID *string
}

const leadColumns = `id, first_name, last_name, email, phone_number, company_name, title,
		lead_source, status, external_platform_id, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.FirstName, &lead.LastName, &lead.Email, &lead.PhoneNumber,
		&lead.CompanyName, &lead.Title, &lead.LeadSource, &lead.Status,
		&lead.ExternalPlatformID, &lead.CreatedAt,
	)
	return lead, err
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			first_name, last_name, email, phone_number, company_name, title,
			lead_source, status, external_platform_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+leadColumns,
		params.FirstName, params.LastName, params.Email, params.PhoneNumber,
		params.CompanyName, params.Title, params.LeadSource, params.Status,
		params.ExternalPlatformID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Lead{}, ErrDuplicatePlatformIdentity
		}
		return Lead{}, err
	}

	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}

	return lead, nil
}

// List returns leads, optionally filtered by source, newest first.
func (r *Repository) List(ctx context.Context, source *domain.LeadSource) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if source != nil {
		query += ` WHERE lead_source = $1`
		args = append(args, *source)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// Identity lookups order by created_at so "first match" is deterministic
// when multiple leads share an identifier.

func (r *Repository) FindByPhone(ctx context.Context, phoneNumber string) (*Lead, error) {
	return r.findOne(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE phone_number = $1
		ORDER BY created_at ASC LIMIT 1
	`, phoneNumber)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*Lead, error) {
	return r.findOne(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE email = $1
		ORDER BY created_at ASC LIMIT 1
	`, email)
}

func (r *Repository) FindByPlatformID(ctx context.Context, source domain.LeadSource, externalID string) (*Lead, error) {
	return r.findOne(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE lead_source = $1 AND external_platform_id = $2
		ORDER BY created_at ASC LIMIT 1
	`, source, externalID)
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
