package accounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var DeleteProfileByOwnerSQL = `DELETE FROM "profiles" AS "prf"
WHERE
	"prf"."id" = ?
RETURNING *;`

type Profiles interface {
	repository.Repository[*Profile]

	Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)
	UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error)

	DeleteByOwner(ctx context.Context, id uuid.UUID) error
	DeleteByOwnerTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string { return "username" },
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

// GetByIdentifier accepts the identity id or the username. UUID-shaped
// identifiers resolve against the id column; anything else falls through to
// username.
func (a *profiles) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *profiles) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*Profile, error) {
	for _, opt := range resolveProfileIdentifier(identifier) {
		record := &Profile{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *profiles) Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	return a.UpsertTx(ctx, a.db, record, criteria...)
}

// UpsertTx keys the upsert on the identity id. When the record carries a nil
// AvatarURL the stored value is preserved, so text-only updates never clear
// an existing avatar.
func (a *profiles) UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	current, err := a.GetByIdentifierTx(ctx, tx, record.ID.String())
	if err == nil {
		if record.AvatarURL == nil {
			record.AvatarURL = current.AvatarURL
		}
		criteria = append(criteria, repository.UpdateByID(record.ID.String()))
		return a.Repository.UpdateTx(ctx, tx, record, criteria...)
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

type identifierOption struct {
	column string
	value  string
}

func resolveProfileIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func (a *profiles) DeleteByOwner(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByOwnerTx(ctx, a.db, id)
}

// DeleteByOwnerTx removes the owner's profile row. A missing row is not an
// error: profiles are created lazily, so an account can be deleted before
// its owner ever completed one.
func (a *profiles) DeleteByOwnerTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := a.Repository.RawTx(ctx, tx, DeleteProfileByOwnerSQL, id.String())
	if err != nil && !repository.IsRecordNotFound(err) {
		return err
	}
	return nil
}
