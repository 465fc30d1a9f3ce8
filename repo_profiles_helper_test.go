package accounts

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type stubProfiles struct {
	Profiles

	upserted  []*Profile
	deleted   []uuid.UUID
	upsertErr error
	deleteErr error
}

func (s *stubProfiles) UpsertTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserted = append(s.upserted, record)
	return record, nil
}

func (s *stubProfiles) Upsert(ctx context.Context, record *Profile, criteria ...repository.UpdateCriteria) (*Profile, error) {
	return s.UpsertTx(ctx, nil, record, criteria...)
}

func (s *stubProfiles) DeleteByOwnerTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubProfiles) DeleteByOwner(ctx context.Context, id uuid.UUID) error {
	return s.DeleteByOwnerTx(ctx, nil, id)
}

type stubRepoManager struct {
	profiles *stubProfiles
	txErr    error
}

func (m *stubRepoManager) Validate() error { return nil }

func (m *stubRepoManager) MustValidate() {}

func (m *stubRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return f(ctx, bun.Tx{})
}

func (m *stubRepoManager) Profiles() Profiles { return m.profiles }

type stubAdmin struct {
	deleted []uuid.UUID
	err     error
}

func (s *stubAdmin) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubStorage struct {
	bucket      string
	path        string
	blob        []byte
	contentType string
	upsert      bool
	err         error
	url         string
}

func (s *stubStorage) Upload(ctx context.Context, bucket, path string, blob []byte, contentType string, upsert bool) error {
	if s.err != nil {
		return s.err
	}
	s.bucket = bucket
	s.path = path
	s.blob = blob
	s.contentType = contentType
	s.upsert = upsert
	return nil
}

func (s *stubStorage) PublicURL(bucket, path string) string {
	return s.url
}

type stubConfig struct{}

func (stubConfig) GetSessionCookieName() string    { return "session_token" }
func (stubConfig) GetSessionCookieDuration() int   { return 24 }
func (stubConfig) GetSiteURL() string              { return "https://example.com" }
func (stubConfig) GetAvatarBucket() string         { return "avatars" }
func (stubConfig) GetRejectedRouteKey() string     { return "rejected_route" }
func (stubConfig) GetRejectedRouteDefault() string { return "/login" }
