package accounts_test

import (
	"context"

	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIdentityClient implements accounts.IdentityClient
type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) SignInWithPassword(ctx context.Context, email, password string) (*accounts.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*accounts.Session)
	return session, args.Error(1)
}

func (m *MockIdentityClient) SignUp(ctx context.Context, email, password string) (*accounts.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *MockIdentityClient) UpdateUser(ctx context.Context, accessToken string, update accounts.UserUpdate) (*accounts.Identity, error) {
	args := m.Called(ctx, accessToken, update)
	identity, _ := args.Get(0).(*accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) VerifyOTP(ctx context.Context, otpType accounts.OTPType, tokenHash string) (*accounts.Session, error) {
	args := m.Called(ctx, otpType, tokenHash)
	session, _ := args.Get(0).(*accounts.Session)
	return session, args.Error(1)
}

func (m *MockIdentityClient) GetUser(ctx context.Context, accessToken string) (*accounts.Identity, error) {
	args := m.Called(ctx, accessToken)
	identity, _ := args.Get(0).(*accounts.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityClient) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// MockAdminClient implements accounts.AdminClient
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) DeleteUser(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockBlobStorage implements accounts.BlobStorage
type MockBlobStorage struct {
	mock.Mock
}

func (m *MockBlobStorage) Upload(ctx context.Context, bucket, path string, blob []byte, contentType string, upsert bool) error {
	args := m.Called(ctx, bucket, path, blob, contentType, upsert)
	return args.Error(0)
}

func (m *MockBlobStorage) PublicURL(bucket, path string) string {
	args := m.Called(bucket, path)
	return args.String(0)
}

// testConfig implements accounts.Config
type testConfig struct {
	cookieName     string
	cookieDuration int
	siteURL        string
	avatarBucket   string
	rejectedKey    string
	rejectedRoute  string
}

func newTestConfig() testConfig {
	return testConfig{
		cookieName:     "session_token",
		cookieDuration: 24,
		siteURL:        "https://example.com",
		avatarBucket:   "avatars",
		rejectedKey:    "rejected_route",
		rejectedRoute:  "/login",
	}
}

func (c testConfig) GetSessionCookieName() string    { return c.cookieName }
func (c testConfig) GetSessionCookieDuration() int   { return c.cookieDuration }
func (c testConfig) GetSiteURL() string              { return c.siteURL }
func (c testConfig) GetAvatarBucket() string         { return c.avatarBucket }
func (c testConfig) GetRejectedRouteKey() string     { return c.rejectedKey }
func (c testConfig) GetRejectedRouteDefault() string { return c.rejectedRoute }

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
