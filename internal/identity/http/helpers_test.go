package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vitrine/identity/internal/identity/domain"
	"github.com/vitrine/identity/internal/identity/service"
	"github.com/vitrine/identity/internal/identity/store"
	"github.com/vitrine/identity/internal/identity/store/drivers/sqlite"
	"github.com/vitrine/identity/pkg/cryptox"
	"github.com/vitrine/identity/pkg/jwtx"
	"github.com/vitrine/identity/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "identity-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// captureSender records dispatched codes instead of delivering them.
type captureSender struct {
	mu    sync.Mutex
	codes map[string]string // target -> last code
}

func (c *captureSender) SendCode(_ context.Context, _ domain.Channel, target, code string, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = make(map[string]string)
	}
	c.codes[target] = code
	return nil
}

func (c *captureSender) codeFor(t *testing.T, target string) string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	code, ok := c.codes[target]
	require.True(t, ok, "no code dispatched to %s", target)
	return code
}

type testServer struct {
	*httptest.Server
	sender *captureSender
	store  store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer := jwtx.NewSigner(priv, "vitrine-identity-test")
	verifier := jwtx.NewVerifier(pub, "vitrine-identity-test")

	sender := &captureSender{}
	otp := &service.OTPService{
		Store:          st,
		Sender:         sender,
		CodeDigits:     4,
		CodeTTL:        5 * time.Minute,
		ResendCooldown: 30 * time.Second,
		MaxAttempts:    5,
		ProofTTL:       10 * time.Minute,
		MobileDigits:   10,
	}
	sessions := &service.SessionService{
		Store:      st,
		Signer:     signer,
		SessionTTL: time.Hour,
	}
	auth := &service.AuthService{
		Store:        st,
		OTP:          otp,
		Sessions:     sessions,
		MobileDigits: domain.DefaultMobileDigits,
	}

	router := NewRouter(verifier, "test", st, slogx.New(slogx.Config{Level: "error", Format: "text"}))
	router.OTPService = otp
	router.AuthService = auth
	router.SessionService = sessions
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, sender: sender, store: st}
}

// postJSON sends body to path and decodes the envelope into a generic map.
func (s *testServer) postJSON(t *testing.T, path string, body map[string]any) (int, map[string]any) {
	t.Helper()
	return s.do(t, http.MethodPost, path, "", body)
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body map[string]any) (int, map[string]any) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.URL+path, buf)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// verifyTarget runs the request/verify exchange for one identifier and
// returns the minted verification token.
func (s *testServer) verifyTarget(t *testing.T, kind, value string) string {
	t.Helper()

	code, out := s.postJSON(t, "/v1/otp/request", map[string]any{"type": kind, "value": value})
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, out["status"])

	code, out = s.postJSON(t, "/v1/otp/verify", map[string]any{
		"type":  kind,
		"value": value,
		"otp":   s.sender.codeFor(t, value),
	})
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, out["status"])
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// registerUser walks the full registration protocol and returns the created
// profile data.
func (s *testServer) registerUser(t *testing.T, email, mobile, password string) map[string]any {
	t.Helper()

	body := map[string]any{
		"first_name":   "Ada",
		"last_name":    "Okafor",
		"mobile":       mobile,
		"password":     password,
		"mobile_proof": s.verifyTarget(t, "mobile", mobile),
	}
	if email != "" {
		body["email"] = email
		body["email_proof"] = s.verifyTarget(t, "email", email)
	}

	code, out := s.postJSON(t, "/v1/register", body)
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, out["status"])
	data, _ := out["data"].(map[string]any)
	require.NotNil(t, data)
	return data
}
