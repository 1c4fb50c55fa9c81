package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/webauth"
	"github.com/layer-3/webauth/adapters/events"
	"github.com/layer-3/webauth/adapters/signer"
	"github.com/layer-3/webauth/adapters/tokenizer"
	"github.com/layer-3/webauth/core"
	"github.com/layer-3/webauth/internal/testutil"
	"github.com/layer-3/webauth/service"
	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	ledger *testutil.FakeLedger
	client *keypair.Full
}

func newTestServer(t *testing.T, ttl time.Duration) *testServer {
	t.Helper()
	server := testutil.RandomAccount(t)
	s, err := signer.NewKeypairSigner(server.Seed())
	require.NoError(t, err)
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	ledger := testutil.NewFakeLedger(server.Address())
	logger := log.NewLogger(log.DiscardHandler())
	svc, err := service.NewAuthService(service.Settings{
		Contract:      testutil.ContractAddress,
		WebAuthDomain: "auth.example.com",
	}, ledger, s, tokenizer.NewJWTTokenizer(key, "issuer", ttl), events.NewWatermillPublisher(pubSub), logger)
	require.NoError(t, err)

	return &testServer{router: SetupRouter(svc, logger), ledger: ledger, client: testutil.RandomAccount(t)}
}

func (s *testServer) do(t *testing.T, method, target string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// challenge requests a challenge and returns the counter-signed validation body
func (s *testServer) challenge(t *testing.T) map[string]string {
	t.Helper()
	q := url.Values{"account": {s.client.Address()}, "home_domain": {"example.com"}}
	w, resp := s.do(t, http.MethodGet, "/auth?"+q.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	entryB64 := resp["authorization_entry"].(string)
	entry, err := core.DecodeEntry(entryB64)
	require.NoError(t, err)
	creds, err := webauth.AuthorizeEntry(entry, s.client, 2000, testutil.Passphrase)
	require.NoError(t, err)
	encoded, err := core.EncodeCredentials(creds)
	require.NoError(t, err)

	return map[string]string{
		"authorization_entry": entryB64,
		"server_signature":    resp["server_signature"].(string),
		"credentials":         encoded,
	}
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t, time.Hour)

	w, resp := s.do(t, http.MethodPost, "/auth", s.challenge(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := resp["token"].(string)
	require.NotEmpty(t, token)

	w, resp = s.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, s.client.Address(), resp["account"])
	assert.Equal(t, "example.com", resp["home_domain"])
	assert.Equal(t, "auth.example.com", resp["web_auth_domain"])
}

func TestChallengeJSON(t *testing.T) {
	s := newTestServer(t, time.Hour)

	w, resp := s.do(t, http.MethodPost, "/auth/challenge", map[string]string{
		"account":       s.client.Address(),
		"client_domain": "wallet.example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, resp["authorization_entry"])
	assert.Len(t, resp["server_signature"], 128)
}

func TestChallengeErrors(t *testing.T) {
	s := newTestServer(t, time.Hour)

	w, resp := s.do(t, http.MethodGet, "/auth", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(core.KindInvalidRequest), resp["kind"])

	w, resp = s.do(t, http.MethodGet, "/auth?account=GNOPE", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(core.KindInvalidRequest), resp["kind"])

	s.ledger.FetchErr = errors.New("connection refused")
	w, resp = s.do(t, http.MethodGet, "/auth?account="+s.client.Address(), nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(core.KindAccountLookup), resp["kind"])
	assert.NotContains(t, resp["error"], "connection refused")
}

func TestValidateErrors(t *testing.T) {
	s := newTestServer(t, time.Hour)
	body := s.challenge(t)

	w, resp := s.do(t, http.MethodPost, "/auth", map[string]string{"authorization_entry": body["authorization_entry"]}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(core.KindInvalidRequest), resp["kind"])

	forged := map[string]string{}
	for k, v := range body {
		forged[k] = v
	}
	forged["server_signature"] = "00" + body["server_signature"][2:]
	if forged["server_signature"] == body["server_signature"] {
		forged["server_signature"] = "ff" + body["server_signature"][2:]
	}
	w, resp = s.do(t, http.MethodPost, "/auth", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(core.KindSignatureMismatch), resp["kind"])

	forged["server_signature"] = "not hex"
	w, resp = s.do(t, http.MethodPost, "/auth", forged, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(core.KindDecode), resp["kind"])
}

func TestValidateRejectsImpostor(t *testing.T) {
	s := newTestServer(t, time.Hour)
	q := url.Values{"account": {s.client.Address()}}
	w, resp := s.do(t, http.MethodGet, "/auth?"+q.Encode(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	entry, err := core.DecodeEntry(resp["authorization_entry"].(string))
	require.NoError(t, err)
	creds, err := webauth.AuthorizeEntry(entry, testutil.RandomAccount(t), 2000, testutil.Passphrase)
	require.NoError(t, err)
	encoded, err := core.EncodeCredentials(creds)
	require.NoError(t, err)

	w, resp = s.do(t, http.MethodPost, "/auth", map[string]string{
		"authorization_entry": resp["authorization_entry"].(string),
		"server_signature":    resp["server_signature"].(string),
		"credentials":         encoded,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(core.KindSimulationRejected), resp["kind"])
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, time.Hour)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Invalid authorization header"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Invalid authorization header"},
		{"empty token", "Bearer ", "Invalid authorization header"},
		{"garbage token", "Bearer abc.def.ghi", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			w, resp := s.do(t, http.MethodGet, "/api/me", nil, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestAuthMiddlewareSchemeIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t, time.Hour)

	w, resp := s.do(t, http.MethodPost, "/auth", s.challenge(t), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := resp["token"].(string)

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		w, resp = s.do(t, http.MethodGet, "/api/me", nil, map[string]string{"Authorization": scheme + " " + token})
		assert.Equal(t, http.StatusOK, w.Code, scheme)
		assert.Equal(t, s.client.Address(), resp["account"], scheme)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrDecode, http.StatusBadRequest},
		{core.ErrInvalidRequest, http.StatusBadRequest},
		{core.ErrInvalidCredentials, http.StatusBadRequest},
		{core.ErrSignatureMismatch, http.StatusUnauthorized},
		{core.ErrSimulationRejected, http.StatusUnauthorized},
		{core.ErrAccountLookup, http.StatusBadGateway},
		{core.ErrSimulationTransport, http.StatusBadGateway},
		{core.ErrEmptyAuthorization, http.StatusInternalServerError},
		{core.ErrSigning, http.StatusInternalServerError},
		{core.ErrTokenIssuance, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%v", tt.err)
	}
}
