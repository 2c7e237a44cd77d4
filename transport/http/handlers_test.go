package http

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritick/veritick/adapters/store"
	"github.com/veritick/veritick/adapters/tokenizer"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/service"
	"go.uber.org/zap"
)

type testEnv struct {
	router        *gin.Engine
	cipher        *core.Cipher
	session       *service.GeneratorSession
	operatorToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := core.NewSessionKey()
	require.NoError(t, err)
	cipher, err := core.NewCipher(key)
	require.NoError(t, err)

	recorder := store.NewTokenCache(time.Hour)
	t.Cleanup(recorder.Stop)

	logger := zap.NewNop().Sugar()
	session := service.NewGeneratorSession(cipher, recorder, logger, nil, service.SessionConfig{
		Version:   1,
		RoomCode:  1,
		TargetFPS: 30,
	})

	attendLog := store.NewMemoryLog(500)
	attendance := service.NewAttendanceService(attendLog, nil, logger, nil)
	reports := service.NewReportService(attendLog)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	opTokenizer := tokenizer.NewJWTTokenizer(signKey)

	operatorToken, err := opTokenizer.IssueOperatorToken(session.ID())
	require.NoError(t, err)

	return &testEnv{
		router:        SetupRouter(session, attendance, reports, opTokenizer),
		cipher:        cipher,
		session:       session,
		operatorToken: operatorToken,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestMintAndSubmitRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/qr", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var mintResp struct {
		Cipher string `json:"cipher"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mintResp))
	require.NotEmpty(t, mintResp.Cipher)

	// The minted token must decrypt under the session cipher.
	_, err := env.cipher.Decrypt(mintResp.Cipher)
	require.NoError(t, err)

	w = env.do(t, http.MethodPost, "/api/qr",
		`{"cipher":"`+mintResp.Cipher+`","studentId":"alice"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var submitResp struct {
		OK           bool   `json:"ok"`
		StudentID    string `json:"studentId"`
		ServerRecvTs int64  `json:"serverRecvTs"`
		Cipher       string `json:"cipher"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitResp))
	assert.True(t, submitResp.OK)
	assert.Equal(t, "alice", submitResp.StudentID)
	assert.Equal(t, mintResp.Cipher, submitResp.Cipher)
	assert.Greater(t, submitResp.ServerRecvTs, int64(0))

	w = env.do(t, http.MethodGet, "/api/attend-log", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var logResp struct {
		Items []struct {
			ID        uint64 `json:"id"`
			IP        string `json:"ip"`
			StudentID string `json:"studentId"`
			Cipher    string `json:"cipher"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logResp))
	require.Len(t, logResp.Items, 1)
	assert.Equal(t, "alice", logResp.Items[0].StudentID)
	assert.Equal(t, mintResp.Cipher, logResp.Items[0].Cipher)
}

func TestSubmitScanMissingField(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"studentId":"alice"}`,
		`{"cipher":"abc"}`,
		`{}`,
		`not json`,
	} {
		w := env.do(t, http.MethodPost, "/api/qr", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)

		var resp struct {
			OK    bool   `json:"ok"`
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Equal(t, "invalid_request", resp.Error)
	}
}

func TestServerTime(t *testing.T) {
	env := newTestEnv(t)

	before := time.Now().UnixMilli()
	w := env.do(t, http.MethodGet, "/api/server-time", "", "")
	after := time.Now().UnixMilli()
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ServerTime int64 `json:"serverTime"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.ServerTime, before)
	assert.LessOrEqual(t, resp.ServerTime, after)
}

func TestReportFixedPolicy(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/qr", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var mintResp struct {
		Cipher string `json:"cipher"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mintResp))

	w = env.do(t, http.MethodPost, "/api/qr",
		`{"cipher":"`+mintResp.Cipher+`","studentId":"alice"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/report?policy=fixed", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var report service.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Participants, 1)
	// Submitted in-process within milliseconds of minting.
	assert.Equal(t, core.TierNormal, report.Participants[0].Tier)
}

func TestReportUnknownPolicy(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/report?policy=median", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionEndpointsRequireOperatorToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/session", "", "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/session", "", env.operatorToken)
	require.Equal(t, http.StatusOK, w.Code)

	var status service.SessionStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, env.session.ID(), status.ID)
	assert.Equal(t, 30, status.TargetFPS)
}

func TestSetFPS(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/session/fps", `{"fps":60}`, env.operatorToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 60, env.session.TargetFPS())

	w = env.do(t, http.MethodPost, "/api/session/fps", `{"fps":-1}`, env.operatorToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/session/fps", `{}`, env.operatorToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/session/fps", `{"fps":30}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
