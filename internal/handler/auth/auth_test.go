package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/OrderlyNetwork/aden/conf"
	"github.com/OrderlyNetwork/aden/pkg/errors/ecode"
	"github.com/OrderlyNetwork/aden/pkg/jwt"
	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

type loginEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Token    string `json:"token"`
		ExpireAt int64  `json:"expire_at"`
	} `json:"data"`
}

func setupLogin(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conf.AppConfig.AppName = "aden"
	conf.AppConfig.Jwt.Secret = "test-secret"
	conf.AppConfig.Jwt.JwtTtl = 3600
	conf.AppConfig.Admin = conf.AdminConfig{Username: "ops", Password: "s3cret"}

	g := gin.New()
	g.POST("/login", NewHandler().Login())
	return g
}

func postLogin(g *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, req)
	return w
}

func TestLoginIssuesAdminToken(t *testing.T) {
	g := setupLogin(t)

	w := postLogin(g, `{"username":"ops","password":"s3cret"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	var env loginEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Code != ecode.Success || env.Data.Token == "" {
		t.Fatalf("envelope = %+v", env)
	}

	claims, err := jwt.ParseToken(env.Data.Token, "test-secret")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if !claims.IsAdministrator() {
		t.Fatalf("claims sub = %s, want administrator", claims.Sub)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	g := setupLogin(t)

	w := postLogin(g, `{"username":"ops","password":"nope"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

// 没配运营账号时不能用空对空混进来
func TestLoginRejectsWhenUnconfigured(t *testing.T) {
	g := setupLogin(t)
	conf.AppConfig.Admin = conf.AdminConfig{}

	w := postLogin(g, `{"username":"","password":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (binding required)", w.Code)
	}

	w = postLogin(g, `{"username":"x","password":"y"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	g := setupLogin(t)

	w := postLogin(g, `{"username":"ops"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var env loginEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Code != ecode.ValidateErr {
		t.Fatalf("code = %d, want ValidateErr", env.Code)
	}
}
