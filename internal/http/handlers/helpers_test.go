package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sehyun-dev/taxlink/internal/http/handlers"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h...)

	return r
}

// asUser mimics the auth middleware by stashing the identity keys the
// handlers read back out of the context.
func asUser(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("auth.userID", userID)
		c.Set("auth.role", role)
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) handlers.Envelope {
	t.Helper()

	var env handlers.Envelope

	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope: %v (body: %s)", err, w.Body.String())
	}

	return env
}

func dataMap(t *testing.T, env handlers.Envelope) map[string]interface{} {
	t.Helper()

	m, ok := env.Data.(map[string]interface{})

	if !ok {
		t.Fatalf("data is %T, want object", env.Data)
	}

	return m
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()

	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
