package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/localink/localink/internal/domain"
	"github.com/stretchr/testify/require"
)

var (
	guideActor   = domain.Actor{ID: "guide-1", Role: domain.RoleGuide}
	touristActor = domain.Actor{ID: "tourist-1", Role: domain.RoleTourist}
)

// newTestContext builds a gin context for method and target. A nil actor
// leaves the request anonymous.
func newTestContext(method, target string, body any, actor *domain.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if actor != nil {
		c.Set(actorKey, *actor)
	}
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
