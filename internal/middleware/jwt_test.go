package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-reserve-backend/internal/domain"
	"vehicle-reserve-backend/internal/utils"
)

const testSecret = "test-secret"

func protectedApp(roles ...string) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		switch err.(type) {
		case *domain.AuthenticationError:
			_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		case *domain.AuthorizationError:
			_ = c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		default:
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
	}
	mws := []echo.MiddlewareFunc{JWTAuth(testSecret)}
	if len(roles) > 0 {
		mws = append(mws, RequireRole(roles...))
	}
	e.GET("/secure", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": CallerID(c),
			"role":    CallerRole(c),
		})
	}, mws...)
	return e
}

func doGet(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "CUSTOMER", 15)
	require.NoError(t, err)

	rec := doGet(protectedApp(), tok.Token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
}

func TestJWTAuthRejects(t *testing.T) {
	e := protectedApp()

	assert.Equal(t, http.StatusUnauthorized, doGet(e, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(e, "not-a-jwt").Code)

	// token signed with a different secret
	other, err := utils.NewAccessToken("different", 7, "CUSTOMER", 15)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doGet(e, other.Token).Code)
}

func TestRequireRole(t *testing.T) {
	e := protectedApp("ADMIN")

	admin, err := utils.NewAccessToken(testSecret, 1, "ADMIN", 15)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doGet(e, admin.Token).Code)

	customer, err := utils.NewAccessToken(testSecret, 2, "CUSTOMER", 15)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doGet(e, customer.Token).Code)
}
