package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/deppfellow/bookshelf/internal/lib/metrics"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config:  config.Default(),
		Logger:  &logger,
		Metrics: metrics.New(),
	}
}

func newTestEcho(s *server.Server) *echo.Echo {
	mw := NewMiddlewares(s)

	e := echo.New()
	e.HTTPErrorHandler = mw.Global.GlobalErrorHandler
	e.Use(
		RequestID(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Metrics.Record(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
	)
	return e
}

func decodeError(rec *httptest.ResponseRecorder) errs.HTTPError {
	var body errs.HTTPError
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestResolveError(t *testing.T) {
	Convey("ResolveError", t, func() {
		Convey("keeps application errors", func() {
			original := errs.NewNotFoundError("Book not found", true, nil)
			So(ResolveError(errors.Wrap(original, "get")), ShouldEqual, original)
		})

		Convey("turns an unmatched route into Route not found", func() {
			resolved := ResolveError(echo.ErrNotFound)
			So(resolved.Status, ShouldEqual, http.StatusNotFound)
			So(resolved.Message, ShouldEqual, "Route not found")
		})

		Convey("keeps the status of other echo errors", func() {
			resolved := ResolveError(echo.ErrMethodNotAllowed)
			So(resolved.Status, ShouldEqual, http.StatusMethodNotAllowed)
			So(resolved.Code, ShouldEqual, "METHOD_NOT_ALLOWED")
		})

		Convey("maps database errors", func() {
			resolved := ResolveError(errors.Wrap(&pgconn.PgError{Code: "23502", TableName: "books", ColumnName: "title"}, "insert"))
			So(resolved.Status, ShouldEqual, http.StatusBadRequest)
		})

		Convey("hides unknown errors behind a 500", func() {
			resolved := ResolveError(errors.New("boom"))
			So(resolved.Status, ShouldEqual, http.StatusInternalServerError)
			So(resolved.Message, ShouldEqual, http.StatusText(http.StatusInternalServerError))
		})
	})
}

func TestGlobalErrorHandler(t *testing.T) {
	Convey("Given an echo instance with the global middleware", t, func() {
		s := newTestServer()
		e := newTestEcho(s)

		e.GET("/fail", func(c echo.Context) error {
			return errs.NewUnprocessableEntityError([]errs.FieldError{{Field: "title", Error: "is required"}})
		})
		e.GET("/panic", func(c echo.Context) error {
			panic("kaboom")
		})
		e.GET("/ok", func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		Convey("Application errors are serialized with their field errors", func() {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
			body := decodeError(rec)
			So(body.Message, ShouldEqual, errs.ValidationFailedMessage)
			So(body.Override, ShouldBeTrue)
			So(body.Errors, ShouldResemble, []errs.FieldError{{Field: "title", Error: "is required"}})
		})

		Convey("Unknown routes use the same schema", func() {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decodeError(rec).Code, ShouldEqual, "NOT_FOUND")
		})

		Convey("Panics become a 500", func() {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(decodeError(rec).Code, ShouldEqual, "INTERNAL_SERVER_ERROR")
		})

		Convey("A request id is generated or propagated", func() {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
			So(rec.Header().Get(RequestIDHeader), ShouldNotBeEmpty)

			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.Header.Set(RequestIDHeader, "abc-123")
			rec = httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			So(rec.Header().Get(RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("Metrics see the final status of failed requests", func() {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

			count, err := testutil.GatherAndCount(s.Metrics.Registry(), "bookshelf_http_requests_total")
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)
		})
	})
}
