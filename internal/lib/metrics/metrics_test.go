package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Given a fresh metrics instance", t, func() {
		m := New()

		Convey("HTTP requests are counted per route, method and status", func() {
			m.RecordHTTPRequest("/api/books/:id", http.MethodGet, http.StatusOK, 5*time.Millisecond)
			m.RecordHTTPRequest("/api/books/:id", http.MethodGet, http.StatusOK, 7*time.Millisecond)
			m.RecordHTTPRequest("/api/books/:id", http.MethodGet, http.StatusNotFound, time.Millisecond)

			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/books/:id", "GET", "200")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/books/:id", "GET", "404")), ShouldEqual, 1)
		})

		Convey("Book operations are counted per outcome", func() {
			m.RecordBookOperation("create", OutcomeSuccess)
			m.RecordBookOperation("get", OutcomeNotFound)

			So(testutil.ToFloat64(m.bookOperations.WithLabelValues("create", OutcomeSuccess)), ShouldEqual, 1)
			So(testutil.ToFloat64(m.bookOperations.WithLabelValues("get", OutcomeNotFound)), ShouldEqual, 1)
		})

		Convey("The handler exposes the registry", func() {
			m.RecordBookOperation("delete", OutcomeSuccess)

			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "bookshelf_books_operations_total")
			So(rec.Body.String(), ShouldContainSubstring, "go_goroutines")
		})

		Convey("Two instances do not collide", func() {
			So(func() { New() }, ShouldNotPanic)
		})
	})
}
