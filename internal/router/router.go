// Package router builds the Echo instance: global middleware, the error
// handler, system routes and the /api route groups.
package router

import (
	"net/http"

	"github.com/deppfellow/bookshelf/internal/handler"
	"github.com/deppfellow/bookshelf/internal/middleware"
	"github.com/deppfellow/bookshelf/internal/model/book"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: the request id feeds the context logger, tracing must
	// wrap the logger so trace ids are known, and Recover sits innermost so
	// a panic is answered before the outer middleware observe the status.
	router.Use(
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Metrics.Record(),
		mw.Global.RequestLogger(),
		mw.Global.CORS(),
		mw.Global.Secure(),
		mw.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	api := router.Group("/api")
	registerBookRoutes(api, h.Book)

	return router
}

func registerBookRoutes(g *echo.Group, h *handler.BookHandler) {
	books := g.Group("/books")

	books.GET("", handler.Handle(h.Handler, h.ListBooks, http.StatusOK, &book.ListBooksPayload{}))
	books.POST("", handler.Handle(h.Handler, h.CreateBook, http.StatusCreated, &book.CreateBookPayload{}))
	books.GET("/:id", handler.Handle(h.Handler, h.GetBook, http.StatusOK, &book.GetBookByIDPayload{}))
	books.PUT("/:id", handler.Handle(h.Handler, h.UpdateBook, http.StatusOK, &book.UpdateBookPayload{}))
	books.DELETE("/:id", handler.HandleNoContent(h.Handler, h.DeleteBook, http.StatusNoContent, &book.DeleteBookPayload{}))
}
