package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/bookshelf/internal/model/book"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRedisBookRepository(t *testing.T) {
	Convey("Given a redis book repository", t, func() {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		repo := NewRedisBookRepository(client, "test:")
		ctx := context.Background()

		dune := &book.CreateBookPayload{Title: "Dune", Author: "Frank Herbert", PublishedYear: intPtr(1965)}
		emma := &book.CreateBookPayload{Title: "Emma", Author: "Jane Austen", PublishedYear: intPtr(1815)}

		Convey("An empty store lists no books", func() {
			books, err := repo.ListBooks(ctx)

			So(err, ShouldBeNil)
			So(books, ShouldNotBeNil)
			So(books, ShouldBeEmpty)
		})

		Convey("Created books get increasing ids and list in order", func() {
			first, err := repo.CreateBook(ctx, dune)
			So(err, ShouldBeNil)
			second, err := repo.CreateBook(ctx, emma)
			So(err, ShouldBeNil)

			So(first.ID, ShouldEqual, 1)
			So(second.ID, ShouldEqual, 2)

			books, err := repo.ListBooks(ctx)
			So(err, ShouldBeNil)
			So(books, ShouldResemble, []book.Book{*first, *second})

			So(mr.HGet("test:books:1", "published_year"), ShouldEqual, "1965")
		})

		Convey("Ids are not reused after a delete", func() {
			first, _ := repo.CreateBook(ctx, dune)
			So(repo.DeleteBook(ctx, first.ID), ShouldBeNil)

			next, err := repo.CreateBook(ctx, emma)
			So(err, ShouldBeNil)
			So(next.ID, ShouldEqual, 2)
		})

		Convey("GetBookByID", func() {
			created, _ := repo.CreateBook(ctx, dune)

			got, err := repo.GetBookByID(ctx, created.ID)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, created)

			_, err = repo.GetBookByID(ctx, 99)
			So(errors.Is(err, ErrBookNotFound), ShouldBeTrue)
		})

		Convey("UpdateBook changes only supplied fields", func() {
			created, _ := repo.CreateBook(ctx, dune)

			updated, err := repo.UpdateBook(ctx, &book.UpdateBookPayload{ID: created.ID, PublishedYear: intPtr(1966)})

			So(err, ShouldBeNil)
			So(*updated, ShouldResemble, book.Book{ID: created.ID, Title: "Dune", Author: "Frank Herbert", PublishedYear: 1966})

			got, _ := repo.GetBookByID(ctx, created.ID)
			So(got, ShouldResemble, updated)
		})

		Convey("UpdateBook on a missing id does not create it", func() {
			_, err := repo.UpdateBook(ctx, &book.UpdateBookPayload{ID: 5, Title: strPtr("Ghost")})

			So(errors.Is(err, ErrBookNotFound), ShouldBeTrue)
			So(mr.Exists("test:books:5"), ShouldBeFalse)
		})

		Convey("DeleteBook removes the record and its index entry", func() {
			created, _ := repo.CreateBook(ctx, dune)

			So(repo.DeleteBook(ctx, created.ID), ShouldBeNil)
			So(errors.Is(repo.DeleteBook(ctx, created.ID), ErrBookNotFound), ShouldBeTrue)

			books, err := repo.ListBooks(ctx)
			So(err, ShouldBeNil)
			So(books, ShouldBeEmpty)
		})

		Convey("An index entry without a hash is skipped", func() {
			created, _ := repo.CreateBook(ctx, dune)
			mr.Del("test:books:1")

			books, err := repo.ListBooks(ctx)
			So(err, ShouldBeNil)
			So(books, ShouldBeEmpty)
			So(created.ID, ShouldEqual, 1)
		})
	})
}
