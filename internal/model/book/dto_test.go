package book

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCreateBookPayload(t *testing.T) {
	Convey("Given a create payload", t, func() {
		year := 1965
		p := &CreateBookPayload{Title: "  Dune ", Author: "Frank Herbert", PublishedYear: &year}

		Convey("Normalize trims text fields", func() {
			p.Normalize()
			So(p.Title, ShouldEqual, "Dune")
			So(p.Validate(), ShouldBeNil)
		})

		Convey("A year of 0 is still present", func() {
			zero := 0
			p.PublishedYear = &zero
			So(p.Validate(), ShouldBeNil)
		})

		Convey("Length is counted in characters", func() {
			p.Title = strings.Repeat("é", MaxTextLength)
			So(p.Validate(), ShouldBeNil)

			p.Title += "é"
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("A missing year fails", func() {
			p.PublishedYear = nil
			So(p.Validate(), ShouldNotBeNil)
		})
	})
}

func TestUpdateBookPayload(t *testing.T) {
	Convey("Given an update payload", t, func() {
		Convey("No fields is empty and valid", func() {
			p := &UpdateBookPayload{ID: 1}
			So(p.IsEmpty(), ShouldBeTrue)
			So(p.Validate(), ShouldBeNil)
		})

		Convey("A blank title fails after normalization", func() {
			blank := "   "
			p := &UpdateBookPayload{ID: 1, Title: &blank}
			p.Normalize()

			So(*p.Title, ShouldEqual, "")
			So(p.IsEmpty(), ShouldBeFalse)
			So(p.Validate(), ShouldNotBeNil)
		})

		Convey("Normalize does not alias the caller's string", func() {
			author := " Austen "
			p := &UpdateBookPayload{ID: 1, Author: &author}
			p.Normalize()

			So(*p.Author, ShouldEqual, "Austen")
			So(author, ShouldEqual, " Austen ")
		})
	})
}
