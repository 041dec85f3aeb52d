package compressor

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGzipCompressor(t *testing.T) {
	Convey("Given a GzipCompressor", t, func() {
		compressor := NewGzip(gzip.BestCompression)

		Convey("NewWriter method", func() {
			Convey("When streaming content through the writer", func() {
				input := []byte("CREATE TABLE users (id INT);\nINSERT INTO users VALUES (1);\n")
				var out bytes.Buffer

				w, err := compressor.NewWriter(&out)
				So(err, ShouldBeNil)
				_, err = w.Write(input)
				So(err, ShouldBeNil)
				So(w.Close(), ShouldBeNil)

				Convey("It should produce a valid gzip stream", func() {
					r, err := gzip.NewReader(&out)
					So(err, ShouldBeNil)
					defer r.Close()

					decompressed, err := io.ReadAll(r)
					So(err, ShouldBeNil)
					So(decompressed, ShouldResemble, input)
				})
			})

			Convey("When nothing is written", func() {
				var out bytes.Buffer
				w, err := compressor.NewWriter(&out)
				So(err, ShouldBeNil)
				So(w.Close(), ShouldBeNil)

				Convey("The stream is still non-empty on disk", func() {
					So(out.Len(), ShouldBeGreaterThan, 0)
				})
			})

			Convey("When the level is invalid", func() {
				_, err := NewGzip(42).NewWriter(&bytes.Buffer{})

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to create gzip writer")
				})
			})
		})

		Convey("Extension method", func() {
			So(compressor.Extension(), ShouldEqual, ".gz")
		})
	})
}
