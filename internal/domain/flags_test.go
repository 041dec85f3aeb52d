package domain

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRunFlags(t *testing.T) {
	Convey("Given RunFlags", t, func() {
		Convey("Validate", func() {
			Convey("When --run is combined with a deleting mode", func() {
				for _, f := range []RunFlags{
					{RunOnly: true, DeleteOnly: true},
					{RunOnly: true, AutoCleanup: true},
					{RunOnly: true, DeleteAll: true},
					{RunOnly: true, DeleteOnly: true, AutoCleanup: true, DeleteAll: true},
				} {
					err := f.Validate()
					So(err, ShouldNotBeNil)
					So(errors.Is(err, ErrConflictingFlags), ShouldBeTrue)
				}
			})

			Convey("When the deleting modes are combined with each other", func() {
				for _, f := range []RunFlags{
					{},
					{RunOnly: true},
					{DeleteOnly: true},
					{AutoCleanup: true},
					{DeleteAll: true},
					{DeleteOnly: true, AutoCleanup: true, DeleteAll: true},
				} {
					So(f.Validate(), ShouldBeNil)
				}
			})
		})

		Convey("Phase selection", func() {
			So(RunFlags{RunOnly: true}.Sweeps(), ShouldBeFalse)
			So(RunFlags{RunOnly: true}.Dumps(), ShouldBeTrue)
			So(RunFlags{DeleteOnly: true}.Dumps(), ShouldBeFalse)
			So(RunFlags{DeleteOnly: true}.AgeBased(), ShouldBeFalse)
			So(RunFlags{DeleteOnly: true, AutoCleanup: true}.AgeBased(), ShouldBeTrue)
			So(RunFlags{DeleteAll: true}.AgeBased(), ShouldBeFalse)
			So(RunFlags{AutoCleanup: true}.Sweeps(), ShouldBeTrue)
		})
	})
}

func TestDumpError(t *testing.T) {
	Convey("Given a DumpError", t, func() {
		err := &DumpError{Tool: "mysqldump", ExitCode: 2, Stderr: "access denied"}

		Convey("It should match ErrDumpProcessFailed", func() {
			So(errors.Is(err, ErrDumpProcessFailed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "code 2")
			So(err.Error(), ShouldContainSubstring, "access denied")
		})
	})
}
