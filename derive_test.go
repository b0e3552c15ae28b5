package custody_test

import (
	"bytes"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	. "github.com/smartystreets/goconvey/convey"
)

var testProgram = custody.MustParseAddress("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

func TestDerivation(t *testing.T) {
	Convey("Given a program and a set of seeds", t, func() {
		owner := custody.Address{1, 2, 3}
		seeds := [][]byte{[]byte("escrow"), owner[:], custody.SeedUint64(5)}

		Convey("FindProgramAddress is deterministic", func() {
			a1, b1, err := custody.FindProgramAddress(testProgram, seeds...)
			So(err, ShouldBeNil)
			a2, b2, err := custody.FindProgramAddress(testProgram, seeds...)
			So(err, ShouldBeNil)
			So(a1, ShouldResemble, a2)
			So(b1, ShouldEqual, b2)

			Convey("and the result is off curve", func() {
				So(custody.IsOnCurve(a1[:]), ShouldBeFalse)
			})

			Convey("and every bump above the found one is on curve", func() {
				for bump := 255; bump > int(b1); bump-- {
					_, err := custody.CreateProgramAddress(testProgram, append(seeds, []byte{uint8(bump)})...)
					So(errors.ErrOnCurve.Is(err), ShouldBeTrue)
				}
			})

			Convey("and CreateProgramAddress reproduces it with the bump", func() {
				a, err := custody.CreateProgramAddress(testProgram, append(seeds, []byte{b1})...)
				So(err, ShouldBeNil)
				So(a, ShouldResemble, a1)
			})

			Convey("and Derive with the tag gives the same result", func() {
				a, b, err := custody.Derive(testProgram, "escrow", owner[:], custody.SeedUint64(5))
				So(err, ShouldBeNil)
				So(a, ShouldResemble, a1)
				So(b, ShouldEqual, b1)
			})
		})

		Convey("Different seeds give different addresses", func() {
			a1, _, err := custody.Derive(testProgram, "escrow", owner[:], custody.SeedUint64(5))
			So(err, ShouldBeNil)
			a2, _, err := custody.Derive(testProgram, "escrow", owner[:], custody.SeedUint64(6))
			So(err, ShouldBeNil)
			a3, _, err := custody.Derive(testProgram, "vault", owner[:], custody.SeedUint64(5))
			So(err, ShouldBeNil)
			So(a1, ShouldNotResemble, a2)
			So(a1, ShouldNotResemble, a3)
		})

		Convey("Different programs give different addresses", func() {
			other := custody.Address{9}
			a1, _, err := custody.Derive(testProgram, "auth")
			So(err, ShouldBeNil)
			a2, _, err := custody.Derive(other, "auth")
			So(err, ShouldBeNil)
			So(a1, ShouldNotResemble, a2)
		})

		Convey("A chained derivation never collides with its parent", func() {
			auth, _, err := custody.Derive(testProgram, "auth")
			So(err, ShouldBeNil)
			vault, _, err := custody.Derive(testProgram, "vault", auth[:])
			So(err, ShouldBeNil)
			So(vault, ShouldNotResemble, auth)
		})
	})

	Convey("Seed limits are enforced", t, func() {
		Convey("a seed longer than 32 bytes is rejected", func() {
			_, _, err := custody.FindProgramAddress(testProgram, bytes.Repeat([]byte{1}, 33))
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
		})
		Convey("more than 15 seeds leave no room for the bump", func() {
			seeds := make([][]byte, 16)
			for i := range seeds {
				seeds[i] = []byte{byte(i)}
			}
			_, _, err := custody.FindProgramAddress(testProgram, seeds...)
			So(errors.ErrInvalidInput.Is(err), ShouldBeTrue)
		})
	})
}

func TestSeedUint64(t *testing.T) {
	got := custody.SeedUint64(0x0102)
	want := []byte{2, 1, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}
