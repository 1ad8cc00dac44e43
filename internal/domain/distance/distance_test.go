package distance_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/arcade/internal/domain/distance"
	"github.com/okian/arcade/internal/domain/model"
)

func TestEuclidean(t *testing.T) {
	Convey("Given two points 3-4-5 apart", t, func() {
		a := model.Point{Lat: 0, Lon: 0}
		b := model.Point{Lat: 3, Lon: 4}

		Convey("The distance is symmetric and zero to itself", func() {
			So(distance.Euclidean(a, b), ShouldAlmostEqual, 5.0, 1e-12)
			So(distance.Euclidean(b, a), ShouldAlmostEqual, 5.0, 1e-12)
			So(distance.Euclidean(a, a), ShouldEqual, 0.0)
		})
	})
}

func TestMatrix(t *testing.T) {
	Convey("Given three points", t, func() {
		pts := []model.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 3}, {Lat: 4, Lon: 0}}

		Convey("When building the matrix", func() {
			m := distance.Matrix(pts)

			Convey("Then it is square, symmetric and zero on the diagonal", func() {
				So(m, ShouldNotBeNil)
				So(m.SymmetricDim(), ShouldEqual, 3)
				for i := range pts {
					So(m.At(i, i), ShouldEqual, 0.0)
					for j := range pts {
						So(m.At(i, j), ShouldEqual, m.At(j, i))
					}
				}
			})

			Convey("Then it holds the pairwise distances", func() {
				So(m.At(0, 1), ShouldAlmostEqual, 3.0, 1e-12)
				So(m.At(1, 2), ShouldAlmostEqual, 5.0, 1e-12)
				So(m.At(0, 2), ShouldAlmostEqual, 4.0, 1e-12)
			})
		})

		Convey("An empty point set has no matrix", func() {
			So(distance.Matrix(nil), ShouldBeNil)
		})
	})
}

func TestTourLength(t *testing.T) {
	Convey("Given a 3-4-5 triangle", t, func() {
		m := distance.Matrix([]model.Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 3}, {Lat: 4, Lon: 0}})

		Convey("Both orientations of the closed tour have the same length", func() {
			So(distance.TourLength(m, []int{0, 1, 2}), ShouldAlmostEqual, 12.0, 1e-12)
			So(distance.TourLength(m, []int{0, 2, 1}), ShouldAlmostEqual, 12.0, 1e-12)
		})

		Convey("A single stop has length zero", func() {
			So(distance.TourLength(m, []int{0}), ShouldEqual, 0.0)
		})
	})
}
