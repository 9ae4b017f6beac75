package model_test

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	model "github.com/felmahq/felma/internal/domain/model"
)

func TestStageSequence(t *testing.T) {
	convey.Convey("Given the workflow stages", t, func() {
		stages := model.Stages()

		convey.Convey("Then there are nine stages from capture to share", func() {
			convey.So(stages, convey.ShouldHaveLength, 9)
			convey.So(stages[0], convey.ShouldEqual, model.StageCapture)
			convey.So(stages[8], convey.ShouldEqual, model.StageShare)
		})

		convey.Convey("Then indexes follow the declared order", func() {
			for i, s := range stages {
				convey.So(s.Valid(), convey.ShouldBeTrue)
				convey.So(s.Index(), convey.ShouldEqual, i)
			}
		})

		convey.Convey("When walking the chain with Next", func() {
			current := model.StageCapture
			var walked []model.Stage
			walked = append(walked, current)
			for {
				next, ok := current.Next()
				if !ok {
					break
				}
				walked = append(walked, next)
				current = next
			}

			convey.Convey("Then the chain visits every stage once and stops at share", func() {
				convey.So(walked, convey.ShouldResemble, stages)
				_, ok := model.StageShare.Next()
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When mutating the returned slice", func() {
			stages[0] = model.StageShare

			convey.Convey("Then the sequence itself is unchanged", func() {
				convey.So(model.Stages()[0], convey.ShouldEqual, model.StageCapture)
			})
		})
	})
}

func TestParseStage(t *testing.T) {
	convey.Convey("Given stage labels from the wire", t, func() {
		convey.Convey("When parsing valid labels", func() {
			for _, label := range []string{"capture", " Clarify ", "INVOLVE", "recognise"} {
				stage, err := model.ParseStage(label)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stage.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When parsing unknown labels", func() {
			for _, label := range []string{"", "done", "recognize", "cap ture"} {
				_, err := model.ParseStage(label)
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, model.ErrUnknownStage), convey.ShouldBeTrue)
			}
		})

		convey.Convey("When a stage value is fabricated", func() {
			bogus := model.Stage("triage")

			convey.Convey("Then it is not valid and has no successor", func() {
				convey.So(bogus.Valid(), convey.ShouldBeFalse)
				_, ok := bogus.Next()
				convey.So(ok, convey.ShouldBeFalse)
			})
		})
	})
}
