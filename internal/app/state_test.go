package app

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tripsync/pkg/logger"
)

func TestRunState(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh run state", t, func() {
		st := newRunState(logger.NewNop())
		So(st.Current(), ShouldEqual, string(StateIdle))

		Convey("When every step succeeds", func() {
			for _, e := range []string{eventConnect, eventFetch, eventWrite, eventCommit} {
				So(st.Event(ctx, e), ShouldBeNil)
			}

			Convey("Then it should end committed and refuse to fail", func() {
				So(st.Current(), ShouldEqual, string(StateCommitted))
				So(st.Event(ctx, eventFail), ShouldNotBeNil)
			})
		})

		Convey("When a step is skipped", func() {
			So(st.Event(ctx, eventConnect), ShouldBeNil)
			err := st.Event(ctx, eventWrite)

			Convey("Then the transition should be rejected", func() {
				So(err, ShouldNotBeNil)
				So(st.Current(), ShouldEqual, string(StateConnecting))
			})
		})

		Convey("When failing from each non-terminal state", func() {
			steps := []string{eventConnect, eventFetch, eventWrite}
			for i := 0; i <= len(steps); i++ {
				s := newRunState(logger.NewNop())
				for _, e := range steps[:i] {
					So(s.Event(ctx, e), ShouldBeNil)
				}
				So(s.Event(ctx, eventFail), ShouldBeNil)
				So(s.Current(), ShouldEqual, string(StateFailed))
			}
		})
	})

	Convey("Given the terminal states", t, func() {
		So(StateCommitted.Terminal(), ShouldBeTrue)
		So(StateFailed.Terminal(), ShouldBeTrue)
		So(StateWriting.Terminal(), ShouldBeFalse)
		So(StateIdle.Terminal(), ShouldBeFalse)
	})
}
