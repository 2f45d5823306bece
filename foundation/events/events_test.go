package events_test

import (
	"fmt"
	"testing"

	"github.com/contentledger/notary/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan events out to subscribers.")
	{
		t.Logf("\tTest 0:\tWhen two subscribers are registered.")
		{
			evts := events.New()

			ch1 := evts.Acquire("one")
			ch2 := evts.Acquire("two")

			if evts.Acquire("one") != ch1 {
				t.Fatalf("\t%s\tTest 0:\tShould get the same channel for the same id.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould get the same channel for the same id.", success)

			evts.Send("viewer: block sealed")

			for i, ch := range []<-chan string{ch1, ch2} {
				if msg := <-ch; msg != "viewer: block sealed" {
					t.Fatalf("\t%s\tTest 0:\tShould receive the event on subscriber %d, got %q.", failed, i, msg)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould receive the event on every subscriber.", success)

			if err := evts.Release("one"); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to release a subscriber: %v", failed, err)
			}
			if _, open := <-ch1; open {
				t.Fatalf("\t%s\tTest 0:\tShould close the released channel.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close the released channel.", success)

			if err := evts.Release("one"); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould not be able to release twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not be able to release twice.", success)

			evts.Shutdown()
			if _, open := <-ch2; open || evts.Subscribers() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould close every channel on shutdown.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould close every channel on shutdown.", success)
		}

		t.Logf("\tTest 1:\tWhen a subscriber falls behind.")
		{
			evts := events.New()
			ch := evts.Acquire("slow")

			for i := range 150 {
				evts.Send(fmt.Sprintf("event %d", i))
			}

			if len(ch) != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould drop events past the buffer, got %d buffered.", failed, len(ch))
			}
			t.Logf("\t%s\tTest 1:\tShould drop events past the buffer without blocking.", success)
		}
	}
}
