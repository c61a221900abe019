package bus

import "testing"

func TestPublishDeliversInOrder(t *testing.T) {
	b := New()
	topic := NewTopic[int]("numbers")

	var got []string
	Subscribe(b, topic, func(v int) { got = append(got, "first") })
	Subscribe(b, topic, func(v int) { got = append(got, "second") })

	Publish(b, topic, 1)

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("delivery order = %v, want [first second]", got)
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	b := New()

	var a, z int
	Subscribe(b, AnnotationDrawnTopic("a"), func(AnnotationDrawn) { a++ })
	Subscribe(b, ZoomTopic("a"), func(Zoom) { z++ })

	Publish(b, AnnotationDrawnTopic("a"), AnnotationDrawn{ID: "x"})
	Publish(b, AnnotationDrawnTopic("b"), AnnotationDrawn{ID: "y"})

	if a != 1 {
		t.Errorf("annotation handler calls = %d, want 1", a)
	}
	if z != 0 {
		t.Errorf("zoom handler calls = %d, want 0", z)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New()

	calls := 0
	sub := Subscribe(b, TilesDrawnEnd, func(TilesDrawn) { calls++ })

	if !b.Unsubscribe(sub) {
		t.Fatal("first Unsubscribe should remove the handler")
	}
	if b.Unsubscribe(sub) {
		t.Error("second Unsubscribe should be a no-op")
	}

	Publish(b, TilesDrawnEnd, TilesDrawn{Source: "a"})
	if calls != 0 {
		t.Errorf("calls after unsubscribe = %d, want 0", calls)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
}

func TestHandlerMayUnsubscribeDuringPublish(t *testing.T) {
	b := New()

	var sub Subscription
	calls := 0
	sub = Subscribe(b, TilesDrawnEnd, func(TilesDrawn) {
		calls++
		b.Unsubscribe(sub)
	})

	Publish(b, TilesDrawnEnd, TilesDrawn{})
	Publish(b, TilesDrawnEnd, TilesDrawn{})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTopicNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{AnnotationDrawnTopic("genes").Name(), "genes.annotationDrawn"},
		{ZoomTopic("insets").Name(), "insets.zoom"},
		{TilesDrawnEnd.Name(), "tilesDrawnEnd"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic name = %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSubscribers(t *testing.T) {
	b := New()
	Subscribe(b, TilesDrawnEnd, func(TilesDrawn) {})
	Subscribe(b, TilesDrawnEnd, func(TilesDrawn) {})

	if n := b.Subscribers(TilesDrawnEnd.Name()); n != 2 {
		t.Errorf("Subscribers() = %d, want 2", n)
	}
}
