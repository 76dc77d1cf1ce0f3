package playback

import (
	"errors"
	"testing"
	"testing/synctest"

	"github.com/llehouerou/undertow/internal/errmsg"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := NewSubscription()

		sub.Emit(PositionEvent{PositionSeconds: 30})
		sub.Emit(TrackEvent{Path: "/music/song.flac", SampleRate: 44100, Channels: 2})
		sub.Emit(ErrorEvent{Op: errmsg.OpPlaybackLoad, Path: "/missing.mp3", Err: errors.New("boom")})

		pos := <-sub.PositionChanged
		if pos.PositionSeconds != 30 {
			t.Errorf("PositionChanged.PositionSeconds = %v, want 30", pos.PositionSeconds)
		}

		tr := <-sub.TrackChanged
		if tr.SampleRate != 44100 {
			t.Errorf("TrackChanged.SampleRate = %d, want 44100", tr.SampleRate)
		}

		e := <-sub.Error
		if e.Path != "/missing.mp3" {
			t.Errorf("Error.Path = %q, want /missing.mp3", e.Path)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := NewSubscription()
		sub.Close()
		sub.Close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := NewSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.Emit(PositionEvent{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.PositionChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d events, want %d (buffer size)", count, eventBufferSize)
	}
}
