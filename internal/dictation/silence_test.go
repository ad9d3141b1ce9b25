package dictation

import (
	"encoding/binary"
	"testing"
)

func feedN(m *silenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := newSilenceMonitor()
	// 79 ticks of silence, no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick triggers warning (8s)
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // triggers warn

	// Sustained speech clears warning (need 25% of 80-tick window)
	for i := 0; i < 80; i++ {
		if ev := m.Tick(true); ev == SilenceWarnClear {
			return
		}
	}
	t.Fatal("expected SilenceWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestSilenceRepeat(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // warn at tick 80
	// Next repeat at tick 80 + 80 = 160
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			return
		}
	}
	t.Fatal("expected SilenceRepeat after sustained silence")
}

func TestAutoCloseAfter30s(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == SilenceAutoClose {
			if i < 250 {
				t.Fatalf("auto-close fired too early at tick %d", i)
			}
			return
		}
	}
	t.Fatal("expected SilenceAutoClose within 400 ticks")
}

func TestAutoClosePreventedBySpeech(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < 500; i++ {
		speech := i%10 < 7
		if ev := m.Tick(speech); ev == SilenceAutoClose {
			t.Fatalf("unexpected auto-close with speech at tick %d", i)
		}
	}
}

func TestWarnOnlyOnce(t *testing.T) {
	m := newSilenceMonitor()
	warns := 0
	for i := 0; i < 150; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 SilenceWarn, got %d", warns)
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // triggers warn

	// Occasional false positives (< 25% speech) should NOT clear
	for i := 0; i < 80; i++ {
		speech := i%10 == 0 // 10% speech, below clear threshold
		if ev := m.Tick(speech); ev == SilenceWarnClear {
			t.Fatalf("expected warning to stay with 10%% speech, got clear at tick %d", i)
		}
	}
}

func TestHasSpeech(t *testing.T) {
	silent := make([]byte, 320)
	if hasSpeech(silent) {
		t.Error("all-zero frame counted as speech")
	}

	loud := make([]byte, 320)
	for i := 0; i+1 < len(loud); i += 2 {
		binary.LittleEndian.PutUint16(loud[i:i+2], uint16(int16(8000)))
	}
	if !hasSpeech(loud) {
		t.Error("loud frame counted as silence")
	}

	if hasSpeech(nil) {
		t.Error("empty frame counted as speech")
	}
}
