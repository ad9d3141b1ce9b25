package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	log := WithSession(base, "sess-1", "en-US")
	log.Info().Msg("listening")

	out := buf.String()
	for _, want := range []string{`"sessionId":"sess-1"`, `"locale":"en-US"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestWithUtterance_ChainsOntoSessionContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	session := WithSession(base, "sess-1", "en-US")
	log := WithUtterance(session, "utt-9")
	log.Info().Msg("utterance ended")

	out := buf.String()
	for _, want := range []string{`"sessionId":"sess-1"`, `"utteranceId":"utt-9"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestWithRecognizer(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	log := WithRecognizer(base, "sess-2", "fr-FR", "mock")
	log.Info().Msg("ready")

	out := buf.String()
	for _, want := range []string{`"sessionId":"sess-2"`, `"lang":"fr-FR"`, `"sttProvider":"mock"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
