// Package google provides a Google Cloud Speech-to-Text adapter.
package google

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"

	"github.com/marienilba/voice-dictation/internal/stt"
)

// Adapter implements stt.Adapter using Google Cloud Speech-to-Text
// streaming recognition.
type Adapter struct {
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	cb     stt.Callback
	cfg    stt.Config
}

// New creates a Google STT adapter. Requires GOOGLE_APPLICATION_CREDENTIALS
// to be set in the environment.
func New(ctx context.Context, cfg stt.Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Factory returns an stt.Factory producing Google sessions.
func Factory() stt.Factory {
	return func(ctx context.Context, cfg stt.Config) (stt.Adapter, error) {
		return New(ctx, cfg)
	}
}

// Start opens the streaming session, sends the recognition config as the
// first message, and begins consuming responses.
func (a *Adapter) Start(ctx context.Context, cb stt.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return err
	}
	a.stream = stream
	a.cb = cb

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(a.cfg.SampleRateHz),
					LanguageCode:    a.cfg.LanguageCode,
				},
				InterimResults: a.cfg.InterimResults,
			},
		},
	})
	if err != nil {
		return err
	}

	go a.listen()
	return nil
}

// SendAudio sends PCM bytes to the recognizer.
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	return a.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close ends the streaming session and releases the client.
func (a *Adapter) Close() error {
	if a.stream != nil {
		if err := a.stream.CloseSend(); err != nil {
			return err
		}
	}
	return a.client.Close()
}

// listen receives transcript responses and forwards them to the callback.
func (a *Adapter) listen() {
	for {
		resp, err := a.stream.Recv()
		if err != nil {
			a.cb.OnError(err)
			return
		}

		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if r.IsFinal {
				a.cb.OnFinal(alt.Transcript, float64(alt.Confidence))
				a.cb.OnEndOfUtterance()
			} else {
				a.cb.OnPartial(alt.Transcript)
			}
		}
	}
}
