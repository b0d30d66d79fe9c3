// Package google provides a Google Cloud Speech-to-Text ASR adapter.
package google

import (
	"context"
	"fmt"
	"io"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/jkang1643/Exbabel/internal/observability/metrics"
	"github.com/jkang1643/Exbabel/internal/service/asr"
)

// Config holds streaming recognition parameters.
type Config struct {
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
	// VoiceActivityTimeout enables voice activity events and sets the
	// speech end timeout. Zero disables them.
	VoiceActivityTimeout time.Duration
}

// DefaultConfig returns the default streaming parameters.
func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHz:   16000,
		InterimResults: true,
		AudioEncoding:  "LINEAR16",
	}
}

// Adapter implements asr.Adapter using Google Cloud Speech-to-Text.
type Adapter struct {
	client  *speech.Client
	stream  speechpb.Speech_StreamingRecognizeClient
	cb      asr.Callback
	cfg     Config
	metrics *metrics.Metrics
}

// New creates a Google ASR adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Adapter{
		client:  c,
		cfg:     cfg,
		metrics: metrics.DefaultMetrics,
	}, nil
}

// Start begins a streaming recognition session, sends the initial config
// and launches the response listener.
func (a *Adapter) Start(ctx context.Context, cb asr.Callback) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		return fmt.Errorf("streaming recognize: %w", err)
	}
	a.stream = stream
	a.cb = cb

	streamingConfig := &speechpb.StreamingRecognitionConfig{
		Config: &speechpb.RecognitionConfig{
			Encoding:        parseAudioEncoding(a.cfg.AudioEncoding),
			SampleRateHertz: int32(a.cfg.SampleRateHz),
			LanguageCode:    a.cfg.LanguageCode,
		},
		InterimResults: a.cfg.InterimResults,
	}
	if a.cfg.VoiceActivityTimeout > 0 {
		streamingConfig.EnableVoiceActivityEvents = true
		streamingConfig.VoiceActivityTimeout = &speechpb.StreamingRecognitionConfig_VoiceActivityTimeout{
			SpeechEndTimeout: durationpb.New(a.cfg.VoiceActivityTimeout),
		}
	}

	// Send streaming config as the first message
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: streamingConfig,
		},
	}); err != nil {
		return fmt.Errorf("send streaming config: %w", err)
	}

	go a.listen()
	return nil
}

// SendAudio sends audio bytes to Google Speech-to-Text.
func (a *Adapter) SendAudio(_ context.Context, audio []byte) error {
	if a.stream == nil {
		return fmt.Errorf("stream not started")
	}
	return a.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

// Close ends the streaming session and releases the client.
func (a *Adapter) Close() error {
	var err error
	if a.stream != nil {
		err = a.stream.CloseSend()
	}
	if cerr := a.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// listen receives responses from Google and invokes callbacks until the
// stream ends.
func (a *Adapter) listen() {
	for {
		resp, err := a.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			a.metrics.RecordASRError("google", classifyStreamError(err))
			a.cb.OnError(err)
			return
		}

		if resp.SpeechEventType == speechpb.StreamingRecognizeResponse_SPEECH_ACTIVITY_END {
			a.cb.OnEndOfUtterance()
			continue
		}

		for _, r := range resp.Results {
			if len(r.Alternatives) == 0 {
				continue
			}
			alt := r.Alternatives[0]
			if r.IsFinal {
				a.cb.OnFinal(alt.Transcript, float64(alt.Confidence))
			} else {
				a.cb.OnPartial(alt.Transcript)
			}
		}
	}
}

// classifyStreamError maps a streaming recognize failure to a metric label.
func classifyStreamError(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return "unknown"
	}
	switch st.Code() {
	case codes.OutOfRange:
		// Google closes streams that exceed the duration limit.
		return "stream_duration_exceeded"
	case codes.Unavailable:
		return "unavailable"
	case codes.DeadlineExceeded:
		return "deadline_exceeded"
	case codes.Canceled:
		return "canceled"
	case codes.InvalidArgument:
		return "invalid_argument"
	default:
		return st.Code().String()
	}
}

// parseAudioEncoding maps a config string to the proto encoding. Unknown
// values fall back to LINEAR16.
func parseAudioEncoding(encoding string) speechpb.RecognitionConfig_AudioEncoding {
	switch encoding {
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "AMR":
		return speechpb.RecognitionConfig_AMR
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}
