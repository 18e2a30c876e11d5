package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-sahayak/internal/config"
	"github.com/teslashibe/go-sahayak/internal/gcp"
	"github.com/teslashibe/go-sahayak/pkg/audioio"
	"github.com/teslashibe/go-sahayak/pkg/inference"
	"github.com/teslashibe/go-sahayak/pkg/stt"
	"github.com/teslashibe/go-sahayak/pkg/translate"
	"github.com/teslashibe/go-sahayak/pkg/tts"
)

func (a *App) credentials() gcp.Credentials {
	return gcp.Credentials{
		APIKey:          a.config.Google.APIKey,
		CredentialsFile: a.config.Google.CredentialsFile,
	}
}

// newLLM builds the completion provider, chaining fallbacks in order.
func (a *App) newLLM(ctx context.Context) (inference.Provider, error) {
	c := a.config.LLM
	names := append([]string{c.Provider}, c.Fallbacks...)

	var providers []inference.Provider
	for _, name := range names {
		var (
			p   inference.Provider
			err error
		)
		switch name {
		case config.ProviderGroq:
			opts := []inference.Option{
				inference.WithAPIKey(c.APIKey),
				inference.WithModel(c.Model),
				inference.WithTimeout(c.Timeout),
				inference.WithLogger(a.logger),
			}
			if c.BaseURL != "" {
				opts = append(opts, inference.WithBaseURL(c.BaseURL))
			}
			p, err = inference.NewClient(opts...)
		case config.ProviderGemini:
			opts := []inference.Option{
				inference.WithAPIKey(c.GeminiAPIKey),
				inference.WithTimeout(c.Timeout),
				inference.WithLogger(a.logger),
			}
			if c.GeminiModel != "" {
				opts = append(opts, inference.WithModel(c.GeminiModel))
			}
			p, err = inference.NewGemini(ctx, opts...)
		default:
			err = fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("llm %s: %w", name, err)
		}
		a.closers = append(a.closers, p)
		a.health["llm."+name] = p
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return inference.NewChainWithLogger(a.logger, providers...)
}

// newTranslator returns nil when translation is disabled.
func (a *App) newTranslator(ctx context.Context) (translate.Provider, error) {
	c := a.config.Translator
	opts := []translate.Option{
		translate.WithTimeout(c.Timeout),
		translate.WithLogger(a.logger),
	}
	if c.BaseURL != "" {
		opts = append(opts, translate.WithBaseURL(c.BaseURL))
	}

	switch c.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderWeb:
		return translate.NewWeb(opts...), nil
	case config.ProviderCloud:
		p, err := translate.NewCloud(ctx, append(opts, translate.WithCredentials(a.credentials()))...)
		if err != nil {
			return nil, fmt.Errorf("translator cloud: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("translator: unknown provider %q", c.Provider)
	}
}

// newSynthesizer returns nil when speech output is disabled.
func (a *App) newSynthesizer(ctx context.Context) (tts.Provider, error) {
	c := a.config.TTS
	var names []string
	for _, name := range append([]string{c.Provider}, c.Fallbacks...) {
		if name != config.ProviderNone {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}

	var providers []tts.Provider
	for _, name := range names {
		var (
			p   tts.Provider
			err error
		)
		switch name {
		case config.ProviderEdge:
			p = tts.NewEdge(
				tts.WithBinary(c.Binary),
				tts.WithTimeout(c.Timeout),
				tts.WithLogger(a.logger),
			)
		case config.ProviderGoogle:
			p, err = tts.NewGoogle(ctx,
				tts.WithCredentials(a.credentials()),
				tts.WithTimeout(c.Timeout),
				tts.WithLogger(a.logger),
			)
		case config.ProviderOpenAI:
			opts := []tts.Option{
				tts.WithAPIKey(a.config.OpenAI.APIKey),
				tts.WithTimeout(c.Timeout),
				tts.WithLogger(a.logger),
			}
			if a.config.OpenAI.BaseURL != "" {
				opts = append(opts, tts.WithBaseURL(a.config.OpenAI.BaseURL))
			}
			p, err = tts.NewOpenAI(opts...)
		default:
			err = fmt.Errorf("unknown provider %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("tts %s: %w", name, err)
		}
		a.closers = append(a.closers, p)
		a.health["tts."+name] = p
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return tts.NewChainWithLogger(a.logger, providers...)
}

// newRecognizer returns nil when speech input is disabled or the default
// Google recognizer has no credentials to run with.
func (a *App) newRecognizer(ctx context.Context) (stt.Recognizer, error) {
	c := a.config.STT
	switch c.Provider {
	case config.ProviderNone:
		return nil, nil
	case config.ProviderGoogle:
		r, err := stt.NewGoogle(ctx,
			stt.WithCredentials(a.credentials()),
			stt.WithLogger(a.logger),
		)
		if errors.Is(err, gcp.ErrNoCredentials) {
			a.logger.Warn("no google credentials, speech recognition disabled", "error", err)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stt google: %w", err)
		}
		return r, nil
	case config.ProviderWhisper:
		opts := []stt.Option{
			stt.WithAPIKey(a.config.LLM.APIKey),
			stt.WithLogger(a.logger),
		}
		if c.Model != "" {
			opts = append(opts, stt.WithModel(c.Model))
		}
		r, err := stt.NewWhisper(opts...)
		if err != nil {
			return nil, fmt.Errorf("stt whisper: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("stt: unknown provider %q", c.Provider)
	}
}

// newMicrophone opens the capture device. A machine without one is not an
// error: voice turns are simply unavailable.
func (a *App) newMicrophone(recognizer stt.Recognizer) (*stt.Microphone, error) {
	c := a.config.STT
	if !c.Microphone || recognizer == nil {
		return nil, nil
	}

	acfg := audioio.DefaultConfig()
	acfg.Backend = audioio.Backend(c.AudioBackend)
	source, err := audioio.NewSource(acfg, a.logger)
	if errors.Is(err, audioio.ErrBackendUnavailable) {
		a.logger.Warn("no microphone available, voice input disabled", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("microphone: %w", err)
	}

	mcfg := stt.DefaultMicrophoneConfig().WithTimeouts(c.ListenTimeout, c.PhraseLimit)
	mcfg.AmbientDuration = c.AmbientDuration
	mcfg.Logger = a.logger
	mic, err := stt.NewMicrophone(source, recognizer, mcfg)
	if err != nil {
		source.Close()
		return nil, fmt.Errorf("microphone: %w", err)
	}
	return mic, nil
}
