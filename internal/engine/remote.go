package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// RemoteLoader talks to a CTranslate2 worker process over HTTP. The worker
// owns the model; nllbd only ships token batches to it.
type RemoteLoader struct {
	BaseURL string
	// ReadyTimeout bounds how long Load waits for the worker's /health.
	ReadyTimeout time.Duration
	// RequestTimeout bounds each translate/tokenize call. Zero disables it.
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

func (l *RemoteLoader) Name() string { return "remote" }

type workerError struct {
	Error string `json:"error"`
}

type loadRequest struct {
	ModelDir          string `json:"model_dir"`
	Device            string `json:"device"`
	ComputeType       string `json:"compute_type"`
	IntraThreads      int    `json:"intra_threads"`
	InterThreads      int    `json:"inter_threads"`
	MaxBatchSize      int    `json:"max_batch_size"`
	MaxDecodingLength int    `json:"max_decoding_length"`
}

type loadResponse struct {
	Concurrent bool `json:"concurrent"`
}

type tokenizeRequest struct {
	Texts []string `json:"texts"`
	Lang  string   `json:"lang"`
}

type tokenizeResponse struct {
	Tokens [][]string `json:"tokens"`
}

type detokenizeRequest struct {
	Tokens [][]string `json:"tokens"`
}

type detokenizeResponse struct {
	Texts []string `json:"texts"`
}

type translateBatchRequest struct {
	Source            [][]string `json:"source"`
	TargetPrefix      [][]string `json:"target_prefix"`
	MaxDecodingLength int        `json:"max_decoding_length"`
	BeamSize          int        `json:"beam_size"`
}

type translateBatchResponse struct {
	Hypotheses [][][]string `json:"hypotheses"`
}

// Load waits for the worker, asks it to open the artifact and returns an
// engine and tokenizer sharing one HTTP client.
func (l *RemoteLoader) Load(ctx context.Context, dir string, opts ComputeOptions) (Engine, Tokenizer, error) {
	if l.BaseURL == "" {
		return nil, nil, errors.New("remote engine url is empty")
	}
	client := resty.New().
		SetBaseURL(l.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if l.RequestTimeout > 0 {
		client.SetTimeout(l.RequestTimeout)
	}
	if err := l.waitReady(ctx, client); err != nil {
		return nil, nil, err
	}

	var out loadResponse
	err := post(ctx, client, "/load", loadRequest{
		ModelDir:          dir,
		Device:            opts.Device,
		ComputeType:       opts.ComputeType,
		IntraThreads:      opts.IntraThreads,
		InterThreads:      opts.InterThreads,
		MaxBatchSize:      opts.MaxBatchSize,
		MaxDecodingLength: opts.MaxDecodingLength,
	}, &out)
	if err != nil {
		return nil, nil, err
	}
	r := &remote{client: client, concurrent: out.Concurrent}
	return r, r, nil
}

func (l *RemoteLoader) waitReady(ctx context.Context, client *resty.Client) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = l.ReadyTimeout
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		res, err := client.R().SetContext(ctx).Get("/health")
		if err != nil {
			l.Logger.Debug().Err(err).Int("attempt", attempt).Msg("engine worker not reachable")
			return err
		}
		if !res.IsSuccess() {
			l.Logger.Debug().Int("status", res.StatusCode()).Int("attempt", attempt).Msg("engine worker not ready")
			return fmt.Errorf("engine worker health: status %d", res.StatusCode())
		}
		return nil
	}, backoff.WithContext(b, ctx))
}

func post(ctx context.Context, client *resty.Client, path string, body, result any) error {
	var werr workerError
	res, err := client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&werr).
		Post(path)
	if err != nil {
		return fmt.Errorf("engine worker %s: %w", path, err)
	}
	if !res.IsSuccess() {
		msg := werr.Error
		if msg == "" {
			msg = res.String()
		}
		return fmt.Errorf("engine worker %s: status %d: %s", path, res.StatusCode(), msg)
	}
	return nil
}

type remote struct {
	client     *resty.Client
	concurrent bool
}

func (r *remote) ConcurrentSafe() bool { return r.concurrent }

func (r *remote) Close() error { return nil }

func (r *remote) Generate(ctx context.Context, source, prefix [][]string, opts GenerateOptions) ([][][]string, error) {
	var out translateBatchResponse
	err := post(ctx, r.client, "/translate_batch", translateBatchRequest{
		Source:            source,
		TargetPrefix:      prefix,
		MaxDecodingLength: opts.MaxDecodingLength,
		BeamSize:          opts.BeamSize,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Hypotheses, nil
}

func (r *remote) Encode(ctx context.Context, texts []string, lang string) ([][]string, error) {
	var out tokenizeResponse
	if err := post(ctx, r.client, "/tokenize", tokenizeRequest{Texts: texts, Lang: lang}, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

func (r *remote) Decode(ctx context.Context, tokens [][]string) ([]string, error) {
	var out detokenizeResponse
	if err := post(ctx, r.client, "/detokenize", detokenizeRequest{Tokens: tokens}, &out); err != nil {
		return nil, err
	}
	return out.Texts, nil
}
