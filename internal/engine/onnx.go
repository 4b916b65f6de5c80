//go:build onnx

package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/daulet/tokenizers"
	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Artifact layout produced by `optimum-cli export onnx` for a seq2seq model.
const (
	encoderFile   = "encoder_model.onnx"
	decoderFile   = "decoder_model.onnx"
	tokenizerFile = "tokenizer.json"
)

var (
	ortOnce sync.Once
	ortErr  error
)

type onnxLoader struct {
	library string
	log     zerolog.Logger
}

func newONNXLoader(cfg LoaderConfig) (Loader, error) {
	return &onnxLoader{library: cfg.ONNXLibrary, log: cfg.Logger}, nil
}

func (l *onnxLoader) Name() string { return "onnx" }

func (l *onnxLoader) Load(_ context.Context, dir string, opts ComputeOptions) (Engine, Tokenizer, error) {
	ortOnce.Do(func() {
		if l.library != "" {
			ort.SetSharedLibraryPath(l.library)
		}
		ortErr = ort.InitializeEnvironment()
	})
	if ortErr != nil {
		return nil, nil, fmt.Errorf("init onnxruntime: %w", ortErr)
	}

	vocab, err := loadVocab(filepath.Join(dir, tokenizerFile))
	if err != nil {
		return nil, nil, err
	}
	tk, err := tokenizers.FromFile(filepath.Join(dir, tokenizerFile))
	if err != nil {
		return nil, nil, fmt.Errorf("tokenizer load: %w", err)
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		tk.Close()
		return nil, nil, err
	}
	defer so.Destroy()
	if opts.IntraThreads > 0 {
		if err := so.SetIntraOpNumThreads(opts.IntraThreads); err != nil {
			tk.Close()
			return nil, nil, err
		}
	}
	if err := so.SetInterOpNumThreads(opts.InterThreads); err != nil {
		tk.Close()
		return nil, nil, err
	}

	enc, err := ort.NewDynamicAdvancedSession(filepath.Join(dir, encoderFile),
		[]string{"input_ids", "attention_mask"}, []string{"last_hidden_state"}, so)
	if err != nil {
		tk.Close()
		return nil, nil, fmt.Errorf("encoder session: %w", err)
	}
	dec, err := ort.NewDynamicAdvancedSession(filepath.Join(dir, decoderFile),
		[]string{"input_ids", "encoder_attention_mask", "encoder_hidden_states"}, []string{"logits"}, so)
	if err != nil {
		enc.Destroy()
		tk.Close()
		return nil, nil, fmt.Errorf("decoder session: %w", err)
	}
	m := &onnxModel{enc: enc, dec: dec, tk: tk, vocab: vocab, log: l.log}
	return m, m, nil
}

// vocabulary maps pieces to ids and back.
type vocabulary struct {
	ids    map[string]int64
	pieces map[int64]string
	pad    int64
	eos    int64
	unk    int64
}

type tokenizerJSON struct {
	Model struct {
		Vocab json.RawMessage `json:"vocab"`
	} `json:"model"`
	AddedTokens []struct {
		ID      int64  `json:"id"`
		Content string `json:"content"`
	} `json:"added_tokens"`
}

// loadVocab reads the vocabulary of a Hugging Face tokenizer.json. BPE models
// store it as an object, Unigram models as a list of [piece, score] pairs.
func loadVocab(path string) (*vocabulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	var tj tokenizerJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return nil, fmt.Errorf("parse vocab: %w", err)
	}
	v := &vocabulary{ids: map[string]int64{}, pieces: map[int64]string{}}
	var asMap map[string]int64
	if err := json.Unmarshal(tj.Model.Vocab, &asMap); err == nil {
		for p, id := range asMap {
			v.ids[p] = id
		}
	} else {
		var asList [][]json.RawMessage
		if err := json.Unmarshal(tj.Model.Vocab, &asList); err != nil {
			return nil, fmt.Errorf("parse vocab: unsupported model.vocab shape")
		}
		for i, entry := range asList {
			if len(entry) == 0 {
				continue
			}
			var p string
			if err := json.Unmarshal(entry[0], &p); err != nil {
				return nil, fmt.Errorf("parse vocab entry %d: %w", i, err)
			}
			v.ids[p] = int64(i)
		}
	}
	for _, at := range tj.AddedTokens {
		v.ids[at.Content] = at.ID
	}
	for p, id := range v.ids {
		v.pieces[id] = p
	}
	v.pad, v.eos, v.unk = v.lookup("<pad>", 1), v.lookup(EOS, 2), v.lookup("<unk>", 3)
	return v, nil
}

func (v *vocabulary) lookup(p string, fallback int64) int64 {
	if id, ok := v.ids[p]; ok {
		return id
	}
	return fallback
}

func (v *vocabulary) id(p string) int64 { return v.lookup(p, v.unk) }

type onnxModel struct {
	enc   *ort.DynamicAdvancedSession
	dec   *ort.DynamicAdvancedSession
	tk    *tokenizers.Tokenizer
	vocab *vocabulary
	log   zerolog.Logger
}

// ConcurrentSafe: onnxruntime sessions accept concurrent Run calls.
func (m *onnxModel) ConcurrentSafe() bool { return true }

func (m *onnxModel) Close() error {
	m.enc.Destroy()
	m.dec.Destroy()
	m.tk.Close()
	return nil
}

func (m *onnxModel) Encode(_ context.Context, texts []string, lang string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, t := range texts {
		_, pieces := m.tk.Encode(t, false)
		seq := make([]string, 0, len(pieces)+2)
		seq = append(seq, lang)
		seq = append(seq, pieces...)
		out[i] = append(seq, EOS)
	}
	return out, nil
}

func (m *onnxModel) Decode(_ context.Context, tokens [][]string) ([]string, error) {
	out := make([]string, len(tokens))
	for i, seq := range tokens {
		ids := make([]uint32, 0, len(seq))
		for _, p := range seq {
			ids = append(ids, uint32(m.vocab.id(p)))
		}
		out[i] = m.tk.Decode(ids, true)
	}
	return out, nil
}

// Generate runs greedy decoding, so every source gets a single candidate.
// BeamSize is ignored by this backend.
func (m *onnxModel) Generate(ctx context.Context, source, prefix [][]string, opts GenerateOptions) ([][][]string, error) {
	B := len(source)
	if B == 0 {
		return [][][]string{}, nil
	}
	L := 0
	for _, s := range source {
		L = max(L, len(s))
	}
	ids := make([]int64, B*L)
	mask := make([]int64, B*L)
	for b, s := range source {
		for t := 0; t < L; t++ {
			if t < len(s) {
				ids[b*L+t] = m.vocab.id(s[t])
				mask[b*L+t] = 1
			} else {
				ids[b*L+t] = m.vocab.pad
			}
		}
	}
	idsT, err := ort.NewTensor(ort.NewShape(int64(B), int64(L)), ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(ort.NewShape(int64(B), int64(L)), mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()

	encOut := []ort.Value{nil}
	if err := m.enc.Run([]ort.Value{idsT, maskT}, encOut); err != nil {
		return nil, fmt.Errorf("encoder run: %w", err)
	}
	hidden := encOut[0]
	defer hidden.Destroy()

	// Decoder input starts with </s> followed by the target prefix.
	seqs := make([][]int64, B)
	for b := range seqs {
		seqs[b] = []int64{m.vocab.eos}
		for _, p := range prefix[b] {
			seqs[b] = append(seqs[b], m.vocab.id(p))
		}
	}
	finished := make([]bool, B)
	for step := 0; step < opts.MaxDecodingLength; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := m.decodeStep(seqs, hidden, maskT)
		if err != nil {
			return nil, err
		}
		all := true
		for b := range seqs {
			if finished[b] {
				continue
			}
			seqs[b] = append(seqs[b], next[b])
			if next[b] == m.vocab.eos {
				finished[b] = true
			} else {
				all = false
			}
		}
		if all {
			break
		}
	}

	out := make([][][]string, B)
	for b, seq := range seqs {
		// drop the decoder start token; keep the prefix for the caller to strip
		hyp := make([]string, 0, len(seq)-1)
		for _, id := range seq[1:] {
			if id == m.vocab.eos {
				break
			}
			hyp = append(hyp, m.vocab.pieces[id])
		}
		out[b] = [][]string{hyp}
	}
	return out, nil
}

// decodeStep runs the decoder over the current prefixes and returns the
// argmax token at the last position of each row.
func (m *onnxModel) decodeStep(seqs [][]int64, hidden ort.Value, maskT *ort.Tensor[int64]) ([]int64, error) {
	B := len(seqs)
	T := 0
	for _, s := range seqs {
		T = max(T, len(s))
	}
	in := make([]int64, B*T)
	for b, s := range seqs {
		for t := 0; t < T; t++ {
			if t < len(s) {
				in[b*T+t] = s[t]
			} else {
				in[b*T+t] = m.vocab.pad
			}
		}
	}
	inT, err := ort.NewTensor(ort.NewShape(int64(B), int64(T)), in)
	if err != nil {
		return nil, err
	}
	defer inT.Destroy()
	out := []ort.Value{nil}
	if err := m.dec.Run([]ort.Value{inT, maskT, hidden}, out); err != nil {
		return nil, fmt.Errorf("decoder run: %w", err)
	}
	defer out[0].Destroy()
	logitsT, ok := out[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("decoder logits: unexpected tensor type")
	}
	shape := logitsT.GetShape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("decoder logits: unexpected shape %v", shape)
	}
	V := int(shape[2])
	logits := logitsT.GetData()
	next := make([]int64, B)
	for b, s := range seqs {
		// last real position of this row
		off := (b*T + len(s) - 1) * V
		best, bestID := logits[off], 0
		for v := 1; v < V; v++ {
			if logits[off+v] > best {
				best, bestID = logits[off+v], v
			}
		}
		next[b] = int64(bestID)
	}
	return next, nil
}
