package manager

import (
	"bytes"
	"encoding/json"

	"nllbd/pkg/types"
)

// Field aliases accepted for compatibility with older clients. The first name
// present wins.
var (
	sourcesKeys = []string{"sources", "source"}
	srcLangKeys = []string{"src_lang", "srcLang"}
	tgtLangKeys = []string{"tgt_lang", "tgtLang"}
)

// DecodeRequest parses a JSON translate request and checks its shape:
// sources must be an array of strings and language tags must be strings.
// Absent or null sources mean an empty batch; absent or null tags are left
// empty for Translate to default.
func DecodeRequest(raw []byte) (types.TranslateRequest, error) {
	var req types.TranslateRequest
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return req, &ValidationError{Reason: "empty body"}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return req, &ValidationError{Reason: "body must be a JSON object"}
	}

	key, val, ok := pick(obj, sourcesKeys)
	if !ok || isNull(val) {
		val = json.RawMessage("[]")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(val, &elems); err != nil {
		return req, &ValidationError{Field: key, Reason: "must be an array of strings"}
	}
	req.Sources = make([]string, len(elems))
	for i, e := range elems {
		if err := json.Unmarshal(e, &req.Sources[i]); err != nil || isNull(e) {
			return req, &ValidationError{Field: key, Reason: "must be an array of strings"}
		}
	}

	if req.SrcLang, ok = stringField(obj, srcLangKeys); !ok {
		return req, &ValidationError{Field: "src_lang", Reason: "must be a string"}
	}
	if req.TgtLang, ok = stringField(obj, tgtLangKeys); !ok {
		return req, &ValidationError{Field: "tgt_lang", Reason: "must be a string"}
	}
	return req, nil
}

func pick(obj map[string]json.RawMessage, keys []string) (string, json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return k, v, true
		}
	}
	return "", nil, false
}

// stringField returns "" for absent or null values and false for non-strings.
func stringField(obj map[string]json.RawMessage, keys []string) (string, bool) {
	_, v, ok := pick(obj, keys)
	if !ok || isNull(v) {
		return "", true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(v json.RawMessage) bool { return string(bytes.TrimSpace(v)) == "null" }
