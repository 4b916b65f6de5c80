package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nllbd/internal/common/fsutil"
)

// HFCacheReclaimer removes the Hugging Face hub snapshot of a model once the
// optimized artifact exists.
type HFCacheReclaimer struct {
	HubDir string
}

// DefaultHubDir resolves the hub cache location the way huggingface_hub does:
// HF_HUB_CACHE, then $HF_HOME/hub, then ~/.cache/huggingface/hub.
func DefaultHubDir() string {
	if v := os.Getenv("HF_HUB_CACHE"); v != "" {
		return v
	}
	if v := os.Getenv("HF_HOME"); v != "" {
		return filepath.Join(v, "hub")
	}
	p, err := fsutil.ExpandHome("~/.cache/huggingface/hub")
	if err != nil {
		return ""
	}
	return p
}

// RepoDir returns the hub directory name for a repo id, e.g.
// facebook/nllb-200-distilled-600M -> models--facebook--nllb-200-distilled-600M.
func RepoDir(modelID string) string {
	return "models--" + strings.ReplaceAll(modelID, "/", "--")
}

// Reclaim deletes the repo snapshot and returns the bytes freed. Local paths
// and unknown repos are left alone.
func (r HFCacheReclaimer) Reclaim(modelID string) (int64, error) {
	if r.HubDir == "" || modelID == "" {
		return 0, nil
	}
	if filepath.IsAbs(modelID) || strings.Contains(modelID, "..") || strings.HasPrefix(modelID, ".") {
		return 0, nil
	}
	p := filepath.Join(r.HubDir, RepoDir(modelID))
	if !fsutil.PathExists(p) {
		return 0, nil
	}
	size, err := fsutil.DirSize(p)
	if err != nil {
		return 0, fmt.Errorf("size %s: %w", p, err)
	}
	if err := os.RemoveAll(p); err != nil {
		return 0, fmt.Errorf("remove %s: %w", p, err)
	}
	return size, nil
}
