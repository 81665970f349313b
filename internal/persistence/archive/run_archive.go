package archive

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"swarmlink.ai/internal/persistence/snapshot"
)

type RunArchiveMeta struct {
	RunID     string `json:"run_id"`
	EndTick   int    `json:"end_tick"`
	Digest    string `json:"digest"`
	Seed      int64  `json:"seed"`
	Winner    string `json:"winner"`
	VotesA    int    `json:"votes_a"`
	VotesB    int    `json:"votes_b"`
	Agents    int    `json:"agents"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveRun copies the final snapshot of a finished game into
// `dataDir/archives/<run-id>/` next to a meta.json summary.
// Games that have not ended are left alone (archived=false).
func ArchiveRun(dataDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if !snap.Over || snap.Header.RunID == "" {
		return "", false, nil
	}
	archiveDir := filepath.Join(dataDir, "archives", snap.Header.RunID)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := RunArchiveMeta{
		RunID:     snap.Header.RunID,
		EndTick:   snap.Header.Tick,
		Digest:    snap.Header.Digest,
		Seed:      snap.Seed,
		Winner:    snap.Winner,
		VotesA:    snap.Votes[0],
		VotesB:    snap.Votes[1],
		Agents:    len(snap.Agents),
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ReadMeta loads the summary written by ArchiveRun.
func ReadMeta(dataDir, runID string) (RunArchiveMeta, error) {
	var meta RunArchiveMeta
	b, err := os.ReadFile(filepath.Join(dataDir, "archives", runID, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(b, &meta)
	return meta, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
