package ingest

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// TranscriptResult carries the outcome of a transcript attempt. Fetching is
// always best-effort: every failure mode collapses into an empty Text, with
// Err retained only for logging.
type TranscriptResult struct {
	Text string
	Err  error
}

// TranscriptFetcher obtains an auto-generated transcript for a video id.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) TranscriptResult
}

// CommandTranscriptFetcher shells out to a subtitle download tool (yt-dlp)
// with a hard timeout, asking for auto-generated English captions in json3
// format written to a per-video temporary path.
type CommandTranscriptFetcher struct {
	Command string
	Timeout time.Duration
	Dir     string
}

func NewCommandTranscriptFetcher(command string, timeout time.Duration, dir string) *CommandTranscriptFetcher {
	if command == "" {
		command = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &CommandTranscriptFetcher{Command: command, Timeout: timeout, Dir: dir}
}

// json3 subtitle file shape: {events: [{segs: [{utf8}]}]}
type subtitleFile struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (f *CommandTranscriptFetcher) Fetch(ctx context.Context, videoID string) TranscriptResult {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	base := filepath.Join(f.Dir, "transcript-"+videoID)
	outFile := base + ".en.json3"
	defer os.Remove(outFile)

	cmd := exec.CommandContext(ctx, f.Command,
		"--skip-download",
		"--write-auto-sub",
		"--sub-lang", "en",
		"--sub-format", "json3",
		"-o", base,
		"https://www.youtube.com/watch?v="+videoID,
	)
	// the tool may exit non-zero even when it wrote the subtitle file, so the
	// file's existence is the real signal
	runErr := cmd.Run()

	raw, err := os.ReadFile(outFile)
	if err != nil {
		if runErr != nil {
			return TranscriptResult{Err: runErr}
		}
		return TranscriptResult{Err: err}
	}

	var subs subtitleFile
	if err := json.Unmarshal(raw, &subs); err != nil {
		return TranscriptResult{Err: err}
	}

	var parts []string
	for _, ev := range subs.Events {
		for _, seg := range ev.Segs {
			if s := strings.TrimSpace(seg.UTF8); s != "" {
				parts = append(parts, s)
			}
		}
	}
	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return TranscriptResult{Text: truncate(text, maxTranscriptChars)}
}
