package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/cartomix/mixcore/internal/analysis"
	"github.com/cartomix/mixcore/internal/camelot"
)

// Commands names the four external estimator programs this engine shells
// out to. Each is invoked as `<Command...> <path>` and must print a single
// JSON value on stdout; argv[0] is resolved via exec.LookPath.
type Commands struct {
	BPM      []string
	Key      []string
	Choruses []string
	Verses   []string
}

// Client wraps the external bpm/key/chorus/verse estimator processes with
// process-invocation management, treating each subprocess as the
// "connection" to an external analyzer.
type Client struct {
	cmds   Commands
	logger *slog.Logger
}

// NewClient builds a Client that invokes cmds's external estimator programs.
func NewClient(cmds Commands, logger *slog.Logger) *Client {
	return &Client{cmds: cmds, logger: logger}
}

func (c *Client) run(ctx context.Context, argv []string, path string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("analyzer: empty command for %s", path)
	}
	args := append(append([]string{}, argv[1:]...), path)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	c.logger.Debug("ran external analyzer",
		"cmd", strings.Join(argv, " "),
		"path", path,
		"duration", time.Since(start),
	)
	if err != nil {
		c.logger.Error("external analyzer failed",
			"cmd", strings.Join(argv, " "),
			"path", path,
			"error", err,
			"stderr", stderr.String(),
		)
		return nil, fmt.Errorf("analyzer: %s: %w: %s", strings.Join(argv, " "), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// BPM shells out to Commands.BPM, parsing a {"bpm": float} response.
func (c *Client) BPM(ctx context.Context, path string) (float64, error) {
	out, err := c.run(ctx, c.cmds.BPM, path)
	if err != nil {
		return 0, err
	}
	var payload struct {
		BPM float64 `json:"bpm"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return 0, fmt.Errorf("analyzer: decode bpm response: %w", err)
	}
	return payload.BPM, nil
}

// Key shells out to Commands.Key, parsing a {"pitch": str, "mode": str}
// response and converting it through camelot.FromPitch.
func (c *Client) Key(ctx context.Context, path string) (camelot.Key, error) {
	out, err := c.run(ctx, c.cmds.Key, path)
	if err != nil {
		return camelot.Key{}, err
	}
	var payload struct {
		Pitch string `json:"pitch"`
		Mode  string `json:"mode"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return camelot.Key{}, fmt.Errorf("analyzer: decode key response: %w", err)
	}
	return camelot.FromPitch(payload.Pitch, payload.Mode)
}

// Choruses shells out to Commands.Choruses, parsing a JSON array of
// {"start": float, "end": float} sections.
func (c *Client) Choruses(ctx context.Context, path string) ([]analysis.Section, error) {
	return c.runSections(ctx, c.cmds.Choruses, path)
}

// Verses shells out to Commands.Verses, same response shape as Choruses.
func (c *Client) Verses(ctx context.Context, path string) ([]analysis.Section, error) {
	return c.runSections(ctx, c.cmds.Verses, path)
}

func (c *Client) runSections(ctx context.Context, argv []string, path string) ([]analysis.Section, error) {
	out, err := c.run(ctx, argv, path)
	if err != nil {
		return nil, err
	}
	var payload []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("analyzer: decode section response: %w", err)
	}
	sections := make([]analysis.Section, len(payload))
	for i, p := range payload {
		sections[i] = analysis.Section{Start: p.Start, End: p.End}
	}
	return sections, nil
}
