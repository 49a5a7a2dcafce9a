package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Sink plays encoded audio. Play blocks until playback finishes or ctx is
// cancelled.
type Sink interface {
	Play(ctx context.Context, audio []byte) error
}

// CommandSink plays audio by piping it to an external player's stdin.
type CommandSink struct {
	Name string
	Args []string
}

// knownPlayers are tried in order by DetectSink. Each reads audio from stdin.
var knownPlayers = []CommandSink{
	{Name: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-"}},
	{Name: "mpv", Args: []string{"--no-video", "--really-quiet", "-"}},
	{Name: "mpg123", Args: []string{"-q", "-"}},
}

// ParseCommandSink builds a sink from a command line such as
// "mpv --no-video -".
func ParseCommandSink(command string) (*CommandSink, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoPlayer
	}
	return &CommandSink{Name: fields[0], Args: fields[1:]}, nil
}

// DetectSink returns the configured player, or the first known player found
// on PATH when command is empty.
func DetectSink(command string) (*CommandSink, error) {
	if strings.TrimSpace(command) != "" {
		return ParseCommandSink(command)
	}
	for _, p := range knownPlayers {
		if _, err := exec.LookPath(p.Name); err == nil {
			sink := p
			return &sink, nil
		}
	}
	return nil, ErrNoPlayer
}

// Play runs the player and feeds it audio.
func (s *CommandSink) Play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, s.Name, s.Args...)
	cmd.Stdin = bytes.NewReader(audio)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", s.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", s.Name, err)
	}
	return nil
}

var _ Sink = (*CommandSink)(nil)
