package artifact

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultConvertCommand invokes the CTranslate2 converter shipped with the
// ctranslate2 Python package.
var DefaultConvertCommand = []string{
	"ct2-transformers-converter",
	"--model", "{model}",
	"--output_dir", "{output}",
	"--quantization", "{quantization}",
	"--force",
}

const stderrTailLines = 20

// CommandConverter runs an external converter process. Arguments may contain
// the placeholders {model}, {output} and {quantization}.
type CommandConverter struct {
	Command      []string
	Quantization string
	// Env is appended to the current process environment.
	Env    []string
	Logger zerolog.Logger
}

func (c *CommandConverter) Name() string {
	if len(c.Command) == 0 {
		return DefaultConvertCommand[0]
	}
	return c.Command[0]
}

// Args returns the argv after placeholder substitution.
func (c *CommandConverter) Args(modelID, outputDir string) []string {
	tmpl := c.Command
	if len(tmpl) == 0 {
		tmpl = DefaultConvertCommand
	}
	q := c.Quantization
	if q == "" {
		q = "int8"
	}
	r := strings.NewReplacer("{model}", modelID, "{output}", outputDir, "{quantization}", q)
	out := make([]string, len(tmpl))
	for i, a := range tmpl {
		out[i] = r.Replace(a)
	}
	return out
}

func (c *CommandConverter) Convert(ctx context.Context, modelID, outputDir string) error {
	argv := c.Args(modelID, outputDir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), c.Env...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	c.Logger.Info().Strs("argv", argv).Msg("converter start")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	tail := &lineTail{max: stderrTailLines}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); c.pump(stdout, "stdout", nil) }()
	go func() { defer wg.Done(); c.pump(stderr, "stderr", tail) }()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", argv[0], ctx.Err())
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return fmt.Errorf("%s exited with code %d: %s", argv[0], ee.ExitCode(), tail.String())
		}
		return fmt.Errorf("%s: %w", argv[0], err)
	}
	return nil
}

func (c *CommandConverter) pump(r io.Reader, stream string, tail *lineTail) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if tail != nil {
			tail.add(line)
		}
		c.Logger.Debug().Str("stream", stream).Msg(line)
	}
}

type lineTail struct {
	max   int
	lines []string
}

func (t *lineTail) add(s string) {
	t.lines = append(t.lines, s)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	if len(t.lines) == 0 {
		return "(no stderr)"
	}
	return strings.Join(t.lines, "\n")
}
