package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tiktok "github.com/RavensCloud/tiktok-metrics"
)

var errQuit = errors.New("cancelled at prompt")

// prompter collects profile URLs and the output mode interactively. Reads
// give up as soon as ctx ends.
type prompter struct {
	ctx   context.Context
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan string
}

func newPrompter(ctx context.Context, in io.Reader, out io.Writer) *prompter {
	return &prompter{ctx: ctx, in: in, out: out, lines: make(chan string)}
}

// scan feeds lines to readLine until EOF. A Scan blocked on a terminal
// cannot be interrupted, so after cancellation the goroutine is abandoned.
func (p *prompter) scan() {
	defer close(p.lines)
	sc := bufio.NewScanner(p.in)
	for sc.Scan() {
		select {
		case p.lines <- sc.Text():
		case <-p.ctx.Done():
			return
		}
	}
}

// readLine returns ok false at EOF and ctx's error once it is done.
func (p *prompter) readLine(prompt string) (string, bool, error) {
	p.once.Do(func() { go p.scan() })
	fmt.Fprint(p.out, prompt)
	if err := p.ctx.Err(); err != nil {
		return "", false, err
	}
	select {
	case <-p.ctx.Done():
		fmt.Fprintln(p.out)
		return "", false, p.ctx.Err()
	case line, ok := <-p.lines:
		return strings.TrimSpace(line), ok, nil
	}
}

// targets asks for profile URLs until an empty line. Invalid URLs are
// reported and asked for again.
func (p *prompter) targets() ([]tiktok.ProfileTarget, error) {
	fmt.Fprintln(p.out, "Enter TikTok profile URLs, one per line (e.g. https://www.tiktok.com/@username).")
	fmt.Fprintln(p.out, "Press ENTER on an empty line when done, or type 'exit' to quit.")

	var targets []tiktok.ProfileTarget
	for {
		line, ok, err := p.readLine(fmt.Sprintf("URL #%d: ", len(targets)+1))
		if err != nil {
			return nil, err
		}
		if !ok {
			// EOF ends input like an empty line.
			if len(targets) == 0 {
				return nil, errQuit
			}
			return targets, nil
		}
		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			return nil, errQuit
		case "":
			if len(targets) == 0 {
				fmt.Fprintln(p.out, "Please enter at least one URL or type 'exit' to quit.")
				continue
			}
			return targets, nil
		}

		t, err := tiktok.ParseProfileTarget(line, len(targets)+1)
		switch {
		case errors.Is(err, tiktok.ErrNotProfileURL):
			fmt.Fprintln(p.out, "That is a single video. Please provide a profile URL, e.g. https://www.tiktok.com/@username")
			continue
		case err != nil:
			fmt.Fprintln(p.out, "Invalid TikTok profile URL, e.g. https://www.tiktok.com/@username")
			continue
		}
		targets = append(targets, t)
		fmt.Fprintf(p.out, "Added @%s\n", t.Name)
	}
}

// outputMode asks for per-profile or combined output.
func (p *prompter) outputMode() (tiktok.OutputMode, error) {
	fmt.Fprintln(p.out, "Output:")
	fmt.Fprintln(p.out, "  1. Separate CSV file for each profile")
	fmt.Fprintln(p.out, "  2. Combined CSV file for all profiles")
	for {
		line, ok, err := p.readLine("Choose 1 or 2: ")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errQuit
		}
		if mode, err := tiktok.ParseOutputMode(line); err == nil {
			return mode, nil
		}
		fmt.Fprintln(p.out, "Please enter 1 or 2.")
	}
}

// parseTargets validates URLs given on the command line or in a file.
// Unlike the prompt, any invalid URL is an error.
func parseTargets(urls []string) ([]tiktok.ProfileTarget, error) {
	var (
		targets []tiktok.ProfileTarget
		errs    []error
	)
	for _, u := range urls {
		t, err := tiktok.ParseProfileTarget(u, len(targets)+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		targets = append(targets, t)
	}
	return targets, errors.Join(errs...)
}

// readURLFile returns the non-empty, non-comment lines of path.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url file: %w", err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read url file: %w", err)
	}
	return urls, nil
}
