package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/docweave/internal/imageio"
	"github.com/MeKo-Tech/docweave/internal/testutil"
)

// featureState is the per-scenario state of the CLI feature suite.
type featureState struct {
	dir     string
	prevDir string
	env     map[string]*string

	stdout string
	stderr string
	err    error
}

func (s *featureState) before(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
	dir, err := os.MkdirTemp("", "docweave-feature-*")
	if err != nil {
		return ctx, err
	}
	prev, err := os.Getwd()
	if err != nil {
		return ctx, err
	}
	if err := os.Chdir(dir); err != nil {
		return ctx, err
	}
	*s = featureState{dir: dir, prevDir: prev, env: map[string]*string{}}
	return ctx, nil
}

func (s *featureState) after(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
	for name, old := range s.env {
		if old == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *old)
		}
	}
	if err := os.Chdir(s.prevDir); err != nil {
		return ctx, err
	}
	return ctx, os.RemoveAll(s.dir)
}

func (s *featureState) aProbabilityMap(name string, w, h int, table *godog.Table) error {
	var regions []testutil.Region
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		vals := make([]int, len(row.Cells))
		for j, c := range row.Cells {
			v, err := strconv.Atoi(c.Value)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			vals[j] = v
		}
		if len(vals) != 5 {
			return fmt.Errorf("row %d: want 5 columns, got %d", i, len(vals))
		}
		regions = append(regions, testutil.Region{X0: vals[0], Y0: vals[1], X1: vals[2], Y1: vals[3], Level: uint8(vals[4])})
	}
	return imageio.Save(name, testutil.GrayImage(h, w, regions...))
}

func (s *featureState) aTextFile(name string, doc *godog.DocString) error {
	return os.WriteFile(name, []byte(doc.Content+"\n"), 0o600)
}

func (s *featureState) theEnvironmentVariable(name, value string) error {
	if _, seen := s.env[name]; !seen {
		if old, ok := os.LookupEnv(name); ok {
			s.env[name] = &old
		} else {
			s.env[name] = nil
		}
	}
	return os.Setenv(name, value)
}

func (s *featureState) iRun(command string) error {
	args := strings.Fields(command)
	if len(args) == 0 || args[0] != "docweave" {
		return fmt.Errorf("unexpected command %q", command)
	}
	s.stdout, s.stderr, s.err = run("", args[1:]...)
	return nil
}

func (s *featureState) theCommandSucceeds() error {
	if s.err != nil {
		return fmt.Errorf("command failed: %w\n%s", s.err, s.stderr)
	}
	return nil
}

func (s *featureState) theCommandFailsWith(text string) error {
	if s.err == nil {
		return errors.New("command succeeded")
	}
	if !strings.Contains(s.err.Error(), text) {
		return fmt.Errorf("error %q does not contain %q", s.err, text)
	}
	return nil
}

func (s *featureState) theOutputContains(text string) error {
	if !strings.Contains(s.stdout, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, s.stdout)
	}
	return nil
}

func (s *featureState) theOutputIs(text string) error {
	if got := strings.TrimSpace(s.stdout); got != text {
		return fmt.Errorf("output is %q, want %q", got, text)
	}
	return nil
}

func (s *featureState) boxes() (boxesFile, error) {
	var bf boxesFile
	if err := json.Unmarshal([]byte(s.stdout), &bf); err != nil {
		return bf, fmt.Errorf("decoding output: %w", err)
	}
	return bf, nil
}

func (s *featureState) page(idx int) (pageBoxes, error) {
	bf, err := s.boxes()
	if err != nil {
		return pageBoxes{}, err
	}
	if idx < 0 || idx >= len(bf.Pages) {
		return pageBoxes{}, fmt.Errorf("no page %d in %d pages", idx, len(bf.Pages))
	}
	return bf.Pages[idx], nil
}

func (s *featureState) theOutputHasPages(n int) error {
	bf, err := s.boxes()
	if err != nil {
		return err
	}
	if len(bf.Pages) != n {
		return fmt.Errorf("got %d pages, want %d", len(bf.Pages), n)
	}
	return nil
}

func (s *featureState) pageHasBoxes(idx, n int) error {
	p, err := s.page(idx)
	if err != nil {
		return err
	}
	if len(p.Boxes) != n {
		return fmt.Errorf("page %d has %d boxes, want %d", idx, len(p.Boxes), n)
	}
	return nil
}

func (s *featureState) boxHasScore(box, idx int, score float64) error {
	p, err := s.page(idx)
	if err != nil {
		return err
	}
	if box >= len(p.Boxes) {
		return fmt.Errorf("page %d has no box %d", idx, box)
	}
	if got := p.Boxes[box].Score; math.Abs(got-score) > 1e-3 {
		return fmt.Errorf("box %d has score %v, want about %v", box, got, score)
	}
	return nil
}

func (s *featureState) everyBoxIsOriented(idx int) error {
	p, err := s.page(idx)
	if err != nil {
		return err
	}
	if len(p.Boxes) == 0 {
		return fmt.Errorf("page %d has no boxes", idx)
	}
	for i, b := range p.Boxes {
		if b.Rotated == nil {
			return fmt.Errorf("box %d is axis-aligned", i)
		}
	}
	return nil
}

func (s *featureState) theFileExists(name string) error {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err
}

func initializeScenario(sc *godog.ScenarioContext) {
	s := &featureState{}
	sc.Before(s.before)
	sc.After(s.after)

	sc.Step(`^a probability map "([^"]*)" of size (\d+)x(\d+) with regions:$`, s.aProbabilityMap)
	sc.Step(`^a text file "([^"]*)" containing:$`, s.aTextFile)
	sc.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, s.theEnvironmentVariable)
	sc.Step(`^I run "([^"]*)"$`, s.iRun)
	sc.Step(`^the command succeeds$`, s.theCommandSucceeds)
	sc.Step(`^the command fails with "([^"]*)"$`, s.theCommandFailsWith)
	sc.Step(`^the output contains "([^"]*)"$`, s.theOutputContains)
	sc.Step(`^the output is "([^"]*)"$`, s.theOutputIs)
	sc.Step(`^the output has (\d+) pages?$`, s.theOutputHasPages)
	sc.Step(`^page (\d+) has (\d+) box(?:es)?$`, s.pageHasBoxes)
	sc.Step(`^box (\d+) of page (\d+) has a score of about ([0-9.]+)$`, s.boxHasScore)
	sc.Step(`^every box of page (\d+) is oriented$`, s.everyBoxIsOriented)
	sc.Step(`^the file "([^"]*)" exists$`, s.theFileExists)
}

func TestFeatures(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	paths, err := filepath.Glob("features/*.feature")
	if err != nil || len(paths) == 0 {
		t.Fatalf("no feature files found: %v", err)
	}
	for i, p := range paths {
		if paths[i], err = filepath.Abs(p); err != nil {
			t.Fatal(err)
		}
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "progress"
	}
	suite := godog.TestSuite{
		Name:                "docweave",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   format,
			Tags:     os.Getenv("GODOG_TAGS"),
			Paths:    paths,
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
