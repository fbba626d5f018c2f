package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/matthewbaird/crudgen/internal/pipeline"
)

// interactive reports whether r is a terminal.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// promptTarget asks which projects to generate. An empty answer picks the
// last choice; a choice is accepted by number or by label.
func promptTarget(in io.Reader, out io.Writer) (pipeline.Target, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, "What do you want to generate?")
		for i, c := range pipeline.Choices {
			fmt.Fprintf(out, "  %d) %s\n", i+1, c)
		}
		fmt.Fprintf(out, "Choice [%d]: ", len(pipeline.Choices))

		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		answer := strings.TrimSpace(sc.Text())
		if n, err := strconv.Atoi(answer); err == nil {
			if n >= 1 && n <= len(pipeline.Choices) {
				answer = pipeline.Choices[n-1]
			}
		}
		t, err := pipeline.ParseTarget(answer)
		if err == nil {
			return t, nil
		}
		fmt.Fprintf(out, "%v\n\n", err)
	}
}
