// Package input turns raw email strings from configuration, a file or stdin
// into work items for a verification run.
package input

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/email-verifier/internal/core"
	"github.com/mikey/email-verifier/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// StdinPath selects standard input as the email file
const StdinPath = "-"

// Loader reads and normalizes email lists
type Loader struct {
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewLoader creates a new email list loader
func NewLoader(textProcessor *utils.TextProcessor, logger *zap.Logger) *Loader {
	return &Loader{
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Collect returns the configured emails followed by the lines of file.
// An empty file path reads nothing; "-" reads stdin.
func (l *Loader) Collect(emails []string, file string, stdin io.Reader) ([]string, error) {
	raw := append([]string(nil), emails...)
	if file == "" {
		return raw, nil
	}

	var r io.Reader
	if file == StdinPath {
		r = stdin
		l.logger.Info("Reading emails from stdin")
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open email file: %w", err)
		}
		defer f.Close()
		r = f
		l.logger.Info("Reading emails from file", zap.String("file", file))
	}

	lines, err := readLines(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read email list: %w", err)
	}

	return append(raw, lines...), nil
}

// BuildItems trims each string, drops empties and attaches the shared request
// parameters. It fails with a ConfigurationError when nothing is left.
func (l *Loader) BuildItems(raw []string, defaults core.RequestDefaults) ([]core.WorkItem, error) {
	items := make([]core.WorkItem, 0, len(raw))
	dropped := 0

	for _, s := range raw {
		email := strings.TrimSpace(l.textProcessor.SanitizeUTF8(s))
		if email == "" {
			dropped++
			continue
		}
		items = append(items, core.WorkItem{
			Email:     email,
			Address:   NormalizeAddress(email),
			FromEmail: defaults.FromEmail,
			HelloName: defaults.HelloName,
			Proxy:     defaults.Proxy,
		})
	}

	if dropped > 0 {
		l.logger.Debug("Dropped empty email entries", zap.Int("dropped", dropped))
	}

	if len(items) == 0 {
		return nil, &core.ConfigurationError{
			Field:  "emails",
			Reason: "must contain at least one non-empty address",
		}
	}

	return items, nil
}

// NormalizeAddress applies NFC normalization and lowercases the domain part.
// The local part is left as is since mailbox names may be case sensitive.
func NormalizeAddress(email string) string {
	email = norm.NFC.String(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}

	return email[:at+1] + cases.Lower(language.Und).String(email[at+1:])
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		// Comment lines
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
