package stderr

import (
	"bufio"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Forward logs every non-blank line read from r until EOF.
func Forward(r io.Reader, log logrus.FieldLogger) {
	entry := log.WithField("source", "stderr")
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			entry.Warn(line)
		}
	}
	if err := scanner.Err(); err != nil {
		entry.WithError(err).Debug("stderr capture ended")
	}
}
