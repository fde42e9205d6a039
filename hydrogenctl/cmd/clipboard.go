package cmd

import (
	"encoding/base64"
	"fmt"
	"io"
)

// copyToClipboard asks the terminal to place text on the system clipboard
// using the OSC 52 escape sequence.
func copyToClipboard(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	if err != nil {
		return fmt.Errorf("failed writing clipboard sequence: %w", err)
	}

	return nil
}
