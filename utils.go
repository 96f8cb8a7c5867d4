package main

import (
	"html"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// readClipboardText returns the clipboard as plain text. macOS is asked
// for the text flavor first so rich text does not come back as RTF.
func readClipboardText() (string, error) {
	if runtime.GOOS == "darwin" {
		if out, err := exec.Command("pbpaste", "-Prefer", "txt").Output(); err == nil {
			return plainText(string(out)), nil
		}
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", err
	}
	return plainText(text), nil
}

func writeClipboardText(text string) error {
	return clipboard.WriteAll(text)
}

var (
	rtfGroup   = regexp.MustCompile(`\{\\(?:\*|fonttbl|colortbl|stylesheet|info)[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	rtfControl = regexp.MustCompile(`\\([a-zA-Z]+)(-?\d+)? ?|\\'([0-9a-fA-F]{2})|\\([\\{}])|[{}]`)
	htmlTag    = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlBreak  = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>`)
)

func isRTF(text string) bool {
	return strings.HasPrefix(text, `{\rtf`)
}

func isHTML(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div") || strings.Contains(t, "<p"))
}

// plainText strips RTF or HTML markup, normalizes line endings and drops
// control characters other than newline and tab.
func plainText(text string) string {
	switch {
	case isRTF(text):
		text = rtfToText(text)
	case isHTML(text):
		text = htmlBreak.ReplaceAllString(text, "\n")
		text = html.UnescapeString(htmlTag.ReplaceAllString(text, ""))
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r >= 32 {
			return r
		}
		return -1
	}, text)
}

func rtfToText(rtf string) string {
	rtf = rtfGroup.ReplaceAllString(rtf, "")
	return rtfControl.ReplaceAllStringFunc(rtf, func(tok string) string {
		m := rtfControl.FindStringSubmatch(tok)
		switch {
		case m[1] == "par" || m[1] == "line":
			return "\n"
		case m[1] == "tab":
			return "\t"
		case m[1] != "":
			return ""
		case m[3] != "":
			b, _ := strconv.ParseUint(m[3], 16, 8)
			return string(rune(b))
		case m[4] != "":
			return m[4]
		}
		return ""
	})
}
