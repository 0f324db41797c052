package lockfile

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/lockscan/pkg/errors"
)

const maxLineSize = 1 << 20

// yarnBlock accumulates one "header:" block of a classic lockfile.
type yarnBlock struct {
	header      string
	line        int
	descriptors []string
	version     string
	resolved    string
	integrity   string
}

// decodeYarnClassic reads the Yarn v1 lockfile syntax:
//
//	"@scope/pkg@^1.0.0", "@scope/pkg@^1.1.0":
//	  version "1.2.0"
//	  resolved "https://registry.yarnpkg.com/..."
//	  integrity sha512-...
//	  dependencies:
//	    dep "^2.0.0"
//
// Members of nested sections such as dependencies are syntax-checked but
// not recorded.
func decodeYarnClassic(data []byte) ([]yarnEntry, error) {
	var (
		entries     []yarnEntry
		block       *yarnBlock
		fieldIndent int
		inSection   bool
	)

	flush := func() error {
		if block == nil {
			return nil
		}
		if block.version == "" {
			return errors.Malformed("line %d: entry %q has no version", block.line, block.header)
		}
		for _, d := range block.descriptors {
			entries = append(entries, yarnEntry{
				Descriptor: d,
				Version:    block.version,
				Resolved:   block.resolved,
				Integrity:  block.integrity,
			})
		}
		return nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := len(line) - len(trimmed)

		if indent == 0 {
			if err := flush(); err != nil {
				return nil, err
			}
			if !strings.HasSuffix(trimmed, ":") {
				return nil, errors.Malformed("line %d: expected entry header, got %q", lineNo, trimmed)
			}
			header := strings.TrimSuffix(trimmed, ":")
			descriptors, err := splitHeader(header)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "line %d", lineNo)
			}
			block = &yarnBlock{header: header, line: lineNo, descriptors: descriptors}
			fieldIndent, inSection = 0, false
			continue
		}

		if block == nil {
			return nil, errors.Malformed("line %d: field outside of an entry", lineNo)
		}
		if fieldIndent == 0 {
			fieldIndent = indent
		}

		switch {
		case indent == fieldIndent:
			key, value, section, err := splitField(trimmed)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "line %d", lineNo)
			}
			inSection = section
			switch key {
			case "version":
				block.version = value
			case "resolved":
				block.resolved = value
			case "integrity":
				block.integrity = value
			}
		case indent > fieldIndent && inSection:
			if _, _, _, err := splitField(trimmed); err != nil {
				return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "line %d", lineNo)
			}
		default:
			return nil, errors.Malformed("line %d: unexpected indentation", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedLockfile, err, "read %s", FormatYarn)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return entries, nil
}

// splitHeader splits a block header into its comma-separated descriptors,
// unquoting each one.
func splitHeader(header string) ([]string, error) {
	var out []string
	s := strings.TrimSpace(header)
	for s != "" {
		var tok string
		if s[0] == '"' {
			var err error
			if tok, s, err = readQuoted(s); err != nil {
				return nil, err
			}
		} else if i := strings.IndexByte(s, ','); i >= 0 {
			tok, s = strings.TrimSpace(s[:i]), s[i:]
		} else {
			tok, s = strings.TrimSpace(s), ""
		}
		if tok == "" {
			return nil, fmt.Errorf("empty descriptor in header %q", header)
		}
		out = append(out, tok)

		s = strings.TrimSpace(s)
		if s == "" {
			break
		}
		if s[0] != ',' {
			return nil, fmt.Errorf("expected ',' after %q", tok)
		}
		s = strings.TrimSpace(s[1:])
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty header")
	}
	return out, nil
}

// splitField splits `key value`, `key: value` or a `key:` section opener.
func splitField(s string) (key, value string, section bool, err error) {
	if s[0] == '"' {
		key, s, err = readQuoted(s)
		if err != nil {
			return "", "", false, err
		}
	} else {
		i := strings.IndexAny(s, " :")
		if i < 0 {
			return "", "", false, fmt.Errorf("field %q has no value", s)
		}
		key, s = s[:i], s[i:]
	}

	s = strings.TrimLeft(s, " ")
	if strings.HasPrefix(s, ":") {
		s = strings.TrimSpace(s[1:])
		if s == "" {
			return key, "", true, nil
		}
	}
	if s == "" {
		return "", "", false, fmt.Errorf("field %q has no value", key)
	}

	if s[0] != '"' {
		return key, s, false, nil
	}
	value, rest, err := readQuoted(s)
	if err != nil {
		return "", "", false, err
	}
	if strings.TrimSpace(rest) != "" {
		return "", "", false, fmt.Errorf("unexpected content after %q", value)
	}
	return key, value, false, nil
}

// readQuoted reads a double-quoted string at the start of s and returns
// its unquoted value and the remainder of s.
func readQuoted(s string) (tok, rest string, err error) {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			tok, err = strconv.Unquote(s[:i+1])
			if err != nil {
				tok = s[1:i]
			}
			return tok, s[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("unterminated string %s", s)
}
