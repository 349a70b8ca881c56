package serializer

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/serbench/lib/model"
	"golang.org/x/text/unicode/norm"
	"unicode/utf8"
)

// ErrUnrepresentableText is returned by a text based behavior asked to write
// a string its format would alter, e.g. invalid UTF-8 for json
var ErrUnrepresentableText = errors.New("serializer: text not representable")

// textCheck returns an error if s does not survive the format unchanged
type textCheck func(s string) error

// checkText runs check on every string of the registered shape v
func checkText(v any, check textCheck) error {
	switch x := valueOf(v).(type) {
	case model.FlatRecord:
		return checkRecordText(x, check)
	case []model.FlatRecord:
		for i := range x {
			if err := checkRecordText(x[i], check); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
	case model.Container:
		return checkContainerText(x, check)
	case []model.Container:
		for i := range x {
			if err := checkContainerText(x[i], check); err != nil {
				return fmt.Errorf("container %d: %w", i, err)
			}
		}
	}
	return nil
}

func checkRecordText(r model.FlatRecord, check textCheck) error {
	if err := check(r.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	return nil
}

func checkContainerText(c model.Container, check textCheck) error {
	if err := check(c.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	for i, g := range c.Groups {
		for j, v := range g.Items {
			choc, ok := model.Normalize(v).(model.Chocolate)
			if !ok {
				continue
			}
			if err := check(choc.Origin); err != nil {
				return fmt.Errorf("group %d item %d origin: %w", i, j, err)
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Checks
// --------------------------------------------------------------------------

// utf8Text rejects invalid UTF-8, which json encoders replace with U+FFFD
func utf8Text(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: invalid UTF-8 in %q", ErrUnrepresentableText, s)
	}
	return nil
}

// xmlText rejects runes outside the XML 1.0 Char production
func xmlText(s string) error {
	if err := utf8Text(s); err != nil {
		return err
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: character %U in %q is not allowed in xml", ErrUnrepresentableText, r, s)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

// nfcText rejects strings that are not in Unicode normalization form C,
// cty normalizes every string value to NFC
func nfcText(s string) error {
	if err := utf8Text(s); err != nil {
		return err
	}
	if !norm.NFC.IsNormalString(s) {
		return fmt.Errorf("%w: %q is not NFC normalized", ErrUnrepresentableText, s)
	}
	return nil
}
