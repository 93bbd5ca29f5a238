package extract

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractPlainText decodes UTF-8, dropping a byte-order mark and replacing
// invalid sequences.
func extractPlainText(blob []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), blob)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), "�"), nil
}
