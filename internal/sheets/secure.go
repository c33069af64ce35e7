package sheets

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/shubh-37/minddump/internal/models"
)

const encryptedPrefix = "enc:v1:"

// SecureWriter is the hardened path to the master log: entries are
// validated, cells are neutralized against formula injection and the free
// text columns are encrypted when a key is configured.
type SecureWriter struct {
	api     API
	sheetID string
	rng     string
	aead    cipher.AEAD
	keyErr  error
}

// NewSecureWriter parses key as 32 bytes of base64 or hex. An empty key
// disables encryption; a malformed one makes every write fail.
func NewSecureWriter(api API, sheetID, rng, key string) *SecureWriter {
	w := &SecureWriter{api: api, sheetID: sheetID, rng: rng}
	if key == "" {
		return w
	}
	raw, err := decodeKey(key)
	if err != nil {
		w.keyErr = err
		return w
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		w.keyErr = eris.Wrap(err, "init cipher")
		return w
	}
	w.aead = aead
	return w
}

func decodeKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	if b, err := hex.DecodeString(key); err == nil && len(b) == chacha20poly1305.KeySize {
		return b, nil
	}
	return nil, eris.Errorf("encryption key must be %d bytes, base64 or hex encoded", chacha20poly1305.KeySize)
}

// Encrypting reports whether rows are encrypted before they are written.
func (w *SecureWriter) Encrypting() bool {
	return w.aead != nil
}

func (w *SecureWriter) SecureLogToMasterSheet(ctx context.Context, entry models.MasterSheetEntry) error {
	if w.keyErr != nil {
		return w.keyErr
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	row := entry.Row()
	for i, cell := range row {
		if s, ok := cell.(string); ok {
			row[i] = sanitizeCell(s)
		}
	}

	if w.aead != nil {
		// raw input and expanded text
		for _, i := range []int{0, 4} {
			sealed, err := w.seal(row[i].(string))
			if err != nil {
				return err
			}
			row[i] = sealed
		}
	}

	return w.api.AppendRow(ctx, w.sheetID, w.rng, row)
}

func (w *SecureWriter) seal(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, w.aead.NonceSize(), w.aead.NonceSize()+len(plain)+w.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", eris.Wrap(err, "generate nonce")
	}
	out := w.aead.Seal(nonce, nonce, []byte(plain), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses the encryption applied to a cell. Cells without the
// encrypted prefix are returned unchanged.
func (w *SecureWriter) Open(cell string) (string, error) {
	if !strings.HasPrefix(cell, encryptedPrefix) {
		return cell, nil
	}
	if w.aead == nil {
		return "", eris.New("no encryption key configured")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(cell, encryptedPrefix))
	if err != nil {
		return "", eris.Wrap(err, "decode cell")
	}
	ns := w.aead.NonceSize()
	if len(raw) < ns {
		return "", eris.New("ciphertext too short")
	}
	plain, err := w.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", eris.Wrap(err, "decrypt cell")
	}
	return string(plain), nil
}

func validateEntry(e models.MasterSheetEntry) error {
	switch {
	case strings.TrimSpace(e.RawInput) == "":
		return eris.New("entry has no raw input")
	case !utf8.ValidString(e.RawInput) || !utf8.ValidString(e.ExpandedText):
		return eris.New("entry is not valid UTF-8")
	case utf8.RuneCountInString(e.RawInput) > models.MaxRawTextLength:
		return eris.New("entry raw input too long")
	case e.Category == "":
		return eris.New("entry has no category")
	case e.Timestamp.IsZero():
		return eris.New("entry has no timestamp")
	}
	return nil
}

// sanitizeCell drops control characters other than newline and tab and
// prefixes values a spreadsheet would evaluate as a formula.
func sanitizeCell(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	if s != "" && strings.ContainsRune("=+-@\t", rune(s[0])) {
		return "'" + s
	}
	return s
}
