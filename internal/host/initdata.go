package host

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	domain "github.com/donaldgifford/classmart/pkg/types"
)

// webAppDataKey keys the HMAC that derives the secret from the bot token.
const webAppDataKey = "WebAppData"

// Init data errors.
var (
	ErrMissingHash  = errors.New("init data has no hash")
	ErrHashMismatch = errors.New("init data hash mismatch")
	ErrMissingUser  = errors.New("init data has no user")
)

// InitData is the parsed form of the host's init data string.
type InitData struct {
	QueryID    string
	User       *domain.HostUser
	AuthDate   time.Time
	StartParam string
	Hash       string
	Values     url.Values
}

// ParseInitData decodes a URL-encoded init data string. It does not check
// the hash.
func ParseInitData(raw string) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing init data: %w", err)
	}

	d := &InitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		Hash:       values.Get("hash"),
		Values:     values,
	}

	if s := values.Get("auth_date"); s != "" {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing init data auth_date: %w", err)
		}
		d.AuthDate = time.Unix(sec, 0).UTC()
	}

	if s := values.Get("user"); s != "" {
		var u domain.HostUser
		if err := json.Unmarshal([]byte(s), &u); err != nil {
			return nil, fmt.Errorf("parsing init data user: %w", err)
		}
		d.User = &u
	}

	return d, nil
}

// DataCheckString returns the sorted key=value lines, excluding hash, that
// the host signs.
func DataCheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	return strings.Join(lines, "\n")
}

func computeHash(values url.Values, botToken string) string {
	secret := hmac.New(sha256.New, []byte(webAppDataKey))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(DataCheckString(values)))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignInitData adds a hash computed with botToken to values and returns the
// encoded init data string. Used by the mock backend and tests to mint init
// data the way the host does.
func SignInitData(values url.Values, botToken string) string {
	signed := url.Values{}
	for k, v := range values {
		if k == "hash" {
			continue
		}
		signed[k] = v
	}
	signed.Set("hash", computeHash(signed, botToken))
	return signed.Encode()
}

// VerifyInitData parses raw and checks its hash against botToken. The
// parsed data must carry a user.
func VerifyInitData(raw, botToken string) (*InitData, error) {
	d, err := ParseInitData(raw)
	if err != nil {
		return nil, err
	}
	if d.Hash == "" {
		return nil, ErrMissingHash
	}

	want := computeHash(d.Values, botToken)
	if !hmac.Equal([]byte(want), []byte(d.Hash)) {
		return nil, ErrHashMismatch
	}
	if d.User == nil {
		return nil, ErrMissingUser
	}
	return d, nil
}

// EncodeUser returns init data values for u, ready for SignInitData.
func EncodeUser(u *domain.HostUser, authDate time.Time) (url.Values, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encoding init data user: %w", err)
	}
	return url.Values{
		"user":      {string(data)},
		"auth_date": {strconv.FormatInt(authDate.Unix(), 10)},
	}, nil
}
