package tiktok

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

var (
	rehydrationOpen  = []byte(`id="__UNIVERSAL_DATA_FOR_REHYDRATION__"`)
	rehydrationClose = []byte(`</script>`)
)

// profileFromPage reads the profile of handle out of a server-rendered
// profile page. The page must describe handle itself: TikTok sometimes
// serves a login wall or a different account, and counting that profile's
// videos would make the feed cross-check meaningless.
func profileFromPage(body []byte, handle string) (Author, error) {
	raw, err := rehydrationJSON(body)
	if err != nil {
		return Author{}, err
	}

	var data rehydration
	if err := json.Unmarshal(raw, &data); err != nil {
		return Author{}, fmt.Errorf("%w: decode rehydration data: %w", ErrInvalidResponse, err)
	}

	p := data.Scope.Profile
	if p.StatusCode != 0 {
		return Author{}, fmt.Errorf("%w: profile status %d", ErrNotFound, p.StatusCode)
	}
	if p.UserInfo.User.Handle == "" {
		return Author{}, fmt.Errorf("%w: no profile in page", ErrNotFound)
	}
	if !strings.EqualFold(p.UserInfo.User.Handle, handle) {
		return Author{}, fmt.Errorf("%w: asked for @%s, page is @%s", ErrProfileMismatch, handle, p.UserInfo.User.Handle)
	}
	return p.author(), nil
}

// rehydrationJSON returns the body of the rehydration script tag, whatever
// its other attributes are.
func rehydrationJSON(body []byte) ([]byte, error) {
	i := bytes.Index(body, rehydrationOpen)
	if i < 0 {
		return nil, fmt.Errorf("%w: rehydration script not found", ErrInvalidResponse)
	}
	rest := body[i+len(rehydrationOpen):]
	gt := bytes.IndexByte(rest, '>')
	if gt < 0 {
		return nil, fmt.Errorf("%w: unterminated rehydration tag", ErrInvalidResponse)
	}
	rest = rest[gt+1:]
	end := bytes.Index(rest, rehydrationClose)
	if end < 0 {
		return nil, fmt.Errorf("%w: rehydration script not closed", ErrInvalidResponse)
	}
	return rest[:end], nil
}
