// ABOUTME: Draft persistence on top of the charm KV client
// ABOUTME: Stores one serialized draft per survey id plus the active draft pointer

package charm

import (
	"errors"
	"sort"
	"strings"
)

func draftKey(surveyID string) []byte {
	return []byte(DraftPrefix + surveyID)
}

// SaveDraft stores a serialized draft under its survey id.
func (c *Client) SaveDraft(surveyID string, data []byte) error {
	if surveyID == "" {
		return errors.New("draft has no survey id")
	}
	return c.Set(draftKey(surveyID), data)
}

// LoadDraft returns the serialized draft for surveyID or ErrNotFound.
func (c *Client) LoadDraft(surveyID string) ([]byte, error) {
	return c.Get(draftKey(surveyID))
}

// DeleteDraft removes a draft and clears the active pointer if it referenced it.
func (c *Client) DeleteDraft(surveyID string) error {
	if err := c.Delete(draftKey(surveyID)); err != nil {
		return err
	}
	active, err := c.ActiveDraft()
	if err != nil {
		return err
	}
	if active == surveyID {
		return c.Delete([]byte(activeKey))
	}
	return nil
}

// ListDrafts returns the survey ids of every cached draft, sorted.
func (c *Client) ListDrafts() ([]string, error) {
	keys, err := c.KeysWithPrefix([]byte(DraftPrefix))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(string(k), DraftPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// SetActiveDraft records the draft that subsequent commands operate on.
func (c *Client) SetActiveDraft(surveyID string) error {
	return c.Set([]byte(activeKey), []byte(surveyID))
}

// ActiveDraft returns the active survey id, or "" when none is set.
func (c *Client) ActiveDraft() (string, error) {
	v, err := c.Get([]byte(activeKey))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}
